package handlers

import (
	"log/slog"

	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/middleware"
	"github.com/SscSPs/finance_ingest_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Public webhook, authenticated by shared secret
	setupWebhookRoutes(r, cfg, services)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)
}

func setupWebhookRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	webhooks := r.Group("/webhooks",
		middleware.RateLimit(newMemoryLimiter(cfg.WebhookRateLimit, "60-M")),
		middleware.WebhookAuth(cfg.WebhookSecret),
	)
	RegisterWebhookRoutes(webhooks, services.Email)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	// PDF analysis is expensive, so uploads are limited per user rather than per IP
	uploadLimit := limitergin.NewMiddleware(
		newMemoryLimiter(cfg.UploadRateLimit, "10-M"),
		limitergin.WithKeyGetter(func(c *gin.Context) string {
			if userID, ok := middleware.GetUserIDFromContext(c); ok {
				return userID
			}
			return c.ClientIP()
		}),
	)

	RegisterStatementRoutes(v1, service.Statement, service.Attribution, service.Analysis, StatementRoutesConfig{
		MaxUploadBytes:   cfg.MaxUploadBytes,
		AnalysisTimeout:  cfg.AnalysisTimeout,
		UploadMiddleware: []gin.HandlerFunc{uploadLimit},
	})
	RegisterEmailRoutes(v1, service.Email)
}

// newMemoryLimiter builds an in-memory limiter, falling back to def when the
// configured rate cannot be parsed.
func newMemoryLimiter(formatted, def string) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		slog.Warn("Invalid rate limit, using default", slog.String("rate", formatted), slog.String("default", def))
		rate, _ = limiter.NewRateFromFormatted(def)
	}
	return limiter.New(memory.NewStore(), rate)
}
