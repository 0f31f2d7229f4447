package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/finance_ingest_app/internal/analyzer"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/core/services"
	"github.com/SscSPs/finance_ingest_app/internal/handlers"
	"github.com/SscSPs/finance_ingest_app/internal/middleware"
	"github.com/SscSPs/finance_ingest_app/internal/platform/config"
	"github.com/SscSPs/finance_ingest_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
	"github.com/SscSPs/finance_ingest_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ruleSet, err := rules.Load(cfg.RulesFile)
	if err != nil {
		logger.Error("Failed to load rules", slog.String("error", err.Error()), slog.String("file", cfg.RulesFile))
		os.Exit(1)
	}
	logger.Info("Rules loaded", slog.String("version", ruleSet.Version), slog.Int("banks", len(ruleSet.Banks)))

	ctx := context.Background()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		logger.Error("Database migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Left as a nil interface when no key is configured; upload then answers 503.
	var statementAnalyzer portssvc.StatementAnalyzer
	if cfg.GeminiAPIKey != "" {
		gemini, err := analyzer.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to create statement analyzer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		statementAnalyzer = gemini
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(ruleSet, repos, statementAnalyzer)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
