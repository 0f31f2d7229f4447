// Command attribution_backfill re-runs charge attribution over every stored
// statement and clears budget classes left on lines that do not qualify.
// It is safe to run repeatedly.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/core/services"
	"github.com/SscSPs/finance_ingest_app/internal/middleware"
	"github.com/SscSPs/finance_ingest_app/internal/platform/config"
	"github.com/SscSPs/finance_ingest_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
	"github.com/SscSPs/finance_ingest_app/pkg/database"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitPartial = 2
)

func main() {
	os.Exit(run())
}

// run returns the exit code after its deferred cleanups have run.
func run() int {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		return exitError
	}
	ruleSet, err := rules.Load(cfg.RulesFile)
	if err != nil {
		logger.Error("Failed to load rules", slog.String("error", err.Error()))
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = middleware.WithLogger(ctx, logger.With(slog.String("job", "attribution_backfill")))

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		return exitError
	}
	defer dbPool.Close()

	repos := pgsql.NewRepositoryProvider(dbPool)
	return backfill(ctx, logger, services.NewAttributionService(repos.StatementRepo, ruleSet.AttributionConfig()))
}

// backfill runs the job and maps its outcome to an exit code.
func backfill(ctx context.Context, logger *slog.Logger, attribution portssvc.AttributionSvc) int {
	report, err := attribution.Backfill(ctx)
	if err != nil {
		logger.Error("Backfill failed", slog.String("error", err.Error()))
		return exitError
	}

	logger.Info("Backfill finished",
		slog.Int("statements", report.Statements),
		slog.Int("lines_updated", report.LinesUpdated),
		slog.Int64("budget_classes_cleared", report.BudgetClassesCleared),
		slog.Int("failed", len(report.Failed)),
	)
	if len(report.Failed) > 0 {
		logger.Warn("Some statements could not be re-attributed", slog.Any("statement_ids", report.Failed))
		return exitPartial
	}
	return exitOK
}
