package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/finance_ingest_app/internal/attribution"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/jackc/pgx/v5"
)

// attributionService re-runs the charge attribution post-processor on
// statements that are already stored.
type attributionService struct {
	BaseService
	repo portsrepo.StatementRepositoryWithTx
	cfg  attribution.Config
}

// NewAttributionService creates a new attribution service.
func NewAttributionService(repo portsrepo.StatementRepositoryWithTx, cfg attribution.Config) portssvc.AttributionSvc {
	return &attributionService{repo: repo, cfg: cfg}
}

var _ portssvc.AttributionSvc = (*attributionService)(nil)

// AttributeCharges implements portssvc.AttributionSvc.
func (s *attributionService) AttributeCharges(ctx context.Context, statementID string) (int, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer s.repo.Rollback(ctx, tx)

	items, err := s.repo.FindLineItemsForUpdate(ctx, tx, statementID)
	if err != nil {
		return 0, err
	}
	_, changed, err := attributeInTx(ctx, s.repo, tx, s.cfg, items)
	if err != nil {
		return 0, err
	}
	if err := s.repo.Commit(ctx, tx); err != nil {
		return 0, err
	}

	s.LogDebug(ctx, "Charges attributed", slog.String("statement_id", statementID), slog.Int("updated", changed))
	return changed, nil
}

// AttributeUserStatement implements portssvc.AttributionSvc.
func (s *attributionService) AttributeUserStatement(ctx context.Context, userID, statementID string) (int, error) {
	if _, err := s.repo.FindStatementByID(ctx, userID, statementID); err != nil {
		return 0, err
	}
	return s.AttributeCharges(ctx, statementID)
}

// Backfill implements portssvc.AttributionSvc. A failing statement is
// reported and skipped; the remaining ones are still processed.
func (s *attributionService) Backfill(ctx context.Context) (*dto.BackfillReport, error) {
	ids, err := s.repo.ListStatementIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &dto.BackfillReport{Statements: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		changed, err := s.AttributeCharges(ctx, id)
		if err != nil {
			s.LogError(ctx, err, "Attribution backfill failed for statement", slog.String("statement_id", id))
			report.Failed = append(report.Failed, id)
			continue
		}
		report.LinesUpdated += changed
	}

	cleared, err := s.repo.ClearInvalidBudgetClasses(ctx)
	if err != nil {
		return report, err
	}
	report.BudgetClassesCleared = cleared

	s.LogInfo(ctx, "Attribution backfill finished",
		slog.Int("statements", report.Statements),
		slog.Int("lines_updated", report.LinesUpdated),
		slog.Int64("budget_classes_cleared", cleared),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

// attributeInTx computes attribution changes for items, writes them within
// tx and returns the updated items with the number of changed lines.
func attributeInTx(ctx context.Context, repo portsrepo.StatementTxWriter, tx pgx.Tx, cfg attribution.Config, items []domain.LineItem) ([]domain.LineItem, int, error) {
	changes := attribution.Attribute(items, cfg)
	if len(changes) == 0 {
		return items, 0, nil
	}
	if err := repo.UpdateLineItemAttributions(ctx, tx, changes); err != nil {
		return nil, 0, err
	}
	return attribution.Apply(items, changes), len(changes), nil
}
