package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/attribution"
	"github.com/SscSPs/finance_ingest_app/internal/categorizer"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
	"github.com/google/uuid"
)

// statementService reconciles analyzed statements into storage.
type statementService struct {
	BaseService
	repo        portsrepo.StatementRepositoryWithTx
	aliases     portssvc.AliasSvc
	rules       *rules.Set
	categorizer *categorizer.Categorizer
	attribution attribution.Config
}

// StatementServiceOption is a functional option for configuring the statement service
type StatementServiceOption func(*statementService)

// WithStatementClock overrides the clock used for created-at stamps.
func WithStatementClock(now func() time.Time) StatementServiceOption {
	return func(s *statementService) {
		s.now = now
	}
}

// NewStatementService creates a new statement service.
func NewStatementService(repo portsrepo.StatementRepositoryWithTx, aliases portssvc.AliasSvc, set *rules.Set, options ...StatementServiceOption) portssvc.StatementSvcFacade {
	svc := &statementService{
		repo:        repo,
		aliases:     aliases,
		rules:       set,
		categorizer: categorizer.New(set),
		attribution: set.AttributionConfig(),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

// Reconcile implements portssvc.StatementWriterSvc.
func (s *statementService) Reconcile(ctx context.Context, userID string, extraction dto.StatementExtraction, sourceLabel string, opts dto.ReconcileOptions) (*domain.Statement, []domain.LineItem, error) {
	logger := s.GetLogger(ctx).With(slog.String("source_label", sourceLabel))

	if err := extraction.Validate(); err != nil {
		logger.Warn("Rejected statement extraction", slog.String("error", err.Error()))
		return nil, nil, err
	}

	stmt := s.buildStatement(ctx, userID, extraction, sourceLabel)

	// Alias inserts run on the pool, outside the statement transaction.
	stmt.BankName = s.aliases.LookupOrCreate(ctx, domain.AliasBank, extraction.BankName)
	stmt.CardType = s.aliases.LookupOrCreate(ctx, domain.AliasCard, extraction.CardType)

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer s.repo.Rollback(ctx, tx) // No-op once committed

	var existing *domain.Statement
	if stmt.FingerprintDerived {
		existing, err = s.repo.FindStatementByFingerprintForUpdate(ctx, tx, userID, stmt.Fingerprint)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to check for duplicate statement", slog.String("fingerprint", stmt.Fingerprint))
			return nil, nil, err
		}
		if existing != nil && !opts.Overwrite {
			logger.Info("Duplicate statement detected", slog.String("fingerprint", stmt.Fingerprint), slog.String("existing_id", existing.StatementID))
			return nil, nil, duplicateOf(existing)
		}
	} else {
		logger.Info("Statement fingerprint not derivable, skipping duplicate check")
	}

	var target *domain.Statement
	if opts.Overwrite {
		target = existing
		if opts.OverwriteTargetID != "" {
			target, err = s.repo.FindStatementByIDForUpdate(ctx, tx, opts.OverwriteTargetID)
			if err != nil {
				return nil, nil, err
			}
			if target.UserID != userID {
				logger.Warn("Overwrite target belongs to another user", slog.String("statement_id", opts.OverwriteTargetID))
				return nil, nil, apperrors.ErrNotFound
			}
		}
	}

	if target != nil {
		stmt.StatementID = target.StatementID
		if err := s.repo.DeleteLineItems(ctx, tx, stmt.StatementID); err != nil {
			return nil, nil, err
		}
		if err := s.repo.UpdateStatement(ctx, tx, stmt); err != nil {
			return nil, nil, s.wrapWriteError(stmt, err)
		}
		logger.Info("Overwriting statement", slog.String("statement_id", stmt.StatementID))
	} else {
		stmt.StatementID = uuid.NewString()
		if err := s.repo.InsertStatement(ctx, tx, stmt); err != nil {
			return nil, nil, s.wrapWriteError(stmt, err)
		}
	}

	items := s.buildLineItems(ctx, stmt, extraction.Movements)
	if err := s.repo.InsertLineItems(ctx, tx, items); err != nil {
		return nil, nil, err
	}

	items, changed, err := attributeInTx(ctx, s.repo, tx, s.attribution, items)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Commit(ctx, tx); err != nil {
		return nil, nil, err
	}

	logger.Info("Statement reconciled",
		slog.String("statement_id", stmt.StatementID),
		slog.Int("line_items", len(items)),
		slog.Int("attributed", changed))
	return &stmt, items, nil
}

func (s *statementService) buildStatement(ctx context.Context, userID string, e dto.StatementExtraction, sourceLabel string) domain.Statement {
	stmt := domain.Statement{
		UserID:             userID,
		CutoffDate:         s.parseDate(ctx, "fecha_corte", e.CutoffDate),
		PeriodStartDate:    s.parseDate(ctx, "fecha_inicio_periodo", e.PeriodStartDate),
		DueDate:            s.parseDate(ctx, "fecha_pago", e.DueDate),
		CreditLimit:        e.CreditLimit.Decimal,
		AvailableCredit:    e.AvailableCredit.Decimal,
		UsedCredit:         e.UsedCredit.Decimal,
		PriorBalance:       e.PriorBalance.Decimal,
		PeriodConsumptions: e.PeriodConsumptions.Decimal,
		OtherCharges:       e.OtherCharges.Decimal,
		TotalCharges:       e.TotalCharges.Decimal,
		PaymentsAndCredits: e.PaymentsAndCredits.Decimal,
		Interest:           e.Interest.Decimal,
		MinimumPayment:     e.MinimumPayment.Decimal,
		TotalPayable:       e.TotalPayable.Decimal,
		LastDigits:         strings.TrimSpace(e.LastDigits.String()),
		SourceLabel:        sourceLabel,
		CreatedAt:          s.Now(),
	}
	if u, ok := domain.UtilizationPercent(stmt.UsedCredit, stmt.CreditLimit); ok {
		stmt.Utilization = u
	}
	if fp, ok := domain.StatementFingerprint(stmt.CutoffDate, stmt.LastDigits); ok {
		stmt.Fingerprint = fp
		stmt.FingerprintDerived = true
	} else {
		stmt.Fingerprint = sourceLabel
	}
	return stmt
}

// buildLineItems keeps a known, specific category from the analyzer and
// otherwise categorizes the description. Only positive consumptions get a
// budget class.
func (s *statementService) buildLineItems(ctx context.Context, stmt domain.Statement, movements []dto.ExtractedMovement) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(movements))
	for i, m := range movements {
		li := domain.LineItem{
			LineItemID:  uuid.NewString(),
			StatementID: stmt.StatementID,
			Position:    i,
			Description: strings.TrimSpace(m.Description),
			Amount:      m.Amount.Decimal.Abs(),
			Kind:        domain.ParseTransactionKind(m.Kind),
			Date:        s.parseDate(ctx, "movimientos_detallados.fecha", m.Date),
		}
		if li.Date == nil {
			li.Date = stmt.CutoffDate
		}

		category := strings.TrimSpace(m.Category)
		if category == "" || category == s.categorizer.Default() || !s.rules.IsCategory(category) {
			category = s.categorizer.Categorize(li.Description)
		}
		li.Category = category

		if li.QualifiesForBudgetClass() {
			class := s.categorizer.BudgetClass(category)
			li.BudgetClass = &class
		}
		items = append(items, li)
	}
	return items
}

// parseDate reads a D/M/YYYY date. Failures are logged and yield nil.
func (s *statementService) parseDate(ctx context.Context, field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dto.ExtractionDateLayout, raw)
	if err != nil {
		s.LogWarn(ctx, "Unparseable statement date", slog.String("field", field), slog.String("value", raw))
		return nil
	}
	return &t
}

// wrapWriteError turns a unique violation from a concurrent submission into
// a duplicate error.
func (s *statementService) wrapWriteError(stmt domain.Statement, err error) error {
	if errors.Is(err, apperrors.ErrDuplicate) {
		return &apperrors.DuplicateStatementError{
			Fingerprint: stmt.Fingerprint,
			Existing:    apperrors.ExistingStatement{BankName: stmt.BankName, CardType: stmt.CardType, CutoffDate: stmt.CutoffDate},
		}
	}
	return fmt.Errorf("failed to write statement: %w", err)
}

func duplicateOf(existing *domain.Statement) *apperrors.DuplicateStatementError {
	return &apperrors.DuplicateStatementError{
		Fingerprint: existing.Fingerprint,
		Existing: apperrors.ExistingStatement{
			ID:         existing.StatementID,
			BankName:   existing.BankName,
			CardType:   existing.CardType,
			CutoffDate: existing.CutoffDate,
			CreatedAt:  existing.CreatedAt,
		},
	}
}

// GetStatement implements portssvc.StatementReaderSvc.
func (s *statementService) GetStatement(ctx context.Context, userID, statementID string) (*domain.Statement, []domain.LineItem, error) {
	stmt, err := s.repo.FindStatementByID(ctx, userID, statementID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load statement", slog.String("statement_id", statementID))
		}
		return nil, nil, err
	}
	items, err := s.repo.FindLineItemsByStatementID(ctx, statementID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load statement lines", slog.String("statement_id", statementID))
		return nil, nil, err
	}
	return stmt, items, nil
}

// ListStatements implements portssvc.StatementReaderSvc.
func (s *statementService) ListStatements(ctx context.Context, userID string, params dto.ListStatementsParams) (*dto.ListStatementsResponse, error) {
	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}
	statements, next, err := s.repo.ListStatementsByUser(ctx, userID, params.Limit, token)
	if err != nil {
		s.LogError(ctx, err, "Failed to list statements", slog.String("user_id", userID))
		return nil, err
	}
	return &dto.ListStatementsResponse{
		Statements: dto.ToStatementResponses(statements),
		NextToken:  next,
	}, nil
}

// DeleteStatement implements portssvc.StatementWriterSvc.
func (s *statementService) DeleteStatement(ctx context.Context, userID, statementID string) error {
	if err := s.repo.DeleteStatement(ctx, userID, statementID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to delete statement", slog.String("statement_id", statementID))
		}
		return err
	}
	s.LogInfo(ctx, "Statement deleted", slog.String("statement_id", statementID))
	return nil
}
