package services

import (
	"context"

	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
)

// StatementReaderSvc defines read operations for statement data
type StatementReaderSvc interface {
	// GetStatement retrieves a statement owned by userID together with its lines.
	GetStatement(ctx context.Context, userID, statementID string) (*domain.Statement, []domain.LineItem, error)

	// ListStatements retrieves a page of the user's statements.
	ListStatements(ctx context.Context, userID string, params dto.ListStatementsParams) (*dto.ListStatementsResponse, error)
}

// StatementWriterSvc defines write operations for statement data
type StatementWriterSvc interface {
	// Reconcile persists an analyzed statement with duplicate detection.
	// A detected duplicate is returned as *apperrors.DuplicateStatementError.
	Reconcile(ctx context.Context, userID string, extraction dto.StatementExtraction, sourceLabel string, opts dto.ReconcileOptions) (*domain.Statement, []domain.LineItem, error)

	// DeleteStatement removes a statement and its lines.
	DeleteStatement(ctx context.Context, userID, statementID string) error
}

// StatementSvcFacade combines all statement-related service interfaces
type StatementSvcFacade interface {
	StatementReaderSvc
	StatementWriterSvc
}

// AttributionSvc re-runs charge attribution on stored statements
type AttributionSvc interface {
	// AttributeCharges re-attributes the charges of one statement and returns how many lines changed.
	AttributeCharges(ctx context.Context, statementID string) (int, error)

	// AttributeUserStatement is AttributeCharges restricted to a statement owned by userID.
	AttributeUserStatement(ctx context.Context, userID, statementID string) (int, error)

	// Backfill re-attributes every statement and repairs invalid budget classes.
	Backfill(ctx context.Context) (*dto.BackfillReport, error)
}

// AliasSvc normalizes bank and card names against the alias registry
type AliasSvc interface {
	// LookupOrCreate returns the display name for raw, registering it when unknown.
	// It never fails; on any error the raw name is returned.
	LookupOrCreate(ctx context.Context, kind domain.AliasKind, raw string) string

	// Refresh drops the cached registry so the next lookup reloads it.
	Refresh()
}
