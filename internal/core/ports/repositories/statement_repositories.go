package repositories

import (
	"context"

	"github.com/SscSPs/finance_ingest_app/internal/attribution"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// StatementReader defines read operations for statement data
type StatementReader interface {
	// FindStatementByID retrieves a statement owned by userID.
	FindStatementByID(ctx context.Context, userID, statementID string) (*domain.Statement, error)

	// ListStatementsByUser retrieves a page of statements, newest first, and the token for the next page.
	ListStatementsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Statement, *string, error)

	// FindLineItemsByStatementID retrieves the lines of a statement ordered by position.
	FindLineItemsByStatementID(ctx context.Context, statementID string) ([]domain.LineItem, error)

	// ListStatementIDs returns every statement id, oldest first.
	ListStatementIDs(ctx context.Context) ([]string, error)
}

// StatementWriter defines write operations that run in their own transaction
type StatementWriter interface {
	// DeleteStatement removes a statement and, by cascade, its lines.
	DeleteStatement(ctx context.Context, userID, statementID string) error

	// ClearInvalidBudgetClasses nulls budget classes on lines that are not positive consumptions.
	ClearInvalidBudgetClasses(ctx context.Context) (int64, error)
}

// StatementTxWriter defines operations that must be called within a caller-managed transaction
type StatementTxWriter interface {
	// FindStatementByFingerprintForUpdate locks the user's statement with the given fingerprint.
	FindStatementByFingerprintForUpdate(ctx context.Context, tx pgx.Tx, userID, fingerprint string) (*domain.Statement, error)

	// FindStatementByIDForUpdate locks a statement by id regardless of owner.
	FindStatementByIDForUpdate(ctx context.Context, tx pgx.Tx, statementID string) (*domain.Statement, error)

	// InsertStatement stores a new statement.
	InsertStatement(ctx context.Context, tx pgx.Tx, statement domain.Statement) error

	// UpdateStatement overwrites the extracted fields of an existing statement, keeping the owner and refreshing created_at.
	UpdateStatement(ctx context.Context, tx pgx.Tx, statement domain.Statement) error

	// DeleteLineItems removes all lines of a statement.
	DeleteLineItems(ctx context.Context, tx pgx.Tx, statementID string) error

	// InsertLineItems stores lines in one batch.
	InsertLineItems(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error

	// FindLineItemsForUpdate locks and returns the lines of a statement.
	FindLineItemsForUpdate(ctx context.Context, tx pgx.Tx, statementID string) ([]domain.LineItem, error)

	// UpdateLineItemAttributions writes category and related line for attributed charges.
	UpdateLineItemAttributions(ctx context.Context, tx pgx.Tx, changes []attribution.Change) error
}

// StatementRepositoryFacade combines all statement-related repository interfaces
type StatementRepositoryFacade interface {
	StatementReader
	StatementWriter
	StatementTxWriter
}

// StatementRepositoryWithTx extends StatementRepositoryFacade with transaction capabilities
type StatementRepositoryWithTx interface {
	StatementRepositoryFacade
	TransactionManager
}
