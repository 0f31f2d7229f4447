package repositories

import (
	"context"

	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
)

// TransactionReader defines read operations for email-ingested transactions
type TransactionReader interface {
	// ListTransactionsByUser retrieves a page of transactions, newest first.
	ListTransactionsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// TransactionWriter defines write operations for email-ingested transactions
type TransactionWriter interface {
	// SaveTransaction stores a transaction. Transactions are never updated.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error
}

// TransactionRepositoryFacade combines transaction reads and writes
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
