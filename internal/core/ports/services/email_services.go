package services

import (
	"context"

	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
)

// EmailIngestSvc turns bank notification emails into stored transactions
type EmailIngestSvc interface {
	// IngestEmail parses and stores the transaction in an email.
	IngestEmail(ctx context.Context, userID string, req dto.InboundEmailRequest) (*domain.Transaction, error)

	// PreviewEmail parses an email without storing anything.
	PreviewEmail(ctx context.Context, req dto.InboundEmailRequest) (*dto.EmailPreviewResponse, error)
}

// TransactionReaderSvc defines read operations for ingested transactions
type TransactionReaderSvc interface {
	// ListTransactions retrieves a page of the user's transactions.
	ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// EmailSvcFacade combines the email service interfaces
type EmailSvcFacade interface {
	EmailIngestSvc
	TransactionReaderSvc
}
