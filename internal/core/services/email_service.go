package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/SscSPs/finance_ingest_app/internal/emailparser"
	"github.com/google/uuid"
)

// emailService parses bank notification emails into transactions.
type emailService struct {
	BaseService
	repo   portsrepo.TransactionRepositoryFacade
	parser *emailparser.Parser
}

// NewEmailService creates a new email ingestion service.
func NewEmailService(repo portsrepo.TransactionRepositoryFacade, parser *emailparser.Parser) portssvc.EmailSvcFacade {
	return &emailService{repo: repo, parser: parser}
}

var _ portssvc.EmailSvcFacade = (*emailService)(nil)

func (s *emailService) parse(ctx context.Context, req dto.InboundEmailRequest) (emailparser.Parsed, error) {
	if !req.HasBody() {
		return emailparser.Parsed{}, fmt.Errorf("%w: empty email", apperrors.ErrValidation)
	}
	parsed, ok := s.parser.Parse(emailparser.Email{
		Subject: req.Subject,
		HTML:    req.BodyHTML,
		Plain:   req.BodyPlain,
	})
	if !ok {
		s.LogWarn(ctx, "Email did not yield a transaction", slog.String("sender", req.Sender), slog.String("subject", req.Subject))
		return emailparser.Parsed{}, fmt.Errorf("%w: %w", apperrors.ErrValidation, apperrors.ErrUnparseableEmail)
	}
	if owner := strings.TrimSpace(req.Owner); owner != "" {
		parsed.Transaction.Owner = owner
	}
	return parsed, nil
}

// IngestEmail implements portssvc.EmailIngestSvc.
func (s *emailService) IngestEmail(ctx context.Context, userID string, req dto.InboundEmailRequest) (*domain.Transaction, error) {
	parsed, err := s.parse(ctx, req)
	if err != nil {
		return nil, err
	}

	txn := parsed.Transaction
	txn.TransactionID = uuid.NewString()
	txn.UserID = userID
	txn.CreatedAt = s.Now()

	if err := s.repo.SaveTransaction(ctx, txn); err != nil {
		s.LogError(ctx, err, "Failed to save email transaction", slog.String("user_id", userID))
		return nil, err
	}

	s.LogInfo(ctx, "Email transaction ingested",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("bank", parsed.BankID),
		slog.String("category", txn.Category))
	return &txn, nil
}

// PreviewEmail implements portssvc.EmailIngestSvc.
func (s *emailService) PreviewEmail(ctx context.Context, req dto.InboundEmailRequest) (*dto.EmailPreviewResponse, error) {
	parsed, err := s.parse(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.EmailPreviewResponse{
		Bank:        parsed.BankID,
		Transaction: dto.ToTransactionResponse(&parsed.Transaction),
	}, nil
}

// ListTransactions implements portssvc.TransactionReaderSvc.
func (s *emailService) ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}
	txns, next, err := s.repo.ListTransactionsByUser(ctx, userID, params.Limit, token)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.String("user_id", userID))
		return nil, err
	}
	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    next,
	}, nil
}
