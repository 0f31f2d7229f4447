package handlers_test

import (
	"context"
	"io"

	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock StatementService ---
type MockStatementService struct {
	mock.Mock
}

func (m *MockStatementService) GetStatement(ctx context.Context, userID, statementID string) (*domain.Statement, []domain.LineItem, error) {
	args := m.Called(ctx, userID, statementID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Statement), args.Get(1).([]domain.LineItem), args.Error(2)
}

func (m *MockStatementService) ListStatements(ctx context.Context, userID string, params dto.ListStatementsParams) (*dto.ListStatementsResponse, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListStatementsResponse), args.Error(1)
}

func (m *MockStatementService) Reconcile(ctx context.Context, userID string, extraction dto.StatementExtraction, sourceLabel string, opts dto.ReconcileOptions) (*domain.Statement, []domain.LineItem, error) {
	args := m.Called(ctx, userID, extraction, sourceLabel, opts)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Statement), args.Get(1).([]domain.LineItem), args.Error(2)
}

func (m *MockStatementService) DeleteStatement(ctx context.Context, userID, statementID string) error {
	args := m.Called(ctx, userID, statementID)
	return args.Error(0)
}

// Ensure mock implements the interface
var _ portssvc.StatementSvcFacade = (*MockStatementService)(nil)

// --- Mock AttributionService ---
type MockAttributionService struct {
	mock.Mock
}

func (m *MockAttributionService) AttributeCharges(ctx context.Context, statementID string) (int, error) {
	args := m.Called(ctx, statementID)
	return args.Int(0), args.Error(1)
}

func (m *MockAttributionService) AttributeUserStatement(ctx context.Context, userID, statementID string) (int, error) {
	args := m.Called(ctx, userID, statementID)
	return args.Int(0), args.Error(1)
}

func (m *MockAttributionService) Backfill(ctx context.Context) (*dto.BackfillReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BackfillReport), args.Error(1)
}

var _ portssvc.AttributionSvc = (*MockAttributionService)(nil)

// --- Mock AnalysisService ---
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzePDF(ctx context.Context, file io.ReaderAt, size int64, detailed bool) (*dto.StatementExtraction, error) {
	args := m.Called(ctx, file, size, detailed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StatementExtraction), args.Error(1)
}

var _ portssvc.StatementAnalysisSvc = (*MockAnalysisService)(nil)

// --- Mock EmailService ---
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) IngestEmail(ctx context.Context, userID string, req dto.InboundEmailRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockEmailService) PreviewEmail(ctx context.Context, req dto.InboundEmailRequest) (*dto.EmailPreviewResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailPreviewResponse), args.Error(1)
}

func (m *MockEmailService) ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}

var _ portssvc.EmailSvcFacade = (*MockEmailService)(nil)
