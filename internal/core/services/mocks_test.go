package services_test

import (
	"context"

	"github.com/SscSPs/finance_ingest_app/internal/attribution"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// fakeTx stands in for a pgx.Tx; the mocked repositories never touch it.
type fakeTx struct {
	pgx.Tx
}

// --- Mock StatementRepository ---
type MockStatementRepository struct {
	mock.Mock
}

var _ portsrepo.StatementRepositoryWithTx = (*MockStatementRepository)(nil)

func (m *MockStatementRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockStatementRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockStatementRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockStatementRepository) FindStatementByID(ctx context.Context, userID, statementID string) (*domain.Statement, error) {
	args := m.Called(ctx, userID, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

func (m *MockStatementRepository) ListStatementsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Statement, *string, error) {
	args := m.Called(ctx, userID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Statement), returnedNextToken, args.Error(2)
}

func (m *MockStatementRepository) FindLineItemsByStatementID(ctx context.Context, statementID string) ([]domain.LineItem, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockStatementRepository) ListStatementIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStatementRepository) DeleteStatement(ctx context.Context, userID, statementID string) error {
	args := m.Called(ctx, userID, statementID)
	return args.Error(0)
}

func (m *MockStatementRepository) ClearInvalidBudgetClasses(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatementRepository) FindStatementByFingerprintForUpdate(ctx context.Context, tx pgx.Tx, userID, fingerprint string) (*domain.Statement, error) {
	args := m.Called(ctx, tx, userID, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

func (m *MockStatementRepository) FindStatementByIDForUpdate(ctx context.Context, tx pgx.Tx, statementID string) (*domain.Statement, error) {
	args := m.Called(ctx, tx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

func (m *MockStatementRepository) InsertStatement(ctx context.Context, tx pgx.Tx, statement domain.Statement) error {
	args := m.Called(ctx, tx, statement)
	return args.Error(0)
}

func (m *MockStatementRepository) UpdateStatement(ctx context.Context, tx pgx.Tx, statement domain.Statement) error {
	args := m.Called(ctx, tx, statement)
	return args.Error(0)
}

func (m *MockStatementRepository) DeleteLineItems(ctx context.Context, tx pgx.Tx, statementID string) error {
	args := m.Called(ctx, tx, statementID)
	return args.Error(0)
}

func (m *MockStatementRepository) InsertLineItems(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockStatementRepository) FindLineItemsForUpdate(ctx context.Context, tx pgx.Tx, statementID string) ([]domain.LineItem, error) {
	args := m.Called(ctx, tx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockStatementRepository) UpdateLineItemAttributions(ctx context.Context, tx pgx.Tx, changes []attribution.Change) error {
	args := m.Called(ctx, tx, changes)
	return args.Error(0)
}

// --- Mock AliasRepository ---
type MockAliasRepository struct {
	mock.Mock
}

var _ portsrepo.AliasRepositoryFacade = (*MockAliasRepository)(nil)

func (m *MockAliasRepository) ListAliases(ctx context.Context, kind domain.AliasKind) ([]domain.Alias, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Alias), args.Error(1)
}

func (m *MockAliasRepository) SaveAlias(ctx context.Context, alias domain.Alias) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListTransactionsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, userID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Transaction), returnedNextToken, args.Error(2)
}

// --- Mock AliasService ---
type MockAliasService struct {
	mock.Mock
}

var _ portssvc.AliasSvc = (*MockAliasService)(nil)

func (m *MockAliasService) LookupOrCreate(ctx context.Context, kind domain.AliasKind, raw string) string {
	args := m.Called(ctx, kind, raw)
	return args.String(0)
}

func (m *MockAliasService) Refresh() {
	m.Called()
}

// --- Mock StatementAnalyzer ---
type MockStatementAnalyzer struct {
	mock.Mock
}

var _ portssvc.StatementAnalyzer = (*MockStatementAnalyzer)(nil)

func (m *MockStatementAnalyzer) Analyze(ctx context.Context, text string, detailed bool) (*dto.StatementExtraction, error) {
	args := m.Called(ctx, text, detailed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StatementExtraction), args.Error(1)
}
