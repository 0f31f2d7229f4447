package pgsql

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	"github.com/SscSPs/finance_ingest_app/internal/models"
	"github.com/SscSPs/finance_ingest_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTransactionRepository struct {
	pool *pgxpool.Pool
}

// newPgxTransactionRepository creates a new repository for email-ingested transactions.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{pool: pool}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

// SaveTransaction inserts a new transaction.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	m := toModelTransaction(txn)
	query := `
		INSERT INTO transactions (transaction_id, user_id, txn_timestamp, description, amount, category, card_label, bank_name, owner, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.pool.Exec(ctx, query,
		m.TransactionID,
		m.UserID,
		m.TxnTimestamp,
		m.Description,
		m.Amount,
		m.Category,
		m.CardLabel,
		m.BankName,
		m.Owner,
		m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction with ID %s already exists", apperrors.ErrDuplicate, m.TransactionID)
		}
		return fmt.Errorf("failed to save transaction %s: %w", m.TransactionID, err)
	}
	return nil
}

// ListTransactionsByUser retrieves a paginated list of a user's transactions, newest first.
func (r *PgxTransactionRepository) ListTransactionsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `
		SELECT transaction_id, user_id, txn_timestamp, description, amount, category, card_label, bank_name, owner, created_at
		FROM transactions
		WHERE user_id = $1`
	args := []any{userID}
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (created_at, transaction_id) < ($2, $3)`
		args = append(args, lastCreatedAt, lastID)
	}
	query += " ORDER BY created_at DESC, transaction_id DESC LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for user "+userID, err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, fetchLimit)
	for rows.Next() {
		var m models.Transaction
		if err := rows.Scan(
			&m.TransactionID,
			&m.UserID,
			&m.TxnTimestamp,
			&m.Description,
			&m.Amount,
			&m.Category,
			&m.CardLabel,
			&m.BankName,
			&m.Owner,
			&m.CreatedAt,
		); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		txns = append(txns, toDomainTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}

	var nextTokenVal *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		nextTokenVal = &token
	}
	return txns, nextTokenVal, nil
}

func toModelTransaction(t domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		TxnTimestamp:  t.Timestamp,
		Description:   t.Description,
		Amount:        t.Amount,
		Category:      t.Category,
		CardLabel:     t.CardLabel,
		BankName:      t.BankName,
		Owner:         t.Owner,
		CreatedAt:     t.CreatedAt,
	}
}

func toDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		Timestamp:     m.TxnTimestamp,
		Description:   m.Description,
		Amount:        m.Amount,
		Category:      m.Category,
		CardLabel:     m.CardLabel,
		BankName:      m.BankName,
		Owner:         m.Owner,
		CreatedAt:     m.CreatedAt,
	}
}
