package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	"github.com/SscSPs/finance_ingest_app/internal/attribution"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	portsrepo "github.com/SscSPs/finance_ingest_app/internal/core/ports/repositories"
	"github.com/SscSPs/finance_ingest_app/internal/models"
	"github.com/SscSPs/finance_ingest_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const statementColumns = `statement_id, user_id, cutoff_date, period_start_date, due_date,
		credit_limit, available_credit, used_credit, prior_balance, period_consumptions,
		other_charges, total_charges, payments_and_credits, interest, minimum_payment, total_payable,
		bank_name, card_type, last_digits, utilization, fingerprint, fingerprint_derived,
		source_label, created_at, updated_at`

const lineItemColumns = `line_item_id, statement_id, position, txn_date, description, amount,
		category, budget_class, kind, related_line_item_id`

type PgxStatementRepository struct {
	BaseRepository
}

// newPgxStatementRepository creates a new repository for statements and their lines.
func newPgxStatementRepository(pool *pgxpool.Pool) portsrepo.StatementRepositoryWithTx {
	return &PgxStatementRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxStatementRepository implements portsrepo.StatementRepositoryWithTx
var _ portsrepo.StatementRepositoryWithTx = (*PgxStatementRepository)(nil)

func scanStatement(row pgx.Row) (models.Statement, error) {
	var m models.Statement
	err := row.Scan(
		&m.StatementID,
		&m.UserID,
		&m.CutoffDate,
		&m.PeriodStartDate,
		&m.DueDate,
		&m.CreditLimit,
		&m.AvailableCredit,
		&m.UsedCredit,
		&m.PriorBalance,
		&m.PeriodConsumptions,
		&m.OtherCharges,
		&m.TotalCharges,
		&m.PaymentsAndCredits,
		&m.Interest,
		&m.MinimumPayment,
		&m.TotalPayable,
		&m.BankName,
		&m.CardType,
		&m.LastDigits,
		&m.Utilization,
		&m.Fingerprint,
		&m.FingerprintDerived,
		&m.SourceLabel,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func scanLineItem(row pgx.Row) (models.LineItem, error) {
	var m models.LineItem
	err := row.Scan(
		&m.LineItemID,
		&m.StatementID,
		&m.Position,
		&m.TxnDate,
		&m.Description,
		&m.Amount,
		&m.Category,
		&m.BudgetClass,
		&m.Kind,
		&m.RelatedLineItemID,
	)
	return m, err
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findOneStatement(ctx context.Context, q rowQuerier, query string, args ...any) (*domain.Statement, error) {
	m, err := scanStatement(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to query statement", err)
	}
	s := toDomainStatement(m)
	return &s, nil
}

// FindStatementByID retrieves a statement owned by userID.
func (r *PgxStatementRepository) FindStatementByID(ctx context.Context, userID, statementID string) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + `
		FROM statements
		WHERE statement_id = $1 AND user_id = $2;`
	return findOneStatement(ctx, r.Pool, query, statementID, userID)
}

// FindStatementByFingerprintForUpdate locks the user's statement with the given derived fingerprint.
// Must be called within a transaction.
func (r *PgxStatementRepository) FindStatementByFingerprintForUpdate(ctx context.Context, tx pgx.Tx, userID, fingerprint string) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + `
		FROM statements
		WHERE user_id = $1 AND fingerprint = $2 AND fingerprint_derived
		FOR UPDATE;`
	return findOneStatement(ctx, tx, query, userID, fingerprint)
}

// FindStatementByIDForUpdate locks a statement by id. Ownership is checked by the caller.
func (r *PgxStatementRepository) FindStatementByIDForUpdate(ctx context.Context, tx pgx.Tx, statementID string) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + `
		FROM statements
		WHERE statement_id = $1
		FOR UPDATE;`
	return findOneStatement(ctx, tx, query, statementID)
}

// ListStatementsByUser retrieves a paginated list of statements using token-based pagination.
func (r *PgxStatementRepository) ListStatementsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Statement, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// One extra row tells us whether there is a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + statementColumns + `
		FROM statements
		WHERE user_id = $1`
	// created_at alone is not unique; statement_id breaks ties.
	orderByClause := `ORDER BY created_at DESC, statement_id DESC`
	args := []any{userID}

	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (created_at, statement_id) < ($2, $3)`
		args = append(args, lastCreatedAt, lastID)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query statements for user "+userID, err)
	}
	defer rows.Close()

	statements := make([]domain.Statement, 0, fetchLimit)
	for rows.Next() {
		m, err := scanStatement(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan statement row", err)
		}
		statements = append(statements, toDomainStatement(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating statement rows", err)
	}

	var nextTokenVal *string
	if len(statements) > limit {
		statements = statements[:limit]
		last := statements[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.StatementID)
		nextTokenVal = &token
	}
	return statements, nextTokenVal, nil
}

// ListStatementIDs returns every statement id, oldest first.
func (r *PgxStatementRepository) ListStatementIDs(ctx context.Context) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `SELECT statement_id FROM statements ORDER BY created_at, statement_id;`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list statement ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan statement ids", err)
	}
	return ids, nil
}

// InsertStatement stores a new statement. A second statement with the same
// derived fingerprint for the user returns apperrors.ErrDuplicate.
func (r *PgxStatementRepository) InsertStatement(ctx context.Context, tx pgx.Tx, statement domain.Statement) error {
	m := toModelStatement(statement)
	query := `
		INSERT INTO statements (` + statementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25);
	`
	_, err := tx.Exec(ctx, query,
		m.StatementID,
		m.UserID,
		m.CutoffDate,
		m.PeriodStartDate,
		m.DueDate,
		m.CreditLimit,
		m.AvailableCredit,
		m.UsedCredit,
		m.PriorBalance,
		m.PeriodConsumptions,
		m.OtherCharges,
		m.TotalCharges,
		m.PaymentsAndCredits,
		m.Interest,
		m.MinimumPayment,
		m.TotalPayable,
		m.BankName,
		m.CardType,
		m.LastDigits,
		m.Utilization,
		m.Fingerprint,
		m.FingerprintDerived,
		m.SourceLabel,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: statement with fingerprint %s already exists", apperrors.ErrDuplicate, m.Fingerprint)
		}
		return fmt.Errorf("failed to insert statement %s: %w", m.StatementID, err)
	}
	return nil
}

// UpdateStatement overwrites the extracted fields of an existing statement
// and refreshes created_at. The owner is kept.
func (r *PgxStatementRepository) UpdateStatement(ctx context.Context, tx pgx.Tx, statement domain.Statement) error {
	m := toModelStatement(statement)
	query := `
		UPDATE statements SET
			cutoff_date = $2, period_start_date = $3, due_date = $4,
			credit_limit = $5, available_credit = $6, used_credit = $7, prior_balance = $8,
			period_consumptions = $9, other_charges = $10, total_charges = $11,
			payments_and_credits = $12, interest = $13, minimum_payment = $14, total_payable = $15,
			bank_name = $16, card_type = $17, last_digits = $18, utilization = $19,
			fingerprint = $20, fingerprint_derived = $21, source_label = $22,
			created_at = $23, updated_at = $24
		WHERE statement_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.StatementID,
		m.CutoffDate,
		m.PeriodStartDate,
		m.DueDate,
		m.CreditLimit,
		m.AvailableCredit,
		m.UsedCredit,
		m.PriorBalance,
		m.PeriodConsumptions,
		m.OtherCharges,
		m.TotalCharges,
		m.PaymentsAndCredits,
		m.Interest,
		m.MinimumPayment,
		m.TotalPayable,
		m.BankName,
		m.CardType,
		m.LastDigits,
		m.Utilization,
		m.Fingerprint,
		m.FingerprintDerived,
		m.SourceLabel,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: statement with fingerprint %s already exists", apperrors.ErrDuplicate, m.Fingerprint)
		}
		return fmt.Errorf("failed to update statement %s: %w", m.StatementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteStatement removes a user's statement; lines go with it by cascade.
func (r *PgxStatementRepository) DeleteStatement(ctx context.Context, userID, statementID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM statements WHERE statement_id = $1 AND user_id = $2;`, statementID, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete statement "+statementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteLineItems removes all lines of a statement.
func (r *PgxStatementRepository) DeleteLineItems(ctx context.Context, tx pgx.Tx, statementID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE statement_id = $1;`, statementID); err != nil {
		return apperrors.NewAppError(500, "failed to delete lines of statement "+statementID, err)
	}
	return nil
}

// InsertLineItems stores lines in one batch.
func (r *PgxStatementRepository) InsertLineItems(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO line_items (` + lineItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, item := range items {
		m := toModelLineItem(item)
		batch.Queue(query,
			m.LineItemID,
			m.StatementID,
			m.Position,
			m.TxnDate,
			m.Description,
			m.Amount,
			m.Category,
			m.BudgetClass,
			m.Kind,
			m.RelatedLineItemID,
		)
	}
	// Close reports the first failing command of the batch.
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines of statement "+items[0].StatementID, err)
	}
	return nil
}

// FindLineItemsByStatementID retrieves the lines of a statement ordered by position.
func (r *PgxStatementRepository) FindLineItemsByStatementID(ctx context.Context, statementID string) ([]domain.LineItem, error) {
	query := `SELECT ` + lineItemColumns + `
		FROM line_items
		WHERE statement_id = $1
		ORDER BY position;`
	rows, err := r.Pool.Query(ctx, query, statementID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines of statement "+statementID, err)
	}
	return collectLineItems(rows)
}

// FindLineItemsForUpdate locks and returns the lines of a statement.
// Must be called within a transaction.
func (r *PgxStatementRepository) FindLineItemsForUpdate(ctx context.Context, tx pgx.Tx, statementID string) ([]domain.LineItem, error) {
	query := `SELECT ` + lineItemColumns + `
		FROM line_items
		WHERE statement_id = $1
		ORDER BY position
		FOR UPDATE;`
	rows, err := tx.Query(ctx, query, statementID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock lines of statement "+statementID, err)
	}
	return collectLineItems(rows)
}

func collectLineItems(rows pgx.Rows) ([]domain.LineItem, error) {
	defer rows.Close()
	items := []domain.LineItem{}
	for rows.Next() {
		m, err := scanLineItem(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line item row", err)
		}
		items = append(items, toDomainLineItem(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line item rows", err)
	}
	return items, nil
}

// UpdateLineItemAttributions writes category and related line for attributed charges.
// Budget classes are left untouched.
func (r *PgxStatementRepository) UpdateLineItemAttributions(ctx context.Context, tx pgx.Tx, changes []attribution.Change) error {
	if len(changes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range changes {
		batch.Queue(`UPDATE line_items SET category = $2, related_line_item_id = $3 WHERE line_item_id = $1;`,
			c.LineItemID, c.Category, c.RelatedLineItemID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to update line item attributions", err)
	}
	return nil
}

// ClearInvalidBudgetClasses nulls budget classes on lines that are not positive consumptions.
func (r *PgxStatementRepository) ClearInvalidBudgetClasses(ctx context.Context) (int64, error) {
	query := `
		UPDATE line_items SET budget_class = NULL
		WHERE budget_class IS NOT NULL
		  AND NOT (kind = 'consumption' AND amount > 0);
	`
	cmdTag, err := r.Pool.Exec(ctx, query)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to clear invalid budget classes", err)
	}
	return cmdTag.RowsAffected(), nil
}

func toModelStatement(s domain.Statement) models.Statement {
	m := models.Statement{
		StatementID:        s.StatementID,
		UserID:             s.UserID,
		CutoffDate:         s.CutoffDate,
		PeriodStartDate:    s.PeriodStartDate,
		DueDate:            s.DueDate,
		CreditLimit:        s.CreditLimit,
		AvailableCredit:    s.AvailableCredit,
		UsedCredit:         s.UsedCredit,
		PriorBalance:       s.PriorBalance,
		PeriodConsumptions: s.PeriodConsumptions,
		OtherCharges:       s.OtherCharges,
		TotalCharges:       s.TotalCharges,
		PaymentsAndCredits: s.PaymentsAndCredits,
		Interest:           s.Interest,
		MinimumPayment:     s.MinimumPayment,
		TotalPayable:       s.TotalPayable,
		BankName:           s.BankName,
		CardType:           s.CardType,
		LastDigits:         s.LastDigits,
		Fingerprint:        s.Fingerprint,
		FingerprintDerived: s.FingerprintDerived,
		SourceLabel:        s.SourceLabel,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.CreatedAt,
	}
	if s.Utilization != nil {
		m.Utilization = decimal.NewNullDecimal(*s.Utilization)
	}
	return m
}

func toDomainStatement(m models.Statement) domain.Statement {
	s := domain.Statement{
		StatementID:        m.StatementID,
		UserID:             m.UserID,
		CutoffDate:         m.CutoffDate,
		PeriodStartDate:    m.PeriodStartDate,
		DueDate:            m.DueDate,
		CreditLimit:        m.CreditLimit,
		AvailableCredit:    m.AvailableCredit,
		UsedCredit:         m.UsedCredit,
		PriorBalance:       m.PriorBalance,
		PeriodConsumptions: m.PeriodConsumptions,
		OtherCharges:       m.OtherCharges,
		TotalCharges:       m.TotalCharges,
		PaymentsAndCredits: m.PaymentsAndCredits,
		Interest:           m.Interest,
		MinimumPayment:     m.MinimumPayment,
		TotalPayable:       m.TotalPayable,
		BankName:           m.BankName,
		CardType:           m.CardType,
		LastDigits:         m.LastDigits,
		Fingerprint:        m.Fingerprint,
		FingerprintDerived: m.FingerprintDerived,
		SourceLabel:        m.SourceLabel,
		CreatedAt:          m.CreatedAt,
	}
	if m.Utilization.Valid {
		u := m.Utilization.Decimal
		s.Utilization = &u
	}
	return s
}

func toModelLineItem(li domain.LineItem) models.LineItem {
	return models.LineItem{
		LineItemID:        li.LineItemID,
		StatementID:       li.StatementID,
		Position:          li.Position,
		TxnDate:           li.Date,
		Description:       li.Description,
		Amount:            li.Amount,
		Category:          li.Category,
		BudgetClass:       li.BudgetClass,
		Kind:              string(li.Kind),
		RelatedLineItemID: li.RelatedLineItemID,
	}
}

func toDomainLineItem(m models.LineItem) domain.LineItem {
	return domain.LineItem{
		LineItemID:        m.LineItemID,
		StatementID:       m.StatementID,
		Position:          m.Position,
		Date:              m.TxnDate,
		Description:       m.Description,
		Amount:            m.Amount,
		Category:          m.Category,
		BudgetClass:       m.BudgetClass,
		Kind:              domain.TransactionKind(m.Kind),
		RelatedLineItemID: m.RelatedLineItemID,
	}
}
