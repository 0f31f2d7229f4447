package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement is the persisted row of a credit-card statement.
type Statement struct {
	StatementID        string              `db:"statement_id"`
	UserID             string              `db:"user_id"`
	CutoffDate         *time.Time          `db:"cutoff_date"`
	PeriodStartDate    *time.Time          `db:"period_start_date"`
	DueDate            *time.Time          `db:"due_date"`
	CreditLimit        decimal.Decimal     `db:"credit_limit"`
	AvailableCredit    decimal.Decimal     `db:"available_credit"`
	UsedCredit         decimal.Decimal     `db:"used_credit"`
	PriorBalance       decimal.Decimal     `db:"prior_balance"`
	PeriodConsumptions decimal.Decimal     `db:"period_consumptions"`
	OtherCharges       decimal.Decimal     `db:"other_charges"`
	TotalCharges       decimal.Decimal     `db:"total_charges"`
	PaymentsAndCredits decimal.Decimal     `db:"payments_and_credits"`
	Interest           decimal.Decimal     `db:"interest"`
	MinimumPayment     decimal.Decimal     `db:"minimum_payment"`
	TotalPayable       decimal.Decimal     `db:"total_payable"`
	BankName           string              `db:"bank_name"`
	CardType           string              `db:"card_type"`
	LastDigits         string              `db:"last_digits"`
	Utilization        decimal.NullDecimal `db:"utilization"`
	Fingerprint        string              `db:"fingerprint"`
	FingerprintDerived bool                `db:"fingerprint_derived"`
	SourceLabel        string              `db:"source_label"`
	CreatedAt          time.Time           `db:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at"`
}

// LineItem is the persisted row of one statement detail line.
type LineItem struct {
	LineItemID        string          `db:"line_item_id"`
	StatementID       string          `db:"statement_id"`
	Position          int             `db:"position"`
	TxnDate           *time.Time      `db:"txn_date"`
	Description       string          `db:"description"`
	Amount            decimal.Decimal `db:"amount"`
	Category          string          `db:"category"`
	BudgetClass       *string         `db:"budget_class"` // NULL unless a positive consumption
	Kind              string          `db:"kind"`
	RelatedLineItemID *string         `db:"related_line_item_id"`
}
