package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a card movement parsed from a notification email.
type Transaction struct {
	TransactionID string          `db:"transaction_id"`
	UserID        string          `db:"user_id"`
	TxnTimestamp  time.Time       `db:"txn_timestamp"`
	Description   string          `db:"description"`
	Amount        decimal.Decimal `db:"amount"`
	Category      string          `db:"category"`
	CardLabel     string          `db:"card_label"`
	BankName      string          `db:"bank_name"`
	Owner         string          `db:"owner"`
	CreatedAt     time.Time       `db:"created_at"`
}
