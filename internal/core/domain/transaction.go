package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single purchase parsed out of a bank notification email.
// It is never updated once stored.
type Transaction struct {
	TransactionID string          `json:"transactionID"`
	UserID        string          `json:"userID"`
	Timestamp     time.Time       `json:"timestamp"`   // When the purchase happened, or ingestion time if unknown
	Description   string          `json:"description"` // Merchant / establishment text
	Amount        decimal.Decimal `json:"amount"`      // Signed amount
	Category      string          `json:"category"`
	CardLabel     string          `json:"cardLabel"` // e.g. "MASTERCARD terminada en 6925"
	BankName      string          `json:"bankName"`
	Owner         string          `json:"owner"`
	CreatedAt     time.Time       `json:"createdAt"`
}
