package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind conveys the nature of a statement line; amounts are always positive.
type TransactionKind string

const (
	KindConsumption TransactionKind = "consumption"
	KindPayment     TransactionKind = "payment"
	KindInterest    TransactionKind = "interest"
	KindCharge      TransactionKind = "charge"
	KindOther       TransactionKind = "other"
)

// ParseTransactionKind accepts both the Spanish labels emitted by the
// statement analyzer and the English kind names. Anything else is KindOther.
func ParseTransactionKind(raw string) TransactionKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "consumo", "consumption":
		return KindConsumption
	case "pago", "payment":
		return KindPayment
	case "interes", "interés", "interest":
		return KindInterest
	case "cargo", "charge":
		return KindCharge
	default:
		return KindOther
	}
}

// IsChargeLike reports whether the kind may hold a derivative tax or fee.
func (k TransactionKind) IsChargeLike() bool {
	return k == KindCharge || k == KindOther
}

// LineItem is one detail row of a Statement.
type LineItem struct {
	LineItemID        string          `json:"lineItemID"`
	StatementID       string          `json:"statementID"`
	Position          int             `json:"position"`
	Date              *time.Time      `json:"date"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Category          string          `json:"category"`
	BudgetClass       *string         `json:"budgetClass"`
	Kind              TransactionKind `json:"kind"`
	RelatedLineItemID *string         `json:"relatedLineItemID"`
}

// QualifiesForBudgetClass reports whether a budget class may be set on the item.
func (li LineItem) QualifiesForBudgetClass() bool {
	return li.Kind == KindConsumption && li.Amount.IsPositive()
}
