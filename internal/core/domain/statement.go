package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FingerprintDateLayout is the cut-off date layout used inside fingerprints.
const FingerprintDateLayout = "02012006"

// Statement is one credit-card billing cycle for one user.
type Statement struct {
	StatementID        string           `json:"statementID"`
	UserID             string           `json:"userID"`
	CutoffDate         *time.Time       `json:"cutoffDate"`
	PeriodStartDate    *time.Time       `json:"periodStartDate"`
	DueDate            *time.Time       `json:"dueDate"`
	CreditLimit        decimal.Decimal  `json:"creditLimit"`
	AvailableCredit    decimal.Decimal  `json:"availableCredit"`
	UsedCredit         decimal.Decimal  `json:"usedCredit"`
	PriorBalance       decimal.Decimal  `json:"priorBalance"`
	PeriodConsumptions decimal.Decimal  `json:"periodConsumptions"`
	OtherCharges       decimal.Decimal  `json:"otherCharges"`
	TotalCharges       decimal.Decimal  `json:"totalCharges"`
	PaymentsAndCredits decimal.Decimal  `json:"paymentsAndCredits"`
	Interest           decimal.Decimal  `json:"interest"`
	MinimumPayment     decimal.Decimal  `json:"minimumPayment"`
	TotalPayable       decimal.Decimal  `json:"totalPayable"`
	BankName           string           `json:"bankName"`
	CardType           string           `json:"cardType"`
	LastDigits         string           `json:"lastDigits"`
	Utilization        *decimal.Decimal `json:"utilization"` // Percentage, nil when it cannot be computed
	Fingerprint        string           `json:"fingerprint"`
	FingerprintDerived bool             `json:"fingerprintDerived"` // False when Fingerprint is only the source label
	SourceLabel        string           `json:"sourceLabel"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// StatementFingerprint builds the duplicate-detection key from the cut-off
// date and the card's last digits. ok is false when either input is missing.
func StatementFingerprint(cutoff *time.Time, lastDigits string) (string, bool) {
	if cutoff == nil || lastDigits == "" {
		return "", false
	}
	return cutoff.Format(FingerprintDateLayout) + "-" + lastDigits, true
}

// UtilizationPercent returns used/authorized*100 rounded to two places.
func UtilizationPercent(used, authorized decimal.Decimal) (*decimal.Decimal, bool) {
	if !authorized.IsPositive() {
		return nil, false
	}
	u := used.Div(authorized).Mul(decimal.NewFromInt(100)).Round(2)
	return &u, true
}
