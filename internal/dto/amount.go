package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SscSPs/finance_ingest_app/internal/utils"
	"github.com/shopspring/decimal"
)

// Amount is a lenient money value decoded from analyzer output. Missing,
// null or empty values decode as zero, strings may use Latin separators and
// the result is always non-negative.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d as an Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Abs()}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		a.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "-"))
		s = strings.TrimPrefix(s, "USD")
		if s == "" {
			a.Decimal = decimal.Zero
			return nil
		}
		d, err := utils.ParseAmount(s)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		a.Decimal = d.Abs()
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("amount: invalid number %s: %w", raw, err)
	}
	a.Decimal = d.Abs()
	return nil
}

// FlexString accepts either a JSON string or a JSON number. The analyzer
// sometimes emits card digits as a number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", raw)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
