package emailparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/finance_ingest_app/internal/categorizer"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
	"github.com/SscSPs/finance_ingest_app/internal/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Extractor pulls transaction fields out of notification text.
type Extractor struct {
	set         *rules.Set
	categorizer *categorizer.Categorizer
	now         func() time.Time
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithClock overrides the clock used when no date can be extracted. Times
// it returns are converted to UTC.
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) {
		e.now = now
	}
}

// NewExtractor creates an Extractor over the given rules.
func NewExtractor(set *rules.Set, cat *categorizer.Categorizer, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		set:         set,
		categorizer: cat,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract builds a transaction from text. bankID is the detected bank, or ""
// when detection failed. ok is false when the amount or the description is
// missing; every other field falls back to a default.
func (e *Extractor) Extract(text, bankID string) (domain.Transaction, bool) {
	layers := e.layers(bankID)

	amount, ok := e.amount(text, layers)
	if !ok {
		return domain.Transaction{}, false
	}
	description, ok := e.description(text, layers)
	if !ok {
		return domain.Transaction{}, false
	}

	ts, ok := e.date(text, layers)
	if !ok {
		ts = e.now().UTC()
	}
	card, ok := e.card(text, layers)
	if !ok {
		card = e.set.Defaults.Card
	}
	bankName, ok := e.bankName(text, layers)
	if !ok {
		bankName = e.set.Defaults.Bank
		if b, found := e.set.Bank(bankID); found {
			bankName = b.DisplayName
		}
	}

	category := e.categorizer.Categorize(text + " " + description)

	return domain.Transaction{
		Timestamp:   ts,
		Description: description,
		Amount:      amount,
		Category:    category,
		CardLabel:   card,
		BankName:    bankName,
		Owner:       e.set.Defaults.Owner,
	}, true
}

// layers returns the bank specific templates followed by the generic ones.
func (e *Extractor) layers(bankID string) []rules.FieldTemplates {
	if b, ok := e.set.Bank(bankID); ok {
		return []rules.FieldTemplates{b.Fields, e.set.GenericFields}
	}
	return []rules.FieldTemplates{e.set.GenericFields}
}

// firstMatch walks the templates selected by pick across all layers and
// returns the first result that parse accepts.
func firstMatch[T any](text string, layers []rules.FieldTemplates, pick func(rules.FieldTemplates) []rules.Template, parse func(rules.Template, []string) (T, bool)) (T, bool) {
	for _, layer := range layers {
		for _, tpl := range pick(layer) {
			m := tpl.Regexp().FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if v, ok := parse(tpl, m[1:]); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

func (e *Extractor) amount(text string, layers []rules.FieldTemplates) (decimal.Decimal, bool) {
	return firstMatch(text, layers,
		func(f rules.FieldTemplates) []rules.Template { return f.Amount },
		func(_ rules.Template, groups []string) (decimal.Decimal, bool) {
			if len(groups) == 0 {
				return decimal.Zero, false
			}
			d, err := utils.ParseAmount(groups[0])
			return d, err == nil
		})
}

func (e *Extractor) description(text string, layers []rules.FieldTemplates) (string, bool) {
	return firstMatch(text, layers,
		func(f rules.FieldTemplates) []rules.Template { return f.Description },
		func(_ rules.Template, groups []string) (string, bool) {
			if len(groups) == 0 {
				return "", false
			}
			desc := strings.TrimSpace(groups[0])
			return desc, desc != ""
		})
}

func (e *Extractor) date(text string, layers []rules.FieldTemplates) (time.Time, bool) {
	return firstMatch(text, layers,
		func(f rules.FieldTemplates) []rules.Template { return f.Date },
		func(tpl rules.Template, groups []string) (time.Time, bool) {
			t, err := parseDateGroups(groups, tpl.Order)
			return t, err == nil
		})
}

func (e *Extractor) card(text string, layers []rules.FieldTemplates) (string, bool) {
	return firstMatch(text, layers,
		func(f rules.FieldTemplates) []rules.Template { return f.Card },
		func(_ rules.Template, groups []string) (string, bool) {
			switch {
			case len(groups) >= 2 && groups[0] != "" && groups[1] != "":
				return fmt.Sprintf("%s terminada en %s", strings.ToUpper(groups[0]), groups[1]), true
			case len(groups) >= 1 && groups[0] != "":
				return strings.ToUpper(groups[0]), true
			}
			return "", false
		})
}

func (e *Extractor) bankName(text string, layers []rules.FieldTemplates) (string, bool) {
	return firstMatch(text, layers,
		func(f rules.FieldTemplates) []rules.Template { return f.Bank },
		func(_ rules.Template, groups []string) (string, bool) {
			if len(groups) == 0 || strings.TrimSpace(groups[0]) == "" {
				return "", false
			}
			name := strings.Join(strings.Fields(groups[0]), " ")
			// Casers keep state, so one is built per call.
			return cases.Title(language.Spanish).String(name), true
		})
}

// parseDateGroups reads three numeric groups in the given order as a UTC
// date. Two digit years are taken as 20xx.
func parseDateGroups(groups []string, order rules.DateOrder) (time.Time, error) {
	if len(groups) < 3 {
		return time.Time{}, fmt.Errorf("date template needs three groups, got %d", len(groups))
	}
	y, m, d := groups[2], groups[1], groups[0]
	if order == rules.YearMonthDay {
		y, d = groups[0], groups[2]
	}
	if len(y) == 2 {
		y = "20" + y
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year %q", y)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month %q", m)
	}
	day, err := strconv.Atoi(d)
	if err != nil || day < 1 {
		return time.Time{}, fmt.Errorf("invalid day %q", d)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("day %d out of range for %d-%02d", day, year, month)
	}
	return t, nil
}
