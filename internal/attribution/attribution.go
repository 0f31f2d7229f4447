// Package attribution relates derivative charges on a card statement (tax
// withholdings, digital service VAT, service tariffs) to the consumption that
// produced them, so that they are reported under the same category.
package attribution

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Config holds the tax-regime specific constants. Load it from the rule tables.
type Config struct {
	VATRate               decimal.Decimal // VAT applied to the consumption
	WithholdingRate       decimal.Decimal // Share of the VAT that is withheld
	DirectWithholdingRate decimal.Decimal // Withholding as a share of the consumption when no VAT line is found
	Tolerance             decimal.Decimal // Relative tolerance for amount comparisons
	ConsumptionWindowDays int
	TariffWindowDays      int
	WithholdingPatterns   []*regexp.Regexp
	VATPatterns           []*regexp.Regexp
	TariffPatterns        []*regexp.Regexp
	ServiceKeywords       []string
}

// ChargeClass is the derivative-charge family a description belongs to.
type ChargeClass string

const (
	NotDerivative ChargeClass = ""
	Withholding   ChargeClass = "withholding"
	VAT           ChargeClass = "vat"
	Tariff        ChargeClass = "tariff"
)

// Change is a category update for one charge line.
type Change struct {
	LineItemID        string
	Category          string
	RelatedLineItemID string
	Class             ChargeClass
}

// Classify checks withholding patterns first since withholding descriptions
// usually mention VAT as well.
func (c Config) Classify(description string) ChargeClass {
	switch {
	case matchAny(c.WithholdingPatterns, description):
		return Withholding
	case matchAny(c.VATPatterns, description):
		return VAT
	case matchAny(c.TariffPatterns, description):
		return Tariff
	default:
		return NotDerivative
	}
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Attribute returns the changes needed so that every recognized charge points
// at its originating consumption. Items without a date are never matched.
// Running it again over the updated items yields no changes.
func Attribute(items []domain.LineItem, cfg Config) []Change {
	var consumptions, charges []domain.LineItem
	for _, it := range items {
		if it.Date == nil {
			continue
		}
		switch {
		case it.Kind == domain.KindConsumption && it.Amount.IsPositive():
			consumptions = append(consumptions, it)
		case it.Kind.IsChargeLike():
			charges = append(charges, it)
		}
	}
	if len(consumptions) == 0 || len(charges) == 0 {
		return nil
	}
	sortByDate(charges)

	classes := make(map[string]ChargeClass, len(charges))
	for _, ch := range charges {
		classes[ch.LineItemID] = cfg.Classify(ch.Description)
	}

	var changes []Change
	for _, ch := range charges {
		class := classes[ch.LineItemID]
		var match *domain.LineItem
		switch class {
		case Withholding:
			match = cfg.matchWithholding(ch, charges, classes, consumptions)
		case VAT:
			match = cfg.matchVAT(ch, consumptions)
		case Tariff:
			match = cfg.matchTariff(ch, consumptions)
		default:
			continue
		}
		if match == nil {
			continue
		}
		if ch.Category == match.Category && ch.RelatedLineItemID != nil && *ch.RelatedLineItemID == match.LineItemID {
			continue
		}
		changes = append(changes, Change{
			LineItemID:        ch.LineItemID,
			Category:          match.Category,
			RelatedLineItemID: match.LineItemID,
			Class:             class,
		})
	}
	return changes
}

// Apply returns a copy of items with changes applied.
func Apply(items []domain.LineItem, changes []Change) []domain.LineItem {
	byID := make(map[string]Change, len(changes))
	for _, c := range changes {
		byID[c.LineItemID] = c
	}
	out := make([]domain.LineItem, len(items))
	for i, it := range items {
		if c, ok := byID[it.LineItemID]; ok {
			it.Category = c.Category
			related := c.RelatedLineItemID
			it.RelatedLineItemID = &related
		}
		out[i] = it
	}
	return out
}

func (c Config) matchWithholding(w domain.LineItem, charges []domain.LineItem, classes map[string]ChargeClass, consumptions []domain.LineItem) *domain.LineItem {
	impliedVAT := w.Amount.Div(c.WithholdingRate)

	var vat *domain.LineItem
	for _, cand := range byProximity(*w.Date, charges, c.ConsumptionWindowDays) {
		if cand.LineItemID == w.LineItemID || classes[cand.LineItemID] != VAT {
			continue
		}
		if c.within(cand.Amount, impliedVAT) {
			vat = &cand
			break
		}
	}

	var implied decimal.Decimal
	if vat != nil {
		implied = vat.Amount.Div(c.VATRate)
	} else {
		implied = w.Amount.Div(c.DirectWithholdingRate)
	}
	for _, cand := range byProximity(*w.Date, consumptions, c.ConsumptionWindowDays) {
		if c.within(cand.Amount, implied) {
			return &cand
		}
	}
	return nil
}

func (c Config) matchVAT(v domain.LineItem, consumptions []domain.LineItem) *domain.LineItem {
	for _, cand := range byProximity(*v.Date, consumptions, c.ConsumptionWindowDays) {
		if c.within(cand.Amount.Mul(c.VATRate), v.Amount) || c.within(cand.Amount.Mul(c.WithholdingRate), v.Amount) {
			return &cand
		}
	}
	return nil
}

func (c Config) matchTariff(t domain.LineItem, consumptions []domain.LineItem) *domain.LineItem {
	for _, cand := range byProximity(*t.Date, consumptions, c.TariffWindowDays) {
		text := strings.ToLower(cand.Category + " " + cand.Description)
		for _, kw := range c.ServiceKeywords {
			if strings.Contains(text, kw) {
				return &cand
			}
		}
	}
	return nil
}

// within reports |actual-expected| <= tolerance*expected.
func (c Config) within(actual, expected decimal.Decimal) bool {
	if !expected.IsPositive() {
		return false
	}
	return actual.Sub(expected).Abs().LessThanOrEqual(expected.Mul(c.Tolerance))
}

// byProximity returns the dated items within windowDays of ref, nearest first.
// Equal distances keep date order.
func byProximity(ref time.Time, items []domain.LineItem, windowDays int) []domain.LineItem {
	type cand struct {
		item domain.LineItem
		dist int
	}
	var cands []cand
	for _, it := range items {
		if it.Date == nil {
			continue
		}
		d := dayDistance(ref, *it.Date)
		if d <= windowDays {
			cands = append(cands, cand{item: it, dist: d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].item.Date.Before(*cands[j].item.Date)
	})
	out := make([]domain.LineItem, len(cands))
	for i, c := range cands {
		out[i] = c.item
	}
	return out
}

func dayDistance(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

func sortByDate(items []domain.LineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(*items[j].Date) {
			return items[i].Date.Before(*items[j].Date)
		}
		return items[i].Position < items[j].Position
	})
}
