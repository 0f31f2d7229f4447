package attribution_test

import (
	"testing"
	"time"

	"github.com/SscSPs/finance_ingest_app/internal/attribution"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) attribution.Config {
	t.Helper()
	set, err := rules.Default()
	require.NoError(t, err)
	return set.AttributionConfig()
}

func day(d int) *time.Time {
	t := time.Date(2025, time.August, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func item(id string, pos int, date *time.Time, desc, amount, category string, kind domain.TransactionKind) domain.LineItem {
	return domain.LineItem{
		LineItemID:  id,
		Position:    pos,
		Date:        date,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Kind:        kind,
	}
}

func TestClassify(t *testing.T) {
	cfg := defaultConfig(t)

	tests := []struct {
		desc string
		want attribution.ChargeClass
	}{
		{"RET IVA NETFLIX", attribution.Withholding},
		{"IVA DIGITAL SPOTIFY", attribution.VAT},
		{"IVA SERV DIGITALES", attribution.VAT},
		{"TARIFA SERVICIO BASICO", attribution.Tariff},
		{"UBER EATS INT", attribution.NotDerivative},
		{"PRIVADA 123", attribution.NotDerivative},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Classify(tt.desc))
		})
	}
}

func TestAttribute_WithholdingWithoutVATLine(t *testing.T) {
	cfg := defaultConfig(t)
	items := []domain.LineItem{
		item("c1", 0, day(10), "UBER EATS INT", "10.00", "Alimentación", domain.KindConsumption),
		item("w1", 1, day(12), "RET IVA UBER", "0.15", "Otros", domain.KindCharge),
	}

	changes := attribution.Attribute(items, cfg)

	require.Len(t, changes, 1)
	assert.Equal(t, "w1", changes[0].LineItemID)
	assert.Equal(t, "Alimentación", changes[0].Category)
	assert.Equal(t, "c1", changes[0].RelatedLineItemID)
	assert.Equal(t, attribution.Withholding, changes[0].Class)
}

func TestAttribute_WithholdingThroughVATLine(t *testing.T) {
	cfg := defaultConfig(t)
	items := []domain.LineItem{
		item("c1", 0, day(3), "NETFLIX.COM", "20.00", "Entretenimiento", domain.KindConsumption),
		item("c2", 1, day(3), "SUPERMAXI", "5.00", "Alimentación", domain.KindConsumption),
		item("v1", 2, day(4), "IVA DIGITAL NETFLIX", "3.00", "Otros", domain.KindCharge),
		item("w1", 3, day(5), "RET IVA NETFLIX", "0.30", "Otros", domain.KindCharge),
	}

	changes := attribution.Attribute(items, cfg)

	require.Len(t, changes, 2)
	for _, c := range changes {
		assert.Equal(t, "c1", c.RelatedLineItemID)
		assert.Equal(t, "Entretenimiento", c.Category)
	}
}

func TestAttribute_VATSecondaryRate(t *testing.T) {
	cfg := defaultConfig(t)
	items := []domain.LineItem{
		item("c1", 0, day(3), "SPOTIFY", "10.00", "Entretenimiento", domain.KindConsumption),
		item("v1", 1, day(3), "IVA SERV DIGITAL", "1.00", "Otros", domain.KindOther),
	}

	changes := attribution.Attribute(items, cfg)

	require.Len(t, changes, 1)
	assert.Equal(t, "c1", changes[0].RelatedLineItemID)
}

func TestAttribute_TariffWindow(t *testing.T) {
	cfg := defaultConfig(t)
	water := item("c1", 0, day(10), "EMPRESA MUNICIPAL AGUA POTABLE", "25.00", "Vivienda", domain.KindConsumption)

	near := []domain.LineItem{water, item("t1", 1, day(11), "TARIFA PAGO SERVICIO", "0.45", "Otros", domain.KindCharge)}
	changes := attribution.Attribute(near, cfg)
	require.Len(t, changes, 1)
	assert.Equal(t, "Vivienda", changes[0].Category)

	far := []domain.LineItem{water, item("t1", 1, day(15), "TARIFA PAGO SERVICIO", "0.45", "Otros", domain.KindCharge)}
	assert.Empty(t, attribution.Attribute(far, cfg))
}

func TestAttribute_OutsideWindowOrUndated(t *testing.T) {
	cfg := defaultConfig(t)
	items := []domain.LineItem{
		item("c1", 0, day(1), "UBER EATS INT", "10.00", "Alimentación", domain.KindConsumption),
		item("w1", 1, day(20), "RET IVA UBER", "0.15", "Otros", domain.KindCharge),
		item("w2", 2, nil, "RET IVA UBER", "0.15", "Otros", domain.KindCharge),
	}

	assert.Empty(t, attribution.Attribute(items, cfg))
}

func TestAttribute_NearestCandidateWins(t *testing.T) {
	cfg := defaultConfig(t)
	items := []domain.LineItem{
		item("far", 0, day(4), "RESTAURANT A", "10.00", "Alimentación", domain.KindConsumption),
		item("near", 1, day(9), "CINE B", "10.00", "Entretenimiento", domain.KindConsumption),
		item("w1", 2, day(10), "RET IVA", "0.15", "Otros", domain.KindCharge),
	}

	changes := attribution.Attribute(items, cfg)

	require.Len(t, changes, 1)
	assert.Equal(t, "near", changes[0].RelatedLineItemID)
	assert.Equal(t, "Entretenimiento", changes[0].Category)
}

func TestAttribute_PaymentsAreNotCandidates(t *testing.T) {
	cfg := defaultConfig(t)
	items := []domain.LineItem{
		item("p1", 0, day(10), "PAGO RECIBIDO", "10.00", "Otros", domain.KindPayment),
		item("w1", 1, day(10), "RET IVA", "0.15", "Otros", domain.KindCharge),
	}

	assert.Empty(t, attribution.Attribute(items, cfg))
}

func TestAttribute_Idempotent(t *testing.T) {
	cfg := defaultConfig(t)
	items := []domain.LineItem{
		item("c1", 0, day(3), "NETFLIX.COM", "20.00", "Entretenimiento", domain.KindConsumption),
		item("v1", 1, day(4), "IVA DIGITAL NETFLIX", "3.00", "Otros", domain.KindCharge),
		item("w1", 2, day(5), "RET IVA NETFLIX", "0.30", "Otros", domain.KindCharge),
	}

	first := attribution.Attribute(items, cfg)
	require.NotEmpty(t, first)

	updated := attribution.Apply(items, first)
	assert.Empty(t, attribution.Attribute(updated, cfg))

	// The input slice is left untouched.
	assert.Equal(t, "Otros", items[1].Category)
	assert.Nil(t, items[1].RelatedLineItemID)
}
