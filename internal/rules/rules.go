// Package rules loads the versioned keyword and pattern tables that drive
// bank detection, field extraction, categorization, alias normalization and
// charge attribution.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/SscSPs/finance_ingest_app/internal/attribution"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultRules []byte

// DateOrder tells the extractor how to read the three groups of a date template.
type DateOrder string

const (
	DayMonthYear DateOrder = "dmy"
	YearMonthDay DateOrder = "ymd"
)

// Template is one regex template. In YAML it is either a bare pattern string
// or a mapping with pattern and order keys.
type Template struct {
	Pattern string    `yaml:"pattern"`
	Order   DateOrder `yaml:"order,omitempty"`

	re *regexp.Regexp
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (t *Template) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Pattern = value.Value
		return nil
	}
	type plain Template
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*t = Template(p)
	return nil
}

// Regexp returns the compiled, case-insensitive expression.
func (t Template) Regexp() *regexp.Regexp {
	return t.re
}

func (t *Template) compile() error {
	re, err := regexp.Compile("(?i)" + t.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", t.Pattern, err)
	}
	t.re = re
	if t.Order == "" {
		t.Order = DayMonthYear
	}
	if t.Order != DayMonthYear && t.Order != YearMonthDay {
		return fmt.Errorf("pattern %q: unknown date order %q", t.Pattern, t.Order)
	}
	return nil
}

// FieldTemplates holds the ordered templates for each extracted field.
type FieldTemplates struct {
	Amount      []Template `yaml:"amount"`
	Date        []Template `yaml:"date"`
	Description []Template `yaml:"description"`
	Card        []Template `yaml:"card"`
	Bank        []Template `yaml:"bank"`
}

func (f *FieldTemplates) compile() error {
	for _, group := range [][]Template{f.Amount, f.Date, f.Description, f.Card, f.Bank} {
		for i := range group {
			if err := group[i].compile(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Bank is a detectable issuer with its signatures and field templates.
type Bank struct {
	ID          string         `yaml:"id"`
	DisplayName string         `yaml:"display_name"`
	Signatures  []Template     `yaml:"signatures"`
	Fields      FieldTemplates `yaml:"fields"`
}

// Category is a taxonomy label with its matching keywords.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// KeywordAlias maps a curated keyword to a canonical registry name.
type KeywordAlias struct {
	Keyword   string `yaml:"keyword"`
	Canonical string `yaml:"canonical"`
}

// AliasRules drive bank and card name normalization.
type AliasRules struct {
	LegalSuffixes []string       `yaml:"legal_suffixes"`
	Prefixes      []string       `yaml:"prefixes"`
	BankKeywords  []KeywordAlias `yaml:"bank_keywords"`
	CardKeywords  []KeywordAlias `yaml:"card_keywords"`
}

// Defaults are the labels used when a field could not be extracted.
type Defaults struct {
	Card  string `yaml:"card"`
	Bank  string `yaml:"bank"`
	Owner string `yaml:"owner"`
}

// ChargeAttributionRules is the raw YAML form of attribution.Config.
type ChargeAttributionRules struct {
	VATRate               string   `yaml:"vat_rate"`
	WithholdingRate       string   `yaml:"withholding_rate"`
	DirectWithholdingRate string   `yaml:"direct_withholding_rate"`
	Tolerance             string   `yaml:"tolerance"`
	ConsumptionWindowDays int      `yaml:"consumption_window_days"`
	TariffWindowDays      int      `yaml:"tariff_window_days"`
	WithholdingPatterns   []string `yaml:"withholding_patterns"`
	VATPatterns           []string `yaml:"vat_patterns"`
	TariffPatterns        []string `yaml:"tariff_patterns"`
	ServiceKeywords       []string `yaml:"service_keywords"`
}

// Set is a fully loaded and compiled rule table.
type Set struct {
	Version            string                 `yaml:"version"`
	Defaults           Defaults               `yaml:"defaults"`
	Banks              []Bank                 `yaml:"banks"`
	GenericFields      FieldTemplates         `yaml:"generic_fields"`
	DefaultCategory    string                 `yaml:"default_category"`
	Categories         []Category             `yaml:"categories"`
	BudgetClasses      map[string]string      `yaml:"budget_classes"`
	DefaultBudgetClass string                 `yaml:"default_budget_class"`
	Aliases            AliasRules             `yaml:"aliases"`
	ChargeAttribution  ChargeAttributionRules `yaml:"charge_attribution"`

	attribution attribution.Config
}

// Default returns the embedded rule set.
func Default() (*Set, error) {
	return Parse(defaultRules)
}

// Load reads rules from path, or the embedded defaults when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and compiles a YAML rule document.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, fmt.Errorf("rules version %q: %w", s.Version, err)
	}
	return &s, nil
}

func (s *Set) compile() error {
	if s.Version == "" {
		return fmt.Errorf("missing version")
	}
	if s.DefaultCategory == "" {
		s.DefaultCategory = "Otros"
	}
	seen := make(map[string]bool, len(s.Banks))
	for i := range s.Banks {
		b := &s.Banks[i]
		if b.ID == "" || seen[b.ID] {
			return fmt.Errorf("bank %d: empty or repeated id %q", i, b.ID)
		}
		seen[b.ID] = true
		for j := range b.Signatures {
			if err := b.Signatures[j].compile(); err != nil {
				return fmt.Errorf("bank %s: %w", b.ID, err)
			}
		}
		if err := b.Fields.compile(); err != nil {
			return fmt.Errorf("bank %s: %w", b.ID, err)
		}
	}
	if err := s.GenericFields.compile(); err != nil {
		return fmt.Errorf("generic fields: %w", err)
	}
	for i := range s.Categories {
		for j, kw := range s.Categories[i].Keywords {
			s.Categories[i].Keywords[j] = strings.ToLower(kw)
		}
	}

	cfg, err := s.ChargeAttribution.toConfig()
	if err != nil {
		return fmt.Errorf("charge attribution: %w", err)
	}
	s.attribution = cfg
	return nil
}

// Bank returns the bank with the given id.
func (s *Set) Bank(id string) (Bank, bool) {
	for _, b := range s.Banks {
		if b.ID == id {
			return b, true
		}
	}
	return Bank{}, false
}

// IsCategory reports whether label is part of the taxonomy, default included.
func (s *Set) IsCategory(label string) bool {
	if label == s.DefaultCategory {
		return true
	}
	for _, c := range s.Categories {
		if c.Name == label {
			return true
		}
	}
	return false
}

// AttributionConfig returns the compiled charge attribution constants.
func (s *Set) AttributionConfig() attribution.Config {
	return s.attribution
}

func (r ChargeAttributionRules) toConfig() (attribution.Config, error) {
	var cfg attribution.Config
	var err error
	rates := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{r.VATRate, &cfg.VATRate},
		{r.WithholdingRate, &cfg.WithholdingRate},
		{r.DirectWithholdingRate, &cfg.DirectWithholdingRate},
		{r.Tolerance, &cfg.Tolerance},
	}
	for _, rate := range rates {
		if *rate.dst, err = decimal.NewFromString(rate.raw); err != nil {
			return cfg, fmt.Errorf("invalid rate %q: %w", rate.raw, err)
		}
		if !rate.dst.IsPositive() {
			return cfg, fmt.Errorf("rate %q must be positive", rate.raw)
		}
	}
	if r.ConsumptionWindowDays <= 0 {
		return cfg, fmt.Errorf("consumption_window_days must be positive, got %d", r.ConsumptionWindowDays)
	}
	if r.TariffWindowDays <= 0 {
		return cfg, fmt.Errorf("tariff_window_days must be positive, got %d", r.TariffWindowDays)
	}
	cfg.ConsumptionWindowDays = r.ConsumptionWindowDays
	cfg.TariffWindowDays = r.TariffWindowDays

	if cfg.WithholdingPatterns, err = compileAll(r.WithholdingPatterns); err != nil {
		return cfg, err
	}
	if cfg.VATPatterns, err = compileAll(r.VATPatterns); err != nil {
		return cfg, err
	}
	if cfg.TariffPatterns, err = compileAll(r.TariffPatterns); err != nil {
		return cfg, err
	}
	for _, kw := range r.ServiceKeywords {
		cfg.ServiceKeywords = append(cfg.ServiceKeywords, strings.ToLower(kw))
	}
	return cfg, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
