// Package categorizer maps free text to the spending taxonomy by keyword.
package categorizer

import (
	"strings"

	"github.com/SscSPs/finance_ingest_app/internal/rules"
)

// Categorizer is first-match: the first category in table order with any
// keyword contained in the text wins.
type Categorizer struct {
	categories         []rules.Category
	defaultCategory    string
	budgetClasses      map[string]string
	defaultBudgetClass string
}

// New builds a categorizer from a loaded rule set.
func New(set *rules.Set) *Categorizer {
	return &Categorizer{
		categories:         set.Categories,
		defaultCategory:    set.DefaultCategory,
		budgetClasses:      set.BudgetClasses,
		defaultBudgetClass: set.DefaultBudgetClass,
	}
}

// Categorize returns the category label for text.
func (c *Categorizer) Categorize(text string) string {
	lower := strings.ToLower(text)
	for _, cat := range c.categories {
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return cat.Name
			}
		}
	}
	return c.defaultCategory
}

// Default is the fallback category label.
func (c *Categorizer) Default() string {
	return c.defaultCategory
}

// BudgetClass derives the necessity/want label of a category.
func (c *Categorizer) BudgetClass(category string) string {
	if class, ok := c.budgetClasses[category]; ok {
		return class
	}
	return c.defaultBudgetClass
}
