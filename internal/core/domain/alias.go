package domain

import (
	"strings"
	"time"
)

// AliasKind separates the bank registry from the card type registry.
type AliasKind string

const (
	AliasBank AliasKind = "bank"
	AliasCard AliasKind = "card"
)

// Alias maps a raw extracted name to its canonical display form.
type Alias struct {
	AliasID      string    `json:"aliasID"`
	Kind         AliasKind `json:"kind"`
	Name         string    `json:"name"`
	Canonical    string    `json:"canonical"`
	Abbreviation string    `json:"abbreviation"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Display returns the abbreviation when set, else the canonical name.
func (a Alias) Display() string {
	if a.Abbreviation != "" {
		return a.Abbreviation
	}
	return a.Canonical
}

// AliasKey is the unique lookup key for a raw name.
func AliasKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
