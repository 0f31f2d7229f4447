package models

import "time"

// Alias is one row of the bank or card name registry.
type Alias struct {
	AliasID      string    `db:"alias_id"`
	Kind         string    `db:"kind"` // "bank" or "card"
	Name         string    `db:"name"`
	NameKey      string    `db:"name_key"` // lower(trim(name)), unique per kind
	Canonical    string    `db:"canonical"`
	Abbreviation string    `db:"abbreviation"`
	CreatedAt    time.Time `db:"created_at"`
}
