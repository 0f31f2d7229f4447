package emailparser

import "github.com/SscSPs/finance_ingest_app/internal/rules"

// Detector identifies the issuing bank of a notification.
type Detector struct {
	banks []rules.Bank
}

// NewDetector builds a detector over the rule set's bank list.
func NewDetector(set *rules.Set) *Detector {
	return &Detector{banks: set.Banks}
}

// Detect returns the id of the first bank, in table order, with a matching
// signature. ok is false when no bank matches.
func (d *Detector) Detect(text string) (string, bool) {
	for _, b := range d.banks {
		for _, sig := range b.Signatures {
			if sig.Regexp().MatchString(text) {
				return b.ID, true
			}
		}
	}
	return "", false
}
