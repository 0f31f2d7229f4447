// Package emailparser turns bank notification emails into transactions using
// the detector and template tables from the rules package.
package emailparser

import (
	"strings"

	"github.com/SscSPs/finance_ingest_app/internal/categorizer"
	"github.com/SscSPs/finance_ingest_app/internal/core/domain"
	"github.com/SscSPs/finance_ingest_app/internal/rules"
)

// Email is the raw inbound message. HTML is preferred over Plain when both are set.
type Email struct {
	Subject string
	HTML    string
	Plain   string
}

// Parsed is a successful parse result.
type Parsed struct {
	Transaction domain.Transaction
	BankID      string // Empty when no bank signature matched
}

// Parser runs detection and extraction over an email.
type Parser struct {
	detector  *Detector
	extractor *Extractor
}

// New creates a Parser.
func New(set *rules.Set, cat *categorizer.Categorizer, opts ...ExtractorOption) *Parser {
	return &Parser{
		detector:  NewDetector(set),
		extractor: NewExtractor(set, cat, opts...),
	}
}

// Text returns the text the templates run against: subject plus stripped body.
func (e Email) Text() string {
	body := e.Plain
	if strings.TrimSpace(e.HTML) != "" {
		body = HTMLToText(e.HTML)
	}
	return strings.TrimSpace(e.Subject + "\n" + body)
}

// Parse returns ok=false when the email has no amount or no description.
func (p *Parser) Parse(email Email) (Parsed, bool) {
	text := email.Text()
	bankID, _ := p.detector.Detect(text)
	txn, ok := p.extractor.Extract(text, bankID)
	if !ok {
		return Parsed{BankID: bankID}, false
	}
	return Parsed{Transaction: txn, BankID: bankID}, true
}
