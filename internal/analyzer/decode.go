package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SscSPs/finance_ingest_app/internal/dto"
)

const (
	defaultLineCategory = "Otros"
	defaultLineKind     = "otro"
)

// cleanModelJSON strips Markdown fences and any chatter around the JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// DecodeExtraction decodes an analyzer answer leniently: missing numbers are
// zero, amounts are positive, and lines without category or kind get
// "Otros" and "otro".
func DecodeExtraction(raw string) (*dto.StatementExtraction, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty analyzer response")
	}

	var ext dto.StatementExtraction
	if err := json.Unmarshal([]byte(clean), &ext); err != nil {
		return nil, fmt.Errorf("failed to decode analyzer response: %w", err)
	}
	for i := range ext.Movements {
		m := &ext.Movements[i]
		if strings.TrimSpace(m.Category) == "" {
			m.Category = defaultLineCategory
		}
		if strings.TrimSpace(m.Kind) == "" {
			m.Kind = defaultLineKind
		}
	}
	if ext.Movements == nil {
		ext.Movements = []dto.ExtractedMovement{}
	}
	return &ext, nil
}
