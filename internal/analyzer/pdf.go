package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText returns the text of every page, each introduced by a
// "--- PÁGINA n ---" marker so the analyzer can tell pages apart.
func ExtractPDFText(file io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF reader crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(file, size)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	numPages := r.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pages = append(pages, pageText(r.Page(i)))
	}
	return joinPages(pages), nil
}

// pageText prefers row reconstruction and falls back to the plain text stream.
func pageText(page pdf.Page) string {
	if page.V.IsNull() {
		return ""
	}
	if rows, err := page.GetTextByRow(); err == nil && len(rows) > 0 {
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n")
		}
	}
	plain, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(plain)
}

func joinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		fmt.Fprintf(&b, "\n--- PÁGINA %d ---\n", i+1)
		b.WriteString(p)
	}
	return b.String()
}
