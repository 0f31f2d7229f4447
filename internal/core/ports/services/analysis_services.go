package services

import (
	"context"
	"io"

	"github.com/SscSPs/finance_ingest_app/internal/dto"
)

// StatementAnalyzer turns statement text into a structured extraction.
// Implemented by the LLM adapter in internal/analyzer.
type StatementAnalyzer interface {
	Analyze(ctx context.Context, text string, detailed bool) (*dto.StatementExtraction, error)
}

// StatementAnalysisSvc extracts text from an uploaded PDF and analyzes it
type StatementAnalysisSvc interface {
	AnalyzePDF(ctx context.Context, file io.ReaderAt, size int64, detailed bool) (*dto.StatementExtraction, error)
}
