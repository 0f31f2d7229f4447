package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SscSPs/finance_ingest_app/internal/analyzer"
	"github.com/SscSPs/finance_ingest_app/internal/apperrors"
	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
)

type analysisService struct {
	BaseService
	analyzer portssvc.StatementAnalyzer
}

// NewAnalysisService creates the PDF analysis service. A nil analyzer makes
// every call fail with apperrors.ErrAnalyzerUnavailable.
func NewAnalysisService(a portssvc.StatementAnalyzer) portssvc.StatementAnalysisSvc {
	return &analysisService{analyzer: a}
}

var _ portssvc.StatementAnalysisSvc = (*analysisService)(nil)

// AnalyzePDF implements portssvc.StatementAnalysisSvc.
func (s *analysisService) AnalyzePDF(ctx context.Context, file io.ReaderAt, size int64, detailed bool) (*dto.StatementExtraction, error) {
	if s.analyzer == nil {
		return nil, apperrors.ErrAnalyzerUnavailable
	}

	text, err := analyzer.ExtractPDFText(file, size)
	if err != nil {
		s.LogWarn(ctx, "Failed to read statement PDF", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: statement PDF has no extractable text", apperrors.ErrValidation)
	}

	extraction, err := s.analyzer.Analyze(ctx, text, detailed)
	if err != nil {
		s.LogError(ctx, err, "Statement analysis failed", slog.Bool("detailed", detailed))
		return nil, err
	}
	s.LogInfo(ctx, "Statement analyzed", slog.Int("movements", len(extraction.Movements)), slog.Bool("detailed", detailed))
	return extraction, nil
}
