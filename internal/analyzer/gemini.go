// Package analyzer turns statement PDFs into structured extractions using
// PDF text extraction and a Gemini model.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	portssvc "github.com/SscSPs/finance_ingest_app/internal/core/ports/services"
	"github.com/SscSPs/finance_ingest_app/internal/dto"
	"github.com/SscSPs/finance_ingest_app/internal/middleware"
	"google.golang.org/genai"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

const (
	detailedMaxTokens = 8000
	summaryMaxTokens  = 4000
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer implements portssvc.StatementAnalyzer with the Gemini API.
type GeminiAnalyzer struct {
	models contentGenerator
	model  string
}

var _ portssvc.StatementAnalyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer creates a Gemini API client for the given key and model.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGeminiAnalyzer(client.Models, model), nil
}

func newGeminiAnalyzer(models contentGenerator, model string) *GeminiAnalyzer {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiAnalyzer{models: models, model: model}
}

// Analyze sends the statement text to the model and decodes its answer.
// Transport failures are returned as-is; there is no retry.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, text string, detailed bool) (*dto.StatementExtraction, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("model", a.model), slog.Bool("detailed", detailed))

	maxTokens := int32(summaryMaxTokens)
	if detailed {
		maxTokens = detailedMaxTokens
	}
	temperature := float32(0)
	resp, err := a.models.GenerateContent(ctx, a.model, genai.Text(BuildPrompt(text, detailed)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  maxTokens,
		Temperature:      &temperature,
	})
	if err != nil {
		logger.Error("Statement analysis request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("statement analysis request failed: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model %s", a.model)
	}
	extraction, err := DecodeExtraction(raw)
	if err != nil {
		logger.Warn("Unusable analyzer response", slog.String("error", err.Error()), slog.Int("response_length", len(raw)))
		return nil, err
	}
	return extraction, nil
}
