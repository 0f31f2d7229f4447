package analyzer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
	answer string
	err    error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.answer}}},
		}},
	}, nil
}

func TestCleanModelJSON(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\": 1}\n```":              `{"a": 1}`,
		"Aquí está el JSON: {\"a\": 1} ¡listo!": `{"a": 1}`,
		`{"a": {"b": 2}}`:                       `{"a": {"b": 2}}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanModelJSON(in))
	}
}

func TestDecodeExtraction(t *testing.T) {
	raw := "```json\n" + `{
		"fecha_corte": "15/09/2025",
		"cupo_autorizado": 3000,
		"nombre_banco": "Banco Pichincha",
		"ultimos_digitos": 825,
		"movimientos_detallados": [
			{"fecha": "02/09/2025", "descripcion": "UBER EATS", "monto": -12.40},
			{"fecha": "03/09/2025", "descripcion": "IVA SERV DIGITAL", "monto": 1.50, "categoria": "Servicios", "tipo_transaccion": "cargo"}
		]
	}` + "\n```"

	ext, err := DecodeExtraction(raw)
	require.NoError(t, err)
	assert.Equal(t, "15/09/2025", ext.CutoffDate)
	assert.Equal(t, "825", ext.LastDigits.String())
	assert.True(t, ext.TotalPayable.IsZero())
	require.Len(t, ext.Movements, 2)
	assert.Equal(t, "Otros", ext.Movements[0].Category)
	assert.Equal(t, "otro", ext.Movements[0].Kind)
	assert.True(t, decimal.RequireFromString("12.40").Equal(ext.Movements[0].Amount.Decimal))
	assert.Equal(t, "cargo", ext.Movements[1].Kind)
}

func TestDecodeExtraction_Errors(t *testing.T) {
	_, err := DecodeExtraction("")
	assert.Error(t, err)

	_, err = DecodeExtraction("no json here")
	assert.Error(t, err)

	ext, err := DecodeExtraction(`{"fecha_corte": "01/01/2025"}`)
	require.NoError(t, err)
	assert.NotNil(t, ext.Movements)
	assert.Empty(t, ext.Movements)
}

func TestBuildPrompt(t *testing.T) {
	long := strings.Repeat("a", summaryTextLimit+100)

	summary := BuildPrompt(long, false)
	assert.NotContains(t, summary, "movimientos_detallados")
	assert.Contains(t, summary, "minimo_a_pagar")
	assert.NotContains(t, summary, strings.Repeat("a", summaryTextLimit+1))

	detailed := BuildPrompt(long, true)
	assert.Contains(t, detailed, "movimientos_detallados")
	assert.Contains(t, detailed, long)
}

func TestGeminiAnalyzer_Analyze(t *testing.T) {
	gen := &fakeGenerator{answer: `{"fecha_corte": "15/09/2025", "ultimos_digitos": "6925", "movimientos_detallados": []}`}
	a := newGeminiAnalyzer(gen, "")

	ext, err := a.Analyze(context.Background(), "--- PÁGINA 1 ---\nEstado de cuenta", true)
	require.NoError(t, err)
	assert.Equal(t, "6925", ext.LastDigits.String())
	assert.Equal(t, DefaultModelName, gen.model)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.Equal(t, int32(detailedMaxTokens), gen.config.MaxOutputTokens)
	assert.Contains(t, gen.prompt, "Estado de cuenta")
}

func TestGeminiAnalyzer_Failures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	_, err := newGeminiAnalyzer(gen, "gemini-test").Analyze(context.Background(), "x", false)
	assert.ErrorContains(t, err, "quota exceeded")

	gen = &fakeGenerator{answer: ""}
	_, err = newGeminiAnalyzer(gen, "gemini-test").Analyze(context.Background(), "x", false)
	assert.Error(t, err)

	gen = &fakeGenerator{answer: "lo siento, no puedo"}
	_, err = newGeminiAnalyzer(gen, "gemini-test").Analyze(context.Background(), "x", false)
	assert.Error(t, err)
	assert.Equal(t, int32(summaryMaxTokens), gen.config.MaxOutputTokens)
}

func TestNewGeminiAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewGeminiAnalyzer(context.Background(), "", "")
	assert.Error(t, err)
}

func TestExtractPDFText_Invalid(t *testing.T) {
	data := []byte("this is not a pdf")
	_, err := ExtractPDFText(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestJoinPages(t *testing.T) {
	got := joinPages([]string{"uno", "dos"})
	assert.Equal(t, "\n--- PÁGINA 1 ---\nuno\n--- PÁGINA 2 ---\ndos", got)
}
