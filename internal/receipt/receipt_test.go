package receipt

import (
	"context"
	"errors"
	"testing"

	"anjo/internal/core"
	"anjo/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	ext *Extraction
	err error
}

func (s stubExtractor) Extract(context.Context, []byte, string) (*Extraction, error) {
	return s.ext, s.err
}

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: `{"amount": 45.9, "date": "2025-02-03", "description": "Padaria", "category": "Alimentacao"}`, want: "Padaria"},
		{name: "fenced", raw: "```json\n{\"amount\": 10, \"date\": \"2025-02-03\", \"description\": \"Posto\", \"category\": \"Transporte\"}\n```", want: "Posto"},
		{name: "chatty", raw: "Aqui está: {\"amount\": 1, \"date\": \"2025-02-03\", \"description\": \"Farmácia\", \"category\": \"Saúde\"} espero ter ajudado", want: "Farmácia"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := ParseExtraction(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ext.Description)
		})
	}

	_, err := ParseExtraction("   ")
	assert.Error(t, err)
	_, err = ParseExtraction("no json here")
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	cats := core.BuiltinCategories()
	s := NewScanner(stubExtractor{ext: &Extraction{
		Amount:       "45.90",
		Date:         "2025-02-03",
		Description:  "Padaria Pão Quente",
		CategoryName: "alimentacao",
	}}, log.Discard())

	res := s.Scan(context.Background(), []byte{0xff, 0xd8}, "image/jpeg", cats)
	require.NotNil(t, res)
	assert.Equal(t, int64(4590), res.Amount.Cents)
	assert.Equal(t, core.NewDate(2025, 2, 3), res.Date)
	require.NotNil(t, res.Category)
	assert.Equal(t, "Alimentação", res.Category.Name)
}

func TestScanFailuresReturnNil(t *testing.T) {
	cats := core.BuiltinCategories()
	tests := []struct {
		name string
		ex   Extractor
	}{
		{name: "extractor error", ex: stubExtractor{err: errors.New("timeout")}},
		{name: "bad amount", ex: stubExtractor{ext: &Extraction{Amount: "0", Date: "2025-01-01"}}},
		{name: "bad date", ex: stubExtractor{ext: &Extraction{Amount: "3", Date: "ontem"}}},
		{name: "nil extraction", ex: stubExtractor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, NewScanner(tt.ex, log.Discard()).Scan(context.Background(), []byte{1}, "", cats))
		})
	}
	assert.Nil(t, NewScanner(stubExtractor{}, log.Discard()).Scan(context.Background(), nil, "", cats))
}

func TestScanWithoutCategoryMatch(t *testing.T) {
	s := NewScanner(stubExtractor{ext: &Extraction{Amount: "12", Date: "2025-01-01", CategoryName: "Pets"}}, log.Discard())
	res := s.Scan(context.Background(), []byte{1}, "image/png", core.BuiltinCategories())
	require.NotNil(t, res)
	assert.Nil(t, res.Category)
	assert.Equal(t, "Pets", res.CategoryName)
}

func TestMatchCategory(t *testing.T) {
	cats := core.BuiltinCategories()
	tests := []struct {
		name   string
		input  string
		wantID string
	}{
		{name: "exact with accents", input: "Saúde", wantID: "4"},
		{name: "accent and case insensitive", input: "EDUCACAO", wantID: "5"},
		{name: "contained", input: "Transporte público", wantID: "2"},
		{name: "containing", input: "compra", wantID: "7"},
		{name: "typo", input: "Asinaturas", wantID: "8"},
		{name: "no match", input: "Viagem"},
		{name: "empty", input: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchCategory(tt.input, cats)
			if tt.wantID == "" {
				assert.False(t, ok, "matched %q", got.Name)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("", ""))
	assert.Equal(t, 1.0, similarity("lazer", "lazer"))
	assert.InDelta(t, 0.8, similarity("lazer", "lazar"), 1e-9)
	assert.Equal(t, 3, levenshtein([]rune("kitten"), []rune("sitting")))
}
