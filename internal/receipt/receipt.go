// Package receipt reads transactions out of receipt photos and maps the
// category the model guessed onto the user's categories.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"anjo/internal/core"
	"anjo/internal/log"

	"google.golang.org/genai"
)

// Extraction is what the model reads off a receipt.
type Extraction struct {
	Amount       json.Number `json:"amount"`
	Date         string      `json:"date"`
	Description  string      `json:"description"`
	CategoryName string      `json:"category"`
}

type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*Extraction, error)
}

// Result is a prefilled transaction draft. Category is nil when no user
// category is close enough to CategoryName.
type Result struct {
	Amount       core.Money     `json:"amount"`
	Date         core.Date      `json:"date"`
	Description  string         `json:"description"`
	CategoryName string         `json:"categoryName"`
	Category     *core.Category `json:"category"`
}

// Scanner never fails: every problem yields a nil Result.
type Scanner struct {
	ex     Extractor
	logger *log.Logger
}

func NewScanner(ex Extractor, logger *log.Logger) *Scanner {
	return &Scanner{ex: ex, logger: logger.WithComponent(log.ComponentReceipt)}
}

// Scan extracts a draft from image and matches its category against
// categories.
func (s *Scanner) Scan(ctx context.Context, image []byte, mimeType string, categories []core.Category) *Result {
	if s == nil || s.ex == nil || len(image) == 0 {
		return nil
	}
	ext, err := s.ex.Extract(ctx, image, mimeType)
	if err != nil {
		s.logger.WarnContext(ctx, "Receipt extraction failed",
			log.FieldOperation, log.OpScan,
			log.FieldError, err)
		return nil
	}
	res, err := toResult(ext)
	if err != nil {
		s.logger.WarnContext(ctx, "Receipt extraction unusable",
			log.FieldOperation, log.OpScan,
			log.FieldError, err)
		return nil
	}
	if c, ok := MatchCategory(ext.CategoryName, categories); ok {
		res.Category = &c
	}
	return res
}

func toResult(ext *Extraction) (*Result, error) {
	if ext == nil {
		return nil, errors.New("empty extraction")
	}
	raw := strings.TrimPrefix(strings.TrimSpace(ext.Amount.String()), "-")
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", ext.Amount, err)
	}
	date, err := core.ParseDate(strings.TrimSpace(ext.Date))
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", ext.Date, err)
	}
	desc := strings.TrimSpace(ext.Description)
	if r := []rune(desc); len(r) > core.MaxDescriptionLength {
		desc = string(r[:core.MaxDescriptionLength])
	}
	return &Result{
		Amount:       core.Cents(cents),
		Date:         date,
		Description:  desc,
		CategoryName: strings.TrimSpace(ext.CategoryName),
	}, nil
}

const extractPrompt = "You read Brazilian purchase receipts.\n\n" +
	"Return ONLY a raw JSON object with these fields:\n" +
	"- \"amount\": number, the total paid, dot as decimal separator\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, the merchant name, at most 100 characters\n" +
	"- \"category\": string, a short category name in Portuguese (e.g. \"Alimentação\", \"Transporte\")\n\n" +
	"Do NOT wrap the response in code fences.\n"

// Gemini extracts receipts with a multimodal Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(client *genai.Client, model string) *Gemini {
	return &Gemini{client: client, model: model}
}

func (g *Gemini) Extract(ctx context.Context, image []byte, mimeType string) (*Extraction, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractPrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return ParseExtraction(resp.Text())
}

// ParseExtraction decodes a model answer, tolerating Markdown fences and
// text around the JSON object.
func ParseExtraction(raw string) (*Extraction, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, errors.New("empty response from model")
	}
	var ext Extraction
	if err := json.Unmarshal([]byte(clean), &ext); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return &ext, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return ""
		}
		s = s[idx+1:]
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
	return strings.TrimSpace(s)
}
