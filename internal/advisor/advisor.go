// Package advisor produces the daily financial tip from a ledger digest.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"anjo/internal/log"

	"google.golang.org/genai"
)

// FallbackTip is returned whenever no tip could be generated.
const FallbackTip = "Não foi possível gerar uma dica personalizada no momento. Continue focado em suas metas!"

// TipGenerator asks a language model for a tip.
type TipGenerator interface {
	GenerateTip(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt renders the tip prompt for a financial summary and an
// optional display name.
func BuildPrompt(summary, name string) string {
	var b strings.Builder
	b.WriteString("Você é um assistente financeiro inteligente e motivador chamado \"Anjo Financeiro\".\n")
	if name = strings.TrimSpace(name); name != "" {
		fmt.Fprintf(&b, "O usuário se chama %s. Dirija-se a ele pelo nome.\n", name)
	}
	b.WriteString("Analise os seguintes dados financeiros de um usuário e forneça uma dica única, curta e acionável para hoje.\n\n")
	b.WriteString("Dados do usuário:\n")
	b.WriteString(summary)
	b.WriteString("\n\nRegras:\n" +
		"1. A resposta deve ter no máximo 3 frases.\n" +
		"2. Seja específico sobre onde economizar ou como atingir uma meta.\n" +
		"3. Use um tom encorajador.\n" +
		"4. Responda em Português do Brasil.\n")
	return b.String()
}

// Advisor turns summaries into tips and never fails.
type Advisor struct {
	gen    TipGenerator
	logger *log.Logger
}

// New returns an Advisor. A nil generator always yields FallbackTip.
func New(gen TipGenerator, logger *log.Logger) *Advisor {
	return &Advisor{gen: gen, logger: logger.WithComponent(log.ComponentAdvisor)}
}

func (a *Advisor) Tip(ctx context.Context, summary, name string) string {
	if a == nil || a.gen == nil {
		return FallbackTip
	}
	tip, err := a.gen.GenerateTip(ctx, BuildPrompt(summary, name))
	if err != nil {
		a.logger.WarnContext(ctx, "Tip generation failed",
			log.FieldOperation, log.OpTip,
			log.FieldError, err)
		return FallbackTip
	}
	tip = strings.TrimSpace(tip)
	if tip == "" {
		return FallbackTip
	}
	return tip
}

// Gemini generates tips with a Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(client *genai.Client, model string) *Gemini {
	return &Gemini{client: client, model: model}
}

func (g *Gemini) GenerateTip(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate tip: %w", err)
	}
	return resp.Text(), nil
}

// NewClient creates a Gemini API client shared by the AI services.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}
