package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/adelsaramii/verdict/internal/domain"
)

// GeminiExtractor classifies complaints through the Gemini API.
type GeminiExtractor struct {
	APIKey string
	Model  string
}

// NewGeminiExtractor creates an extractor for the given model. An empty
// model selects gemini-1.5-flash.
func NewGeminiExtractor(apiKey, model string) *GeminiExtractor {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiExtractor{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *GeminiExtractor) Name() string { return "gemini" }

func (e *GeminiExtractor) Extract(ctx context.Context, text string) (domain.TextSignals, error) {
	if e.APIKey == "" {
		return domain.TextSignals{}, fmt.Errorf("GEMINI_API_KEY not set")
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return domain.TextSignals{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt(text)))
	if err != nil {
		return domain.TextSignals{}, err
	}

	txt := firstText(resp)
	if txt == "" {
		return domain.TextSignals{}, fmt.Errorf("gemini extract: empty response")
	}

	signals, err := parseSignals(txt)
	if err != nil {
		return domain.TextSignals{}, fmt.Errorf("gemini extract: %w", err)
	}
	return signals, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
