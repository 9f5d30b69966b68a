package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adelsaramii/verdict/internal/domain"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIExtractor classifies complaints through the chat completions API.
type OpenAIExtractor struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

// NewOpenAIExtractor creates an extractor for the given model. An empty
// model selects gpt-3.5-turbo; an empty baseURL selects the public API.
func NewOpenAIExtractor(apiKey, model, baseURL string) *OpenAIExtractor {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIExtractor{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *OpenAIExtractor) Name() string { return "openai" }

func (e *OpenAIExtractor) Extract(ctx context.Context, text string) (domain.TextSignals, error) {
	if e.APIKey == "" {
		return domain.TextSignals{}, fmt.Errorf("OPENAI_API_KEY not set")
	}

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{"role": "system", "content": systemPrompt},
			map[string]any{"role": "user", "content": userPrompt(text)},
		},
		"temperature":     0,
		"max_tokens":      300,
		"response_format": map[string]any{"type": "json_object"},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", e.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return domain.TextSignals{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return domain.TextSignals{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return domain.TextSignals{}, fmt.Errorf("openai extract %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.TextSignals{}, err
	}
	if len(raw.Choices) == 0 {
		return domain.TextSignals{}, fmt.Errorf("openai extract: empty response")
	}

	signals, err := parseSignals(raw.Choices[0].Message.Content)
	if err != nil {
		return domain.TextSignals{}, fmt.Errorf("openai extract: %w", err)
	}
	return signals, nil
}
