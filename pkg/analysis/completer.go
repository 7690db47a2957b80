package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

// Completer produces a raw model completion for a system and user
// prompt pair. Implementations wrap a hosted model API; tests supply
// fakes.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAICompleter calls the OpenAI chat completions API.
type OpenAICompleter struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// NewOpenAICompleter builds a completer for the given key and model.
// Model defaults to gpt-4o.
func NewOpenAICompleter(apiKey, model string) *OpenAICompleter {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAICompleter{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.openai.com/v1",
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("openai api key is not set")
	}
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   8192,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion api: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion api returned %d: %s", resp.StatusCode, truncateBody(data))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncateBody(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// ParseFaultsJSON extracts a fault list from model output. Markdown
// code fences are stripped, and truncated JSON is repaired by trying a
// small set of close-out suffixes. A single object is promoted to a
// one-element list. Unusable output yields an empty list, never an
// error: analysis degrades instead of failing.
func ParseFaultsJSON(text string) []report.Fault {
	text = stripMarkdownFences(text)

	if faults, ok := decodeFaults(text); ok {
		return faults
	}
	for _, suffix := range []string{`"}`, `"}]`, `"}}`, `"}]}`, `}`, `}]`, `]`} {
		if faults, ok := decodeFaults(text + suffix); ok {
			return faults
		}
	}
	return nil
}

// stripMarkdownFences drops ``` fence lines wrapping model output.
func stripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func decodeFaults(text string) ([]report.Fault, bool) {
	var list []report.Fault
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, true
	}
	var single report.Fault
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		return []report.Fault{single}, true
	}
	return nil, false
}
