package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"xenon-assistant/internal/models"
)

const (
	completionMaxTokens   = 1000
	completionTemperature = 0.7
	maxResponseBytes      = 4 << 20
)

type completionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
	Stream      bool                 `json:"stream"`
}

// CompletionProvider talks to an OpenAI-compatible chat-completions endpoint.
type CompletionProvider struct {
	name       string
	url        string
	model      string
	credential string
	client     *http.Client
}

func NewCompletionProvider(name, url, model, credential string, client *http.Client) *CompletionProvider {
	return &CompletionProvider{
		name:       name,
		url:        url,
		model:      model,
		credential: credential,
		client:     client,
	}
}

func (p *CompletionProvider) Name() string { return p.name }

// Complete issues exactly one POST. Transport and non-2xx failures come back
// as *ProviderError; a 2xx body without a completion is ErrUnexpectedFormat.
func (p *CompletionProvider) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode %s request: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", &ProviderError{Provider: p.name, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+p.credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: p.name, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &ProviderError{Provider: p.name, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{
			Provider: p.name,
			Message:  fmt.Sprintf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), upstreamMessage(body)),
		}
	}

	return parseCompletion(body)
}

// parseCompletion extracts choices[0].message.content from a completion body.
func parseCompletion(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrUnexpectedFormat
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if content.Type == gjson.String {
		return content.String(), nil
	}

	if msg := errorField(body); msg != "" {
		return "", errors.New(msg)
	}

	return "", ErrUnexpectedFormat
}

// errorField reads {"error":"..."} or {"error":{"message":"..."}}.
func errorField(body []byte) string {
	e := gjson.GetBytes(body, "error")
	switch {
	case !e.Exists():
		return ""
	case e.Type == gjson.String:
		return e.String()
	case e.IsObject():
		if m := e.Get("message"); m.Exists() {
			return m.String()
		}
		return e.Raw
	default:
		return e.Raw
	}
}

func upstreamMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := errorField(body); msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 300 {
		text = text[:300] + "..."
	}
	if text == "" {
		return "empty response body"
	}
	return text
}
