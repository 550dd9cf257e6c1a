package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"xenon-assistant/internal/models"
)

const fallbackPrefix = "🦙"

type probeRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters probeParameters `json:"parameters"`
}

type probeParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

// FallbackGenerator answers when the free-tier provider is unreachable.
// It tries the configured free inference endpoints in order and finally
// builds a keyword-templated reply locally.
type FallbackGenerator struct {
	probeURLs []string
	client    *http.Client
}

func NewFallbackGenerator(probeURLs []string, client *http.Client) *FallbackGenerator {
	return &FallbackGenerator{probeURLs: probeURLs, client: client}
}

func (g *FallbackGenerator) Generate(ctx context.Context, messages []models.ChatMessage) string {
	userMessage := "Hello"
	if len(messages) > 0 {
		userMessage = messages[len(messages)-1].Content
	}

	for _, url := range g.probeURLs {
		text, err := g.probe(ctx, url, userMessage)
		if err != nil {
			log.Printf("fallback probe %s failed: %v", url, err)
			continue
		}
		if text != "" {
			return fmt.Sprintf("%s [GitHub Llama AI] %s", fallbackPrefix, text)
		}
	}

	return CannedReply(userMessage)
}

func (g *FallbackGenerator) probe(ctx context.Context, url, userMessage string) (string, error) {
	payload, err := json.Marshal(probeRequest{
		Inputs: userMessage,
		Parameters: probeParameters{
			MaxNewTokens:   500,
			Temperature:    completionTemperature,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}

	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return "", fmt.Errorf("unexpected probe response")
	}
	return strings.TrimSpace(result.Get("0.generated_text").String()), nil
}

// CannedReply builds the offline reply from keywords in the user's message.
func CannedReply(userMessage string) string {
	lower := strings.ToLower(userMessage)

	switch {
	case containsAny(lower, "hello", "hi", "hey", "greetings"):
		return fallbackPrefix + " Hello! I'm GitHub Llama AI. I'm here to assist you with any questions or tasks you have. How can I help you today?"
	case containsAny(lower, "trading", "forex", "deriv", "binary", "options", "market"):
		return fallbackPrefix + " I can help you with trading analysis and market insights. Trading involves risk, so always do your research. What specific trading topic would you like to explore?"
	case containsAny(lower, "code", "programming", "python", "javascript", "development"):
		return fallbackPrefix + " I'm great at helping with coding and development tasks! I can assist with Python, JavaScript, and many other programming languages. What coding challenge are you working on?"
	case containsAny(lower, "explain", "what", "how", "why"):
		return fmt.Sprintf("%s Great question! Regarding '%s', I'd be happy to explain. This is a complex topic that involves several key concepts. Could you be more specific about which aspect you'd like me to focus on?", fallbackPrefix, userMessage)
	case strings.Contains(userMessage, "?"):
		return fmt.Sprintf("%s That's an interesting question about '%s'. Based on my training, I can provide insights on this topic. Let me break this down for you in a helpful way.", fallbackPrefix, userMessage)
	default:
		return fmt.Sprintf("%s I understand you're asking about '%s'. As GitHub Llama AI, I'm designed to be helpful, harmless, and honest. I'd be happy to assist you with this topic. What specific information would you like to know?", fallbackPrefix, userMessage)
	}
}

func containsAny(text string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
