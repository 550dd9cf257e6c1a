package services

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"xenon-assistant/internal/models"
)

//go:embed topics.yaml
var defaultTopicPolicy []byte

// TopicPolicy is the fixed data behind the topic gate.
type TopicPolicy struct {
	SystemPrompt  string               `yaml:"system_prompt"`
	Refusal       string               `yaml:"refusal"`
	Redirect      string               `yaml:"redirect"`
	GreetingWords []string             `yaml:"greeting_words"`
	TopicWords    []string             `yaml:"topic_words"`
	QuickActions  []models.QuickAction `yaml:"quick_actions"`
}

// LoadTopicPolicy reads the policy from path, or the embedded default when path is empty.
func LoadTopicPolicy(path string) (*TopicPolicy, error) {
	data := defaultTopicPolicy
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read topic policy: %w", err)
		}
		data = b
	}
	return ParseTopicPolicy(data)
}

func ParseTopicPolicy(data []byte) (*TopicPolicy, error) {
	var p TopicPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse topic policy: %w", err)
	}
	if len(p.GreetingWords) == 0 || len(p.TopicWords) == 0 {
		return nil, fmt.Errorf("topic policy needs both greeting_words and topic_words")
	}
	if strings.TrimSpace(p.Refusal) == "" || strings.TrimSpace(p.Redirect) == "" {
		return nil, fmt.Errorf("topic policy needs refusal and redirect text")
	}

	// Terms keep their padding spaces; only case is normalised.
	for i, w := range p.GreetingWords {
		p.GreetingWords[i] = foldPunct(w)
	}
	for i, w := range p.TopicWords {
		p.TopicWords[i] = foldPunct(w)
	}
	return &p, nil
}

// TopicFilter is a keyword gate, not a semantic classifier.
type TopicFilter struct {
	policy *TopicPolicy
}

func NewTopicFilter(policy *TopicPolicy) *TopicFilter {
	return &TopicFilter{policy: policy}
}

func (f *TopicFilter) Refusal() string      { return f.policy.Refusal }
func (f *TopicFilter) Redirect() string     { return f.policy.Redirect }
func (f *TopicFilter) SystemPrompt() string { return f.policy.SystemPrompt }

func (f *TopicFilter) IsGreeting(text string) bool {
	return containsAny(normalizeForMatch(text), f.policy.GreetingWords...)
}

func (f *TopicFilter) IsOnTopic(text string) bool {
	return containsAny(normalizeForMatch(text), f.policy.TopicWords...)
}

// FilterReply returns reply, or a canned substitute when the exchange is off-topic.
func (f *TopicFilter) FilterReply(reply, userQuestion string) string {
	if f.IsGreeting(userQuestion) {
		return reply
	}
	if !f.IsOnTopic(userQuestion) {
		return f.policy.Refusal
	}
	if !f.IsOnTopic(reply) && !f.IsGreeting(reply) {
		return f.policy.Redirect
	}
	return reply
}

// normalizeForMatch lowercases text, turns punctuation and whitespace into
// single spaces and pads both ends, so " hi " matches "Hi." and "hi?".
func normalizeForMatch(text string) string {
	return " " + strings.Join(strings.Fields(foldPunct(text)), " ") + " "
}

// foldPunct lowercases s and replaces every rune other than letters, digits
// and '/' with a space. Policy terms go through it too, so " hi," reads as " hi ".
func foldPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
}
