package services

import (
	"os"
	"path/filepath"
	"testing"
)

func defaultFilter(t *testing.T) *TopicFilter {
	t.Helper()
	policy, err := LoadTopicPolicy("")
	if err != nil {
		t.Fatalf("failed to load embedded policy: %v", err)
	}
	return NewTopicFilter(policy)
}

func TestLoadTopicPolicy_Embedded(t *testing.T) {
	policy, err := LoadTopicPolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.SystemPrompt == "" || policy.Refusal == "" || policy.Redirect == "" {
		t.Fatal("embedded policy is missing text")
	}
	if len(policy.QuickActions) == 0 {
		t.Fatal("expected quick actions in embedded policy")
	}
	for _, a := range policy.QuickActions {
		if a.ID == "" || a.Label == "" || a.Question == "" {
			t.Errorf("incomplete quick action %+v", a)
		}
	}
}

func TestLoadTopicPolicy_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	data := []byte(`
refusal: No.
redirect: Back to cooking.
greeting_words: ["Hello"]
topic_words: ["Recipe", "bake"]
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	policy, err := LoadTopicPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.TopicWords[0] != "recipe" {
		t.Errorf("expected terms to be lowercased, got %q", policy.TopicWords[0])
	}

	f := NewTopicFilter(policy)
	if got := f.FilterReply("anything", "what's the weather"); got != "No." {
		t.Errorf("expected custom refusal, got %q", got)
	}
}

func TestParseTopicPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "::::"},
		{"no greetings", "refusal: a\nredirect: b\ntopic_words: [x]\n"},
		{"no topics", "refusal: a\nredirect: b\ngreeting_words: [x]\n"},
		{"no refusal", "redirect: b\ngreeting_words: [x]\ntopic_words: [y]\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTopicPolicy([]byte(tc.data)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestFilterReply_GreetingsAlwaysPass(t *testing.T) {
	f := defaultFilter(t)
	replies := []string{"", "The weather is sunny.", "I like pizza", "anything at all"}
	questions := []string{"Hello!", "hi, what's up", "Good morning Xenon", "Who are you?", "thanks a lot", "hey"}

	for _, q := range questions {
		for _, reply := range replies {
			if got := f.FilterReply(reply, q); got != reply {
				t.Errorf("FilterReply(%q, %q) = %q, want reply unchanged", reply, q, got)
			}
		}
	}
}

func TestFilterReply_OffTopicQuestionRefused(t *testing.T) {
	f := defaultFilter(t)
	questions := []string{"what's the weather", "Write me a poem about cats", "How do I bake bread?"}

	for _, q := range questions {
		for _, reply := range []string{"Sunny.", "Trading is risky.", ""} {
			if got := f.FilterReply(reply, q); got != f.Refusal() {
				t.Errorf("FilterReply(%q, %q) = %q, want refusal", reply, q, got)
			}
		}
	}
}

func TestFilterReply_OnTopic(t *testing.T) {
	f := defaultFilter(t)

	tests := []struct {
		name     string
		reply    string
		question string
		want     string
	}{
		{"on-topic reply passes", "Use a stop loss to manage risk.", "How should I trade forex?", "Use a stop loss to manage risk."},
		{"reply with greeting passes", "Hello! Happy to help.", "Explain the MACD indicator", "Hello! Happy to help."},
		{"drifting reply redirected", "Here is a poem about the sea.", "What is a good trading strategy?", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := tc.want
			if want == "" {
				want = f.Redirect()
			}
			if got := f.FilterReply(tc.reply, tc.question); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestIsGreeting_PaddedTerms(t *testing.T) {
	f := defaultFilter(t)

	if !f.IsGreeting("hi") {
		t.Error("bare 'hi' should count as a greeting")
	}
	if f.IsGreeting("this is a thing") {
		t.Error("'hi' inside a word should not count as a greeting")
	}
}

func TestIsGreeting_PunctuationAndWhitespace(t *testing.T) {
	f := defaultFilter(t)

	for _, text := range []string{"Hi.", "hi?", "Hi!", "hi,", "hi\nthere", "hi\tthere", "(hi)"} {
		if !f.IsGreeting(text) {
			t.Errorf("%q should count as a greeting", text)
		}
	}
	if got := f.FilterReply("Hello! How can I help?", "Hi."); got != "Hello! How can I help?" {
		t.Errorf("greeting reply should pass through, got %q", got)
	}
}

func TestIsOnTopic_SlashTermsSurvive(t *testing.T) {
	f := defaultFilter(t)

	if !f.IsOnTopic("Where is EUR/USD heading?") {
		t.Error("eur/usd should count as on topic")
	}
}
