package models

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatView is what the chat page and GET /chat render from.
type ChatView struct {
	Title          string          `json:"title"`
	WelcomeMessage string          `json:"welcome_message"`
	Configured     bool            `json:"configured"`
	SessionID      string          `json:"session_id"`
	Transcript     []ChatMessage   `json:"transcript"`
	Generating     bool            `json:"generating"`
	State          GenerationState `json:"state"`
	Warning        string          `json:"warning,omitempty"`
}

// QuickAction is a canned question injected through the same pipeline as free text.
type QuickAction struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Question string `json:"question" yaml:"question"`
}
