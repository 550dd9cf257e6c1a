package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxTranscript bounds the context kept per session.
const MaxTranscript = 20

type GenerationState string

const (
	StateIdle    GenerationState = "idle"
	StatePending GenerationState = "pending"
	StateDone    GenerationState = "done"
	StateFailed  GenerationState = "failed"
)

// Session is the per-browser state. It is never shared between sessions.
type Session struct {
	ID         uuid.UUID       `json:"id"`
	Transcript []ChatMessage   `json:"transcript"`
	Generating bool            `json:"generating"`
	PendingJob uuid.UUID       `json:"pending_job"`
	State      GenerationState `json:"state"`
	LastError  string          `json:"last_error,omitempty"`
	Admin      bool            `json:"admin"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.New(),
		Transcript: []ChatMessage{},
		State:      StateIdle,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Append adds a message and drops the oldest entries past MaxTranscript.
func (s *Session) Append(msg ChatMessage) {
	s.Transcript = append(s.Transcript, msg)
	s.Truncate()
}

func (s *Session) Truncate() {
	if len(s.Transcript) > MaxTranscript {
		s.Transcript = append([]ChatMessage(nil), s.Transcript[len(s.Transcript)-MaxTranscript:]...)
	}
}

// LastUserMessage returns the most recent user turn, if any.
func (s *Session) LastUserMessage() (string, bool) {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleUser {
			return s.Transcript[i].Content, true
		}
	}
	return "", false
}

// Clone returns a deep copy so repositories can hand out snapshots.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Transcript = append([]ChatMessage(nil), s.Transcript...)
	return &c
}
