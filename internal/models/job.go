package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationJob asks a worker to produce the assistant turn for a session.
type GenerationJob struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGenerationJob(sessionID uuid.UUID) GenerationJob {
	return GenerationJob{
		ID:        uuid.New(),
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}
}

// PendingGeneration is the job that answers the session's open user turn.
func (s *Session) PendingGeneration() GenerationJob {
	return GenerationJob{
		ID:        s.PendingJob,
		SessionID: s.ID,
		CreatedAt: time.Now().UTC(),
	}
}

// WebSocket message types
const (
	WSGenerationPending = "generation_pending"
	WSGenerationDone    = "generation_done"
	WSGenerationFailed  = "generation_failed"
	WSTranscriptCleared = "transcript_cleared"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type GenerationEvent struct {
	SessionID uuid.UUID       `json:"session_id"`
	JobID     uuid.UUID       `json:"job_id,omitempty"`
	State     GenerationState `json:"state"`
	Message   *ChatMessage    `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
