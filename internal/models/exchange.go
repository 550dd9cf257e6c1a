package models

import (
	"time"

	"github.com/google/uuid"
)

// Exchange is one audited question/answer round trip.
type Exchange struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	Provider   string    `json:"provider"`
	Question   string    `json:"question"`
	Reply      string    `json:"reply"`
	Filtered   bool      `json:"filtered"`
	Failed     bool      `json:"failed"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
