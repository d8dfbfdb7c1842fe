package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is a raw timer run, independent of the objective graph. It keeps
// simple timer history without the activity linking workflow.
type Session struct {
	ID        uuid.UUID `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Duration  float64   `json:"duration_seconds"`
}
