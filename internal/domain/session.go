package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session records which single account is currently authorized. At most one
// session exists at a time; the controller replaces it wholesale on
// authorize and drops it on logout or inactivity expiry.
type Session struct {
	ID        uuid.UUID `json:"id"`
	AccountID string    `json:"account_id"`
	StartedAt time.Time `json:"started_at"`
}
