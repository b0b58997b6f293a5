package models

import (
	"github.com/google/uuid"
)

type RefreshState string

const (
	RefreshQueued  RefreshState = "Queued"
	RefreshRunning RefreshState = "Running"
	RefreshDone    RefreshState = "Done"
	RefreshError   RefreshState = "Error"
)

// RefreshRequest tracks one full-cache refresh from start to finish,
// so callers of the update service can report on what happened.
type RefreshRequest struct {
	Id        uuid.UUID    `json:"id"`
	Reason    string       `json:"reason"` // "stale", "manual", "scheduled"
	State     RefreshState `json:"state"`
	Message   string       `json:"message"`
	Records   int          `json:"records"`
	CreatedAt string       `json:"createdAt"`
	UpdatedAt string       `json:"updatedAt"`
}
