package domain

import (
	"time"

	"github.com/google/uuid"
)

// BlockedEntity forbids further thread and comment creation on a subject.
type BlockedEntity struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SubjectID   string    `json:"subject_id" db:"subject_id"`
	SubjectType string    `json:"subject_type" db:"subject_type"`
	BlockedAt   time.Time `json:"blocked_at" db:"blocked_at"`
}

type BlockedEntityInput struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	SubjectType string `json:"subject_type" validate:"required"`
}
