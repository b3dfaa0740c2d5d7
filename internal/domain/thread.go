package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubjectPackage  = "package"
	SubjectResource = "resource"
	SubjectUser     = "user"
	SubjectGroup    = "group"
)

// Thread is the single comment container for a subject. At most one
// thread exists per (subject_id, subject_type) pair.
type Thread struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SubjectID   string    `json:"subject_id" db:"subject_id"`
	SubjectType string    `json:"subject_type" db:"subject_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Persisted reports whether the thread exists in storage. Threads built
// with init_missing are stubs with a zero ID.
func (t *Thread) Persisted() bool {
	return t.ID != uuid.Nil
}

type CreateThreadInput struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	SubjectType string `json:"subject_type" validate:"required"`
}
