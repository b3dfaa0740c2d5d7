package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StateDraft    = "draft"
	StateApproved = "approved"
)

const AuthorTypeUser = "user"

// Extras is the free-form key/value payload stored alongside a comment.
type Extras map[string]any

func (e Extras) Value() (driver.Value, error) {
	if e == nil {
		e = Extras{}
	}
	return json.Marshal(e)
}

func (e *Extras) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*e = Extras{}
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("unsupported extras type %T", src)
	}
}

type Comment struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ThreadID   uuid.UUID  `json:"thread_id" db:"thread_id"`
	Content    string     `json:"content" db:"content"`
	AuthorID   string     `json:"author_id" db:"author_id"`
	AuthorType string     `json:"author_type" db:"author_type"`
	State      string     `json:"state" db:"state"`
	ReplyToID  *uuid.UUID `json:"reply_to_id" db:"reply_to_id"`
	Email      *string    `json:"email" db:"email"`
	Username   *string    `json:"username" db:"username"`
	Consent    *bool      `json:"consent" db:"consent"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt *time.Time `json:"modified_at" db:"modified_at"`
	Extras     Extras     `json:"extras" db:"extras"`

	// Author is filled by the eager join on listing; read paths fall back
	// to the author registry when it is nil.
	Author *Author `json:"-" db:"-"`
}

func (c *Comment) Approve() {
	c.State = StateApproved
}

func (c *Comment) Draft() {
	c.State = StateDraft
}

func (c *Comment) IsApproved() bool {
	return c.State == StateApproved
}

// IsAuthoredBy compares the caller identity against the resolved author's
// id and display name.
func (c *Comment) IsAuthoredBy(author *Author, identity string) bool {
	if author == nil || identity == "" {
		return false
	}
	return identity == author.ID || identity == author.Name
}

// PackageComment is a comment joined with the dataset its thread is
// attached to, for the cross-dataset listing.
type PackageComment struct {
	Comment
	DatasetID    string `json:"dataset_id" db:"dataset_id"`
	DatasetName  string `json:"dataset_name" db:"dataset_name"`
	DatasetTitle string `json:"dataset_title" db:"dataset_title"`
}

// ListCommentsInput narrows the cross-dataset listing. UserID limits the
// result to datasets owned by organizations the given portal user is an
// active member of.
type ListCommentsInput struct {
	UserID string `json:"user_id"`
}

type CreateCommentInput struct {
	SubjectID    string     `json:"subject_id" validate:"required"`
	SubjectType  string     `json:"subject_type" validate:"required"`
	Content      string     `json:"content" validate:"required"`
	AuthorID     string     `json:"author_id"`
	ReplyToID    *uuid.UUID `json:"reply_to_id"`
	CreateThread bool       `json:"create_thread"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	Consent      *bool      `json:"consent"`
	Extras       Extras     `json:"extras"`
}

type UpdateCommentInput struct {
	Content string `json:"content" validate:"required"`
}

// DeleteCommentInput optionally carries the subject and body of a
// deletion notice mailed to the comment's contact address.
type DeleteCommentInput struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
