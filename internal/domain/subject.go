package domain

import (
	"context"
)

// Subject is the portal entity a thread is attached to: a dataset
// (package), a resource, a user or a group.
type Subject struct {
	ID       string `json:"id" db:"id"`
	Type     string `json:"type" db:"-"`
	Name     string `json:"name" db:"name"`
	Title    string `json:"title" db:"title"`
	OwnerOrg string `json:"owner_org,omitempty" db:"owner_org"`
}

// Author is the portal identity attributed to a comment.
type Author struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	State    string `json:"state" db:"state"`
	Sysadmin bool   `json:"sysadmin" db:"sysadmin"`
}

// User is the acting identity of a request. A nil *User means anonymous.
type User struct {
	ID       string
	Name     string
	Email    string
	Sysadmin bool
}

// SubjectGetter resolves a subject by its portal ID (or name). A nil
// result with a nil error means the subject does not exist.
type SubjectGetter func(ctx context.Context, id string) (*Subject, error)

type AuthorGetter func(ctx context.Context, id string) (*Author, error)

// SubjectRegistry maps a subject_type tag to its getter. The registry is
// open: the surrounding portal can register additional types without
// touching this package.
type SubjectRegistry struct {
	getters map[string]SubjectGetter
}

func NewSubjectRegistry() *SubjectRegistry {
	return &SubjectRegistry{getters: make(map[string]SubjectGetter)}
}

func (r *SubjectRegistry) Register(subjectType string, getter SubjectGetter) {
	r.getters[subjectType] = getter
}

func (r *SubjectRegistry) Resolve(ctx context.Context, subjectType, id string) (*Subject, error) {
	getter, ok := r.getters[subjectType]
	if !ok {
		return nil, &UnsupportedSubjectTypeError{Type: subjectType}
	}
	subject, err := getter(ctx, id)
	if err != nil {
		return nil, err
	}
	if subject != nil {
		subject.Type = subjectType
	}
	return subject, nil
}

type AuthorRegistry struct {
	getters map[string]AuthorGetter
}

func NewAuthorRegistry() *AuthorRegistry {
	return &AuthorRegistry{getters: make(map[string]AuthorGetter)}
}

func (r *AuthorRegistry) Register(authorType string, getter AuthorGetter) {
	r.getters[authorType] = getter
}

func (r *AuthorRegistry) Resolve(ctx context.Context, authorType, id string) (*Author, error) {
	getter, ok := r.getters[authorType]
	if !ok {
		return nil, &UnsupportedAuthorTypeError{Type: authorType}
	}
	return getter(ctx, id)
}
