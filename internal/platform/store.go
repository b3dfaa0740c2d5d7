// Package platform reads the surrounding portal's own tables: subjects
// (packages, resources, users, groups), comment authors and organization
// membership. It is the default implementation behind the pluggable
// registries; deployments can swap in their own getters.
package platform

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"portal-comments/internal/domain"
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// RegisterDefaults wires the portal-backed getters for the four built-in
// subject types and the "user" author type.
func (s *Store) RegisterDefaults(subjects *domain.SubjectRegistry, authors *domain.AuthorRegistry) {
	subjects.Register(domain.SubjectPackage, s.GetPackage)
	subjects.Register(domain.SubjectResource, s.GetResource)
	subjects.Register(domain.SubjectUser, s.GetUserSubject)
	subjects.Register(domain.SubjectGroup, s.GetGroup)
	authors.Register(domain.AuthorTypeUser, s.GetAuthor)
}

func (s *Store) GetPackage(ctx context.Context, id string) (*domain.Subject, error) {
	var subject domain.Subject
	query := `
		SELECT id, name, title, COALESCE(owner_org, '') AS owner_org
		FROM package
		WHERE (id = $1 OR name = $1) AND state = 'active'`
	err := s.db.GetContext(ctx, &subject, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (s *Store) GetResource(ctx context.Context, id string) (*domain.Subject, error) {
	var subject domain.Subject
	query := `
		SELECT id, COALESCE(name, '') AS name, COALESCE(name, '') AS title, '' AS owner_org
		FROM resource
		WHERE id = $1 AND state = 'active'`
	err := s.db.GetContext(ctx, &subject, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (s *Store) GetUserSubject(ctx context.Context, id string) (*domain.Subject, error) {
	var subject domain.Subject
	query := `
		SELECT id, name, COALESCE(fullname, name) AS title, '' AS owner_org
		FROM "user"
		WHERE (id = $1 OR name = $1) AND state = 'active'`
	err := s.db.GetContext(ctx, &subject, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (*domain.Subject, error) {
	var subject domain.Subject
	query := `
		SELECT id, name, title, '' AS owner_org
		FROM "group"
		WHERE (id = $1 OR name = $1) AND state = 'active'`
	err := s.db.GetContext(ctx, &subject, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	var author domain.Author
	query := `
		SELECT id, name, COALESCE(email, '') AS email, state, sysadmin
		FROM "user"
		WHERE id = $1 OR name = $1`
	err := s.db.GetContext(ctx, &author, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// EditorEmails returns the addresses of active editor-capacity members of
// an organization.
func (s *Store) EditorEmails(ctx context.Context, orgID string) ([]string, error) {
	if orgID == "" {
		return nil, nil
	}
	var emails []string
	query := `
		SELECT u.email
		FROM member m
		JOIN "user" u ON u.id = m.table_id
		WHERE m.group_id = $1
		  AND m.table_name = 'user'
		  AND m.capacity = 'editor'
		  AND m.state = 'active'
		  AND u.state = 'active'
		  AND u.email IS NOT NULL AND u.email <> ''`
	if err := s.db.SelectContext(ctx, &emails, query, orgID); err != nil {
		return nil, err
	}
	return emails, nil
}
