package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"portal-comments/internal/domain"
)

const pqUniqueViolation = "23505"

type ThreadRepository interface {
	Create(ctx context.Context, thread *domain.Thread) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Thread, error)
	GetBySubject(ctx context.Context, subjectType, subjectID string) (*domain.Thread, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type threadRepository struct {
	db *sqlx.DB
}

func NewThreadRepository(db *sqlx.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) Create(ctx context.Context, thread *domain.Thread) error {
	query := `
		INSERT INTO threads (id, subject_id, subject_type)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		thread.ID, thread.SubjectID, thread.SubjectType,
	).Scan(&thread.CreatedAt)
	return mapUniqueViolation(err, "Thread for the given subject")
}

func (r *threadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Thread, error) {
	var thread domain.Thread
	query := `SELECT id, subject_id, subject_type, created_at FROM threads WHERE id = $1`
	err := r.db.GetContext(ctx, &thread, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) GetBySubject(ctx context.Context, subjectType, subjectID string) (*domain.Thread, error) {
	var thread domain.Thread
	query := `
		SELECT id, subject_id, subject_type, created_at
		FROM threads
		WHERE subject_type = $1 AND subject_id = $2`
	err := r.db.GetContext(ctx, &thread, query, subjectType, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Comments go with the thread via ON DELETE CASCADE.
	_, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE id = $1`, id)
	return err
}

func mapUniqueViolation(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return domain.AlreadyExists(what)
	}
	return err
}
