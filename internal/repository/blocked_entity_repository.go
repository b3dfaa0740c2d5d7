package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"portal-comments/internal/domain"
)

type BlockedEntityRepository interface {
	Create(ctx context.Context, entity *domain.BlockedEntity) error
	GetBySubject(ctx context.Context, subjectType, subjectID string) (*domain.BlockedEntity, error)
	Delete(ctx context.Context, subjectType, subjectID string) error
}

type blockedEntityRepository struct {
	db *sqlx.DB
}

func NewBlockedEntityRepository(db *sqlx.DB) BlockedEntityRepository {
	return &blockedEntityRepository{db: db}
}

func (r *blockedEntityRepository) Create(ctx context.Context, entity *domain.BlockedEntity) error {
	query := `
		INSERT INTO blocked_entities (id, subject_id, subject_type)
		VALUES ($1, $2, $3)
		RETURNING blocked_at`

	err := r.db.QueryRowxContext(ctx, query,
		entity.ID, entity.SubjectID, entity.SubjectType,
	).Scan(&entity.BlockedAt)
	return mapUniqueViolation(err, "Block for the given subject")
}

func (r *blockedEntityRepository) GetBySubject(ctx context.Context, subjectType, subjectID string) (*domain.BlockedEntity, error) {
	var entity domain.BlockedEntity
	query := `
		SELECT id, subject_id, subject_type, blocked_at
		FROM blocked_entities
		WHERE subject_type = $1 AND subject_id = $2`
	err := r.db.GetContext(ctx, &entity, query, subjectType, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *blockedEntityRepository) Delete(ctx context.Context, subjectType, subjectID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blocked_entities WHERE subject_type = $1 AND subject_id = $2`,
		subjectType, subjectID,
	)
	return err
}
