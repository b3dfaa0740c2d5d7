package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"portal-comments/internal/domain"
)

type BlockedEntityRepository struct {
	mock.Mock
}

func (m *BlockedEntityRepository) Create(ctx context.Context, entity *domain.BlockedEntity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *BlockedEntityRepository) GetBySubject(ctx context.Context, subjectType, subjectID string) (*domain.BlockedEntity, error) {
	args := m.Called(ctx, subjectType, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlockedEntity), args.Error(1)
}

func (m *BlockedEntityRepository) Delete(ctx context.Context, subjectType, subjectID string) error {
	args := m.Called(ctx, subjectType, subjectID)
	return args.Error(0)
}
