package block

import (
	"context"
	"log"

	"github.com/google/uuid"

	"portal-comments/internal/authz"
	"portal-comments/internal/dictize"
	"portal-comments/internal/domain"
	"portal-comments/internal/repository"
)

type Service interface {
	Create(ctx context.Context, user *domain.User, input domain.BlockedEntityInput) (*dictize.BlockedEntity, error)
	Show(ctx context.Context, input domain.BlockedEntityInput) (*dictize.BlockedEntity, error)
	Delete(ctx context.Context, user *domain.User, input domain.BlockedEntityInput) (*dictize.BlockedEntity, error)
	IsBlocked(ctx context.Context, subjectType, subjectID string) (bool, error)
}

type service struct {
	blocks   repository.BlockedEntityRepository
	subjects *domain.SubjectRegistry
	authz    *authz.Service
	dict     *dictize.Dictizer
}

func NewService(blocks repository.BlockedEntityRepository, subjects *domain.SubjectRegistry, authzSvc *authz.Service, dict *dictize.Dictizer) Service {
	return &service{
		blocks:   blocks,
		subjects: subjects,
		authz:    authzSvc,
		dict:     dict,
	}
}

// Create is idempotent: blocking an already blocked subject returns the
// existing record.
func (s *service) Create(ctx context.Context, user *domain.User, input domain.BlockedEntityInput) (*dictize.BlockedEntity, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	if err := s.authz.CanManageBlocks(user); err != nil {
		return nil, err
	}

	subjectID, err := s.canonicalID(ctx, input.SubjectType, input.SubjectID)
	if err != nil {
		return nil, err
	}

	existing, err := s.blocks.GetBySubject(ctx, input.SubjectType, subjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Printf("block: %s %s already has comments blocked", input.SubjectType, subjectID)
		return s.dict.BlockedEntity(existing), nil
	}

	entity := &domain.BlockedEntity{
		ID:          uuid.New(),
		SubjectID:   subjectID,
		SubjectType: input.SubjectType,
	}
	if err := s.blocks.Create(ctx, entity); err != nil {
		return nil, err
	}
	log.Printf("block: blocked comments for %s %s", input.SubjectType, subjectID)
	return s.dict.BlockedEntity(entity), nil
}

func (s *service) Show(ctx context.Context, input domain.BlockedEntityInput) (*dictize.BlockedEntity, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	subjectID, err := s.canonicalID(ctx, input.SubjectType, input.SubjectID)
	if err != nil {
		return nil, err
	}
	entity, err := s.blocks.GetBySubject(ctx, input.SubjectType, subjectID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, domain.NotFound("BlockedEntity")
	}
	return s.dict.BlockedEntity(entity), nil
}

// Delete lifts a block. Unblocking a subject that is not blocked is a
// logged no-op.
func (s *service) Delete(ctx context.Context, user *domain.User, input domain.BlockedEntityInput) (*dictize.BlockedEntity, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	if err := s.authz.CanManageBlocks(user); err != nil {
		return nil, err
	}

	subjectID, err := s.canonicalID(ctx, input.SubjectType, input.SubjectID)
	if err != nil {
		return nil, err
	}

	entity, err := s.blocks.GetBySubject(ctx, input.SubjectType, subjectID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		log.Printf("block: %s %s does not have comments blocked", input.SubjectType, subjectID)
		return nil, nil
	}
	if err := s.blocks.Delete(ctx, input.SubjectType, subjectID); err != nil {
		return nil, err
	}
	log.Printf("block: unblocked comments for %s %s", input.SubjectType, subjectID)
	return s.dict.BlockedEntity(entity), nil
}

func (s *service) IsBlocked(ctx context.Context, subjectType, subjectID string) (bool, error) {
	canonical, err := s.canonicalID(ctx, subjectType, subjectID)
	if err != nil {
		return false, err
	}
	entity, err := s.blocks.GetBySubject(ctx, subjectType, canonical)
	if err != nil {
		return false, err
	}
	return entity != nil, nil
}

// canonicalID resolves the subject so that lookups by name and by id hit
// the same block record. An unresolvable subject keeps the raw id.
func (s *service) canonicalID(ctx context.Context, subjectType, subjectID string) (string, error) {
	subject, err := s.subjects.Resolve(ctx, subjectType, subjectID)
	if err != nil {
		return "", err
	}
	if subject != nil {
		return subject.ID, nil
	}
	return subjectID, nil
}

func validate(input domain.BlockedEntityInput) error {
	errs := map[string][]string{}
	if input.SubjectID == "" {
		errs["subject_id"] = []string{"Missing value"}
	}
	if input.SubjectType == "" {
		errs["subject_type"] = []string{"Missing value"}
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
