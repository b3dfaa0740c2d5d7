package thread

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"portal-comments/internal/authz"
	"portal-comments/internal/dictize"
	"portal-comments/internal/domain"
	"portal-comments/internal/repository"
)

// ShowOptions are the thread_show inputs beyond the subject pair.
type ShowOptions struct {
	InitMissing bool
	dictize.Options
}

type Blocks interface {
	IsBlocked(ctx context.Context, subjectType, subjectID string) (bool, error)
}

type Service interface {
	Create(ctx context.Context, user *domain.User, input domain.CreateThreadInput) (*dictize.Thread, error)
	Show(ctx context.Context, user *domain.User, subjectID, subjectType string, opts ShowOptions) (*dictize.Thread, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) (*dictize.Thread, error)
}

type service struct {
	threads  repository.ThreadRepository
	blocks   Blocks
	subjects *domain.SubjectRegistry
	authz    *authz.Service
	dict     *dictize.Dictizer
	redis    *redis.Client
}

func NewService(threads repository.ThreadRepository, blocks Blocks, subjects *domain.SubjectRegistry, authzSvc *authz.Service, dict *dictize.Dictizer, redisClient *redis.Client) Service {
	return &service{
		threads:  threads,
		blocks:   blocks,
		subjects: subjects,
		authz:    authzSvc,
		dict:     dict,
		redis:    redisClient,
	}
}

func (s *service) Create(ctx context.Context, user *domain.User, input domain.CreateThreadInput) (*dictize.Thread, error) {
	if err := validateSubject(input.SubjectID, input.SubjectType); err != nil {
		return nil, err
	}

	blocked, err := s.blocks.IsBlocked(ctx, input.SubjectType, input.SubjectID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, domain.Invalid("subject", "The entity has comments disabled")
	}

	subject, err := s.subjects.Resolve(ctx, input.SubjectType, input.SubjectID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, domain.NotFound("Subject for thread")
	}

	existing, err := s.threads.GetBySubject(ctx, input.SubjectType, subject.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.AlreadyExists("Thread for the given subject_id and subject_type")
	}

	thread := &domain.Thread{
		ID:          uuid.New(),
		SubjectID:   subject.ID,
		SubjectType: input.SubjectType,
	}
	// A lost race on the unique constraint also surfaces as AlreadyExists.
	if err := s.threads.Create(ctx, thread); err != nil {
		return nil, err
	}

	return s.dict.Thread(ctx, thread, user, dictize.Options{})
}

func (s *service) Show(ctx context.Context, user *domain.User, subjectID, subjectType string, opts ShowOptions) (*dictize.Thread, error) {
	if err := validateSubject(subjectID, subjectType); err != nil {
		return nil, err
	}

	thread, err := s.forSubject(ctx, subjectType, subjectID, opts.InitMissing)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(user, thread, opts)
	if cacheKey != "" {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var result dictize.Thread
			if json.Unmarshal([]byte(cached), &result) == nil {
				return &result, nil
			}
		}
	}

	result, err := s.dict.Thread(ctx, thread, user, opts.Options)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		if resultJSON, err := json.Marshal(result); err == nil {
			_ = s.redis.Set(ctx, cacheKey, resultJSON, 5*time.Minute).Err()
		}
	}

	return result, nil
}

func (s *service) Delete(ctx context.Context, user *domain.User, id uuid.UUID) (*dictize.Thread, error) {
	if err := s.authz.CanDeleteThread(user); err != nil {
		return nil, err
	}

	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, domain.NotFound("Thread")
	}

	if err := s.threads.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	return s.dict.Thread(ctx, thread, user, dictize.Options{})
}

// forSubject resolves the subject and finds its thread. With initMissing
// an unpersisted stub comes back instead of a not-found error.
func (s *service) forSubject(ctx context.Context, subjectType, subjectID string, initMissing bool) (*domain.Thread, error) {
	subject, err := s.subjects.Resolve(ctx, subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	canonical := subjectID
	if subject != nil {
		canonical = subject.ID
	}

	thread, err := s.threads.GetBySubject(ctx, subjectType, canonical)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		if !initMissing {
			return nil, domain.NotFound("Thread")
		}
		thread = &domain.Thread{SubjectID: canonical, SubjectType: subjectType}
	}
	return thread, nil
}

// cacheKey is non-empty only for the public read path: anonymous viewers
// share one visibility class, so their responses are safe to share.
func (s *service) cacheKey(user *domain.User, thread *domain.Thread, opts ShowOptions) string {
	if s.redis == nil || user != nil || opts.IgnoreAuth || !thread.Persisted() {
		return ""
	}
	after := ""
	if opts.AfterDate != nil {
		after = opts.AfterDate.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("thread:%s:%t:%t:%t:%t:%s",
		thread.ID, opts.IncludeComments, opts.IncludeAuthor, opts.CombineComments, opts.NewestFirst, after)
}

func (s *service) invalidate(ctx context.Context, threadID uuid.UUID) {
	if s.redis == nil {
		return
	}
	keys, _ := s.redis.Keys(ctx, fmt.Sprintf("thread:%s:*", threadID)).Result()
	if len(keys) > 0 {
		_ = s.redis.Del(ctx, keys...).Err()
	}
}

func validateSubject(subjectID, subjectType string) error {
	errs := map[string][]string{}
	if subjectID == "" {
		errs["subject_id"] = []string{"Missing value"}
	}
	if subjectType == "" {
		errs["subject_type"] = []string{"Missing value"}
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
