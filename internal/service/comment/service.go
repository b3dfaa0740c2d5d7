package comment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"

	"portal-comments/internal/authz"
	"portal-comments/internal/dictize"
	"portal-comments/internal/domain"
	"portal-comments/internal/repository"
	"portal-comments/internal/service/thread"
	"portal-comments/internal/signals"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type Moderation interface {
	AutoApprove(ctx context.Context, author *domain.Author, comment *domain.Comment, subjectID string)
}

type Service interface {
	Create(ctx context.Context, user *domain.User, input domain.CreateCommentInput) (*dictize.Comment, error)
	Show(ctx context.Context, user *domain.User, id uuid.UUID) (*dictize.Comment, error)
	List(ctx context.Context, user *domain.User, input domain.ListCommentsInput) ([]*dictize.PackageComment, error)
	Approve(ctx context.Context, user *domain.User, id uuid.UUID) (*dictize.Comment, error)
	Draft(ctx context.Context, user *domain.User, id uuid.UUID) (*dictize.Comment, error)
	Update(ctx context.Context, user *domain.User, id uuid.UUID, input domain.UpdateCommentInput) (*dictize.Comment, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID, input domain.DeleteCommentInput) (*dictize.Comment, error)
}

type service struct {
	comments   repository.CommentRepository
	threads    repository.ThreadRepository
	threadSvc  thread.Service
	blocks     thread.Blocks
	authors    *domain.AuthorRegistry
	moderation Moderation
	authz      *authz.Service
	dict       *dictize.Dictizer
	dispatcher *signals.Dispatcher
	sanitizer  *bluemonday.Policy
	redis      *redis.Client
}

func NewService(
	comments repository.CommentRepository,
	threads repository.ThreadRepository,
	threadSvc thread.Service,
	blocks thread.Blocks,
	authors *domain.AuthorRegistry,
	moderation Moderation,
	authzSvc *authz.Service,
	dict *dictize.Dictizer,
	dispatcher *signals.Dispatcher,
	redisClient *redis.Client,
) Service {
	return &service{
		comments:   comments,
		threads:    threads,
		threadSvc:  threadSvc,
		blocks:     blocks,
		authors:    authors,
		moderation: moderation,
		authz:      authzSvc,
		dict:       dict,
		dispatcher: dispatcher,
		sanitizer:  newSanitizer(),
		redis:      redisClient,
	}
}

func newSanitizer() *bluemonday.Policy {
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")
	sanitizer.AllowAttrs("href").OnElements("a")
	sanitizer.RequireParseableURLs(true)
	sanitizer.RequireNoFollowOnLinks(true)
	return sanitizer
}

func (s *service) Create(ctx context.Context, user *domain.User, input domain.CreateCommentInput) (*dictize.Comment, error) {
	content := strings.TrimSpace(s.sanitizer.Sanitize(input.Content))
	if err := validateCreate(input, content); err != nil {
		return nil, err
	}

	blocked, err := s.blocks.IsBlocked(ctx, input.SubjectType, input.SubjectID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, domain.Invalid("subject", "The message was not sent because the entity has messages disabled")
	}

	threadDict, err := s.resolveThread(ctx, user, input)
	if err != nil {
		return nil, err
	}

	authorID := s.effectiveAuthorID(user, input.AuthorID)

	email, consent, err := contactDetails(user, input)
	if err != nil {
		return nil, err
	}

	if input.ReplyToID != nil {
		parent, err := s.comments.GetByID(ctx, *input.ReplyToID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, domain.NotFound("Comment")
		}
		if parent.ThreadID != threadDict.ID {
			return nil, domain.Invalid("reply_to_id", "Comment is owned by a different thread")
		}
	}

	extras := input.Extras
	if extras == nil {
		extras = domain.Extras{}
	}

	comment := &domain.Comment{
		ID:         uuid.New(),
		ThreadID:   threadDict.ID,
		Content:    content,
		AuthorID:   authorID,
		AuthorType: domain.AuthorTypeUser,
		State:      domain.StateDraft,
		ReplyToID:  input.ReplyToID,
		Email:      email,
		Username:   optional(input.Username),
		Consent:    consent,
		Extras:     extras,
	}

	var author *domain.Author
	if authorID != "" {
		author, err = s.authors.Resolve(ctx, comment.AuthorType, authorID)
		if err != nil {
			log.Printf("comment: author lookup failed for %s: %v", authorID, err)
		}
		if author != nil {
			comment.AuthorID = author.ID
		}
	}

	s.moderation.AutoApprove(ctx, author, comment, threadDict.SubjectID)

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.invalidate(ctx, comment.ThreadID)

	dictized := s.dict.Comment(ctx, comment, dictize.Options{})
	s.dispatcher.Send(ctx, signals.Created, signals.Payload{ThreadID: comment.ThreadID, Comment: dictized})

	return dictized, nil
}

func (s *service) Show(ctx context.Context, user *domain.User, id uuid.UUID) (*dictize.Comment, error) {
	comment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanShowComment(ctx, user, comment); err != nil {
		return nil, err
	}
	return s.dict.Comment(ctx, comment, dictize.Options{}), nil
}

// List returns the comments left on datasets across the whole catalog,
// newest first, each flattened with its dataset's metadata. The listing
// is for signed-in callers; drafts stay visible to sysadmins only.
func (s *service) List(ctx context.Context, user *domain.User, input domain.ListCommentsInput) ([]*dictize.PackageComment, error) {
	if user == nil {
		return nil, domain.NotAuthorized("authentication required")
	}

	comments, err := s.comments.ListForPackages(ctx, repository.PackageCommentListOptions{
		ApprovedOnly: !user.Sysadmin,
		MemberID:     input.UserID,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*dictize.PackageComment, 0, len(comments))
	for i := range comments {
		out = append(out, s.dict.PackageComment(ctx, &comments[i], dictize.Options{}))
	}
	return out, nil
}

func (s *service) Approve(ctx context.Context, user *domain.User, id uuid.UUID) (*dictize.Comment, error) {
	comment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.owningThread(ctx, comment)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanModerate(ctx, user, comment, owner); err != nil {
		return nil, err
	}

	comment.Approve()
	if err := s.comments.UpdateState(ctx, comment); err != nil {
		return nil, err
	}
	s.invalidate(ctx, comment.ThreadID)

	dictized := s.dict.Comment(ctx, comment, dictize.Options{})
	s.dispatcher.Send(ctx, signals.Approved, signals.Payload{ThreadID: comment.ThreadID, Comment: dictized})

	return dictized, nil
}

func (s *service) Draft(ctx context.Context, user *domain.User, id uuid.UUID) (*dictize.Comment, error) {
	comment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.owningThread(ctx, comment)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanModerate(ctx, user, comment, owner); err != nil {
		return nil, err
	}

	comment.Draft()
	if err := s.comments.UpdateState(ctx, comment); err != nil {
		return nil, err
	}
	s.invalidate(ctx, comment.ThreadID)

	dictized := s.dict.Comment(ctx, comment, dictize.Options{})
	s.dispatcher.Send(ctx, signals.Updated, signals.Payload{ThreadID: comment.ThreadID, Comment: dictized})

	return dictized, nil
}

func (s *service) Update(ctx context.Context, user *domain.User, id uuid.UUID, input domain.UpdateCommentInput) (*dictize.Comment, error) {
	content := strings.TrimSpace(s.sanitizer.Sanitize(input.Content))
	if content == "" {
		return nil, domain.Invalid("content", "Missing value")
	}

	comment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.owningThread(ctx, comment)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanEditComment(ctx, user, comment, owner); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.comments.UpdateContent(ctx, comment); err != nil {
		return nil, err
	}
	s.invalidate(ctx, comment.ThreadID)

	dictized := s.dict.Comment(ctx, comment, dictize.Options{})
	s.dispatcher.Send(ctx, signals.Updated, signals.Payload{ThreadID: comment.ThreadID, Comment: dictized})

	return dictized, nil
}

func (s *service) Delete(ctx context.Context, user *domain.User, id uuid.UUID, input domain.DeleteCommentInput) (*dictize.Comment, error) {
	comment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.owningThread(ctx, comment)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanEditComment(ctx, user, comment, owner); err != nil {
		return nil, err
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.invalidate(ctx, comment.ThreadID)

	dictized := s.dict.Comment(ctx, comment, dictize.Options{})
	s.dispatcher.Send(ctx, signals.Deleted, signals.Payload{
		ThreadID: comment.ThreadID,
		Comment:  dictized,
		Extras:   map[string]string{"subject": input.Subject, "body": input.Body},
	})

	return dictized, nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, domain.NotFound("Comment")
	}
	return comment, nil
}

func (s *service) owningThread(ctx context.Context, comment *domain.Comment) (*domain.Thread, error) {
	owner, err := s.threads.GetByID(ctx, comment.ThreadID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, domain.NotFound("Thread")
	}
	return owner, nil
}

// resolveThread finds the subject's thread, creating it on demand when
// create_thread is set.
func (s *service) resolveThread(ctx context.Context, user *domain.User, input domain.CreateCommentInput) (*dictize.Thread, error) {
	threadDict, err := s.threadSvc.Show(ctx, user, input.SubjectID, input.SubjectType, thread.ShowOptions{})
	if err == nil {
		return threadDict, nil
	}
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) || !input.CreateThread {
		return nil, err
	}
	return s.threadSvc.Create(ctx, user, domain.CreateThreadInput{
		SubjectID:   input.SubjectID,
		SubjectType: input.SubjectType,
	})
}

// effectiveAuthorID honors an explicit author_id only for sysadmins;
// everyone else comments as themselves.
func (s *service) effectiveAuthorID(user *domain.User, requested string) string {
	canSetAuthor := user != nil && user.Sysadmin
	if requested != "" && canSetAuthor {
		return requested
	}
	if user != nil {
		return user.ID
	}
	return ""
}

// contactDetails applies the anonymous-author rules: a well-formed email
// and explicit consent are mandatory without an account, while signed-in
// authors default to their account email.
func contactDetails(user *domain.User, input domain.CreateCommentInput) (*string, *bool, error) {
	email := strings.TrimSpace(input.Email)
	if user == nil {
		if email == "" {
			return nil, nil, domain.Invalid("email", "Missing value")
		}
		if !emailPattern.MatchString(email) {
			return nil, nil, domain.Invalid("email", "Invalid email address")
		}
		if input.Consent == nil || !*input.Consent {
			return nil, nil, domain.Invalid("consent", "Missing value")
		}
		return &email, input.Consent, nil
	}
	if email == "" {
		email = user.Email
	}
	return optional(email), input.Consent, nil
}

func validateCreate(input domain.CreateCommentInput, content string) error {
	errs := map[string][]string{}
	if input.SubjectID == "" {
		errs["subject_id"] = []string{"Missing value"}
	}
	if input.SubjectType == "" {
		errs["subject_type"] = []string{"Missing value"}
	}
	if content == "" {
		errs["content"] = []string{"Missing value"}
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
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

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
