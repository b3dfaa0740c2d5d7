package comment_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"portal-comments/internal/authz"
	"portal-comments/internal/config"
	"portal-comments/internal/dictize"
	"portal-comments/internal/domain"
	"portal-comments/internal/mocks"
	"portal-comments/internal/moderation"
	"portal-comments/internal/repository"
	"portal-comments/internal/service/comment"
	"portal-comments/internal/service/thread"
	"portal-comments/internal/signals"
)

type stubBlocks struct{ blocked bool }

func (s stubBlocks) IsBlocked(ctx context.Context, subjectType, subjectID string) (bool, error) {
	return s.blocked, nil
}

type fixture struct {
	comments   *mocks.CommentRepository
	threads    *mocks.ThreadRepository
	dispatcher *signals.Dispatcher
	svc        comment.Service
}

func newFixture(t *testing.T, blocked bool) *fixture {
	t.Helper()

	cfg := &config.Config{
		RequireApproval:    true,
		DraftEdits:         true,
		DraftEditsByAuthor: true,
	}
	comments := new(mocks.CommentRepository)
	threads := new(mocks.ThreadRepository)

	subjects := domain.NewSubjectRegistry()
	subjects.Register(domain.SubjectPackage, func(ctx context.Context, id string) (*domain.Subject, error) {
		if id == "pkg-1" {
			return &domain.Subject{ID: "pkg-1", Name: "dataset", Title: "Dataset"}, nil
		}
		return nil, nil
	})
	authors := domain.NewAuthorRegistry()
	authors.Register(domain.AuthorTypeUser, func(ctx context.Context, id string) (*domain.Author, error) {
		return &domain.Author{ID: id, Name: "name-" + id, Email: id + "@example.com"}, nil
	})

	mod := moderation.NewService(cfg, nil, subjects, authors, nil)
	dict := dictize.New(comments, authors, mod)
	authzSvc := authz.NewService(cfg, mod, authors)
	dispatcher := signals.NewDispatcher()

	blocks := stubBlocks{blocked: blocked}
	threadSvc := thread.NewService(threads, blocks, subjects, authzSvc, dict, nil)
	svc := comment.NewService(comments, threads, threadSvc, blocks, authors, mod, authzSvc, dict, dispatcher, nil)

	return &fixture{comments: comments, threads: threads, dispatcher: dispatcher, svc: svc}
}

func record(d *signals.Dispatcher, event signals.Event) *[]signals.Payload {
	var got []signals.Payload
	d.Subscribe(event, func(ctx context.Context, p signals.Payload) {
		got = append(got, p)
	})
	return &got
}

func existingThread() *domain.Thread {
	return &domain.Thread{ID: uuid.New(), SubjectID: "pkg-1", SubjectType: domain.SubjectPackage}
}

func TestCommentCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Signed In Defaults To Draft", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		user := &domain.User{ID: "u-1", Name: "alice", Email: "alice@example.com"}

		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(th, nil).Once()
		f.comments.On("Create", ctx, mock.MatchedBy(func(c *domain.Comment) bool {
			return c.ThreadID == th.ID && c.AuthorID == "u-1" && c.State == domain.StateDraft
		})).Return(nil).Once()
		created := record(f.dispatcher, signals.Created)

		result, err := f.svc.Create(ctx, user, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "Nice dataset!",
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.StateDraft, result.State)
		assert.False(t, result.Approved)
		// The contact address falls back to the account email.
		assert.NotNil(t, result.Email)
		assert.Equal(t, "alice@example.com", *result.Email)
		assert.Len(t, *created, 1)
		assert.Equal(t, th.ID, (*created)[0].ThreadID)
		f.comments.AssertExpectations(t)
	})

	t.Run("Anonymous With Email And Consent", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		consent := true

		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(th, nil).Once()
		f.comments.On("Create", ctx, mock.MatchedBy(func(c *domain.Comment) bool {
			return c.AuthorID == "" && c.Email != nil && *c.Email == "guest@example.com"
		})).Return(nil).Once()

		result, err := f.svc.Create(ctx, nil, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "Anonymous feedback",
			Email:       "guest@example.com",
			Username:    "guest",
			Consent:     &consent,
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.StateDraft, result.State)
		f.comments.AssertExpectations(t)
	})

	t.Run("Anonymous Without Email", func(t *testing.T) {
		f := newFixture(t, false)
		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(existingThread(), nil).Once()

		_, err := f.svc.Create(ctx, nil, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "hello",
		})

		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Errors, "email")
	})

	t.Run("Anonymous With Malformed Email", func(t *testing.T) {
		f := newFixture(t, false)
		consent := true
		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(existingThread(), nil).Once()

		_, err := f.svc.Create(ctx, nil, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "hello",
			Email:       "not-an-email",
			Consent:     &consent,
		})

		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Errors, "email")
	})

	t.Run("Anonymous Without Consent", func(t *testing.T) {
		f := newFixture(t, false)
		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(existingThread(), nil).Once()

		_, err := f.svc.Create(ctx, nil, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "hello",
			Email:       "guest@example.com",
		})

		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Errors, "consent")
	})

	t.Run("Blocked Subject", func(t *testing.T) {
		f := newFixture(t, true)
		user := &domain.User{ID: "u-1", Email: "u-1@example.com"}

		_, err := f.svc.Create(ctx, user, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "hello",
		})

		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Errors, "subject")
	})

	t.Run("Missing Thread Without CreateThread", func(t *testing.T) {
		f := newFixture(t, false)
		user := &domain.User{ID: "u-1", Email: "u-1@example.com"}
		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(nil, nil).Once()

		_, err := f.svc.Create(ctx, user, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "hello",
		})

		var notFound *domain.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("CreateThread On Demand", func(t *testing.T) {
		f := newFixture(t, false)
		user := &domain.User{ID: "u-1", Email: "u-1@example.com"}

		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(nil, nil).Twice()
		f.threads.On("Create", ctx, mock.MatchedBy(func(th *domain.Thread) bool {
			return th.SubjectID == "pkg-1" && th.SubjectType == domain.SubjectPackage
		})).Return(nil).Once()
		f.comments.On("Create", ctx, mock.Anything).Return(nil).Once()

		result, err := f.svc.Create(ctx, user, domain.CreateCommentInput{
			SubjectID:    "pkg-1",
			SubjectType:  domain.SubjectPackage,
			Content:      "first!",
			CreateThread: true,
		})

		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, result.ThreadID)
		f.threads.AssertExpectations(t)
	})

	t.Run("Reply To Missing Comment", func(t *testing.T) {
		f := newFixture(t, false)
		user := &domain.User{ID: "u-1", Email: "u-1@example.com"}
		missing := uuid.New()

		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(existingThread(), nil).Once()
		f.comments.On("GetByID", ctx, missing).Return(nil, nil).Once()

		_, err := f.svc.Create(ctx, user, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "re",
			ReplyToID:   &missing,
		})

		var notFound *domain.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("Reply Across Threads", func(t *testing.T) {
		f := newFixture(t, false)
		user := &domain.User{ID: "u-1", Email: "u-1@example.com"}
		th := existingThread()
		parent := &domain.Comment{ID: uuid.New(), ThreadID: uuid.New(), State: domain.StateApproved}

		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(th, nil).Once()
		f.comments.On("GetByID", ctx, parent.ID).Return(parent, nil).Once()

		_, err := f.svc.Create(ctx, user, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "re",
			ReplyToID:   &parent.ID,
		})

		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Errors, "reply_to_id")
	})

	t.Run("Strips Markup", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		user := &domain.User{ID: "u-1", Email: "u-1@example.com"}

		f.threads.On("GetBySubject", ctx, domain.SubjectPackage, "pkg-1").Return(th, nil).Once()
		f.comments.On("Create", ctx, mock.MatchedBy(func(c *domain.Comment) bool {
			return c.Content == "<strong>bold</strong> plain"
		})).Return(nil).Once()

		_, err := f.svc.Create(ctx, user, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     `<strong>bold</strong> <script>alert(1)</script>plain`,
		})

		assert.NoError(t, err)
		f.comments.AssertExpectations(t)
	})

	t.Run("Markup Only Content Is Rejected", func(t *testing.T) {
		f := newFixture(t, false)
		user := &domain.User{ID: "u-1", Email: "u-1@example.com"}

		_, err := f.svc.Create(ctx, user, domain.CreateCommentInput{
			SubjectID:   "pkg-1",
			SubjectType: domain.SubjectPackage,
			Content:     "<script>alert(1)</script>",
		})

		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Errors, "content")
	})
}

func TestCommentShow(t *testing.T) {
	ctx := context.Background()

	t.Run("Approved Is Public", func(t *testing.T) {
		f := newFixture(t, false)
		existing := &domain.Comment{ID: uuid.New(), ThreadID: uuid.New(), State: domain.StateApproved, Content: "hi"}
		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()

		result, err := f.svc.Show(ctx, nil, existing.ID)

		assert.NoError(t, err)
		assert.Equal(t, "hi", result.Content)
	})

	t.Run("Draft Hidden From Anonymous", func(t *testing.T) {
		f := newFixture(t, false)
		existing := &domain.Comment{ID: uuid.New(), ThreadID: uuid.New(), State: domain.StateDraft}
		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()

		_, err := f.svc.Show(ctx, nil, existing.ID)

		var notAuthorized *domain.NotAuthorizedError
		assert.ErrorAs(t, err, &notAuthorized)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture(t, false)
		id := uuid.New()
		f.comments.On("GetByID", ctx, id).Return(nil, nil).Once()

		_, err := f.svc.Show(ctx, nil, id)

		var notFound *domain.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestCommentList(t *testing.T) {
	ctx := context.Background()

	packageComment := func(state string) domain.PackageComment {
		return domain.PackageComment{
			Comment: domain.Comment{
				ID:       uuid.New(),
				ThreadID: uuid.New(),
				Content:  "Great dataset!",
				State:    state,
			},
			DatasetID:    "pkg-1",
			DatasetName:  "dataset",
			DatasetTitle: "Dataset",
		}
	}

	t.Run("Requires Authentication", func(t *testing.T) {
		f := newFixture(t, false)

		_, err := f.svc.List(ctx, nil, domain.ListCommentsInput{})

		var notAuthorized *domain.NotAuthorizedError
		assert.ErrorAs(t, err, &notAuthorized)
	})

	t.Run("Signed In Sees Approved Only", func(t *testing.T) {
		f := newFixture(t, false)
		f.comments.On("ListForPackages", ctx, repository.PackageCommentListOptions{
			ApprovedOnly: true,
		}).Return([]domain.PackageComment{packageComment(domain.StateApproved)}, nil).Once()

		result, err := f.svc.List(ctx, &domain.User{ID: "u-1"}, domain.ListCommentsInput{})

		assert.NoError(t, err)
		assert.Len(t, result, 1)
		assert.Equal(t, "Dataset", result[0].DatasetTitle)
		assert.True(t, result[0].Approved)
		f.comments.AssertExpectations(t)
	})

	t.Run("Sysadmin Sees Drafts", func(t *testing.T) {
		f := newFixture(t, false)
		f.comments.On("ListForPackages", ctx, repository.PackageCommentListOptions{
			ApprovedOnly: false,
		}).Return([]domain.PackageComment{packageComment(domain.StateDraft)}, nil).Once()

		result, err := f.svc.List(ctx, &domain.User{ID: "admin", Sysadmin: true}, domain.ListCommentsInput{})

		assert.NoError(t, err)
		assert.Len(t, result, 1)
		assert.False(t, result[0].Approved)
	})

	t.Run("Filters By Publisher Organizations", func(t *testing.T) {
		f := newFixture(t, false)
		f.comments.On("ListForPackages", ctx, repository.PackageCommentListOptions{
			ApprovedOnly: true,
			MemberID:     "publisher-1",
		}).Return([]domain.PackageComment{}, nil).Once()

		result, err := f.svc.List(ctx, &domain.User{ID: "u-1"}, domain.ListCommentsInput{UserID: "publisher-1"})

		assert.NoError(t, err)
		assert.Empty(t, result)
		f.comments.AssertExpectations(t)
	})
}

func TestCommentModeration(t *testing.T) {
	ctx := context.Background()
	sysadmin := &domain.User{ID: "admin", Sysadmin: true}

	t.Run("Approve", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		existing := &domain.Comment{ID: uuid.New(), ThreadID: th.ID, State: domain.StateDraft}

		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()
		f.threads.On("GetByID", ctx, th.ID).Return(th, nil).Once()
		f.comments.On("UpdateState", ctx, mock.MatchedBy(func(c *domain.Comment) bool {
			return c.ID == existing.ID && c.State == domain.StateApproved
		})).Return(nil).Once()
		approved := record(f.dispatcher, signals.Approved)

		result, err := f.svc.Approve(ctx, sysadmin, existing.ID)

		assert.NoError(t, err)
		assert.True(t, result.Approved)
		assert.Len(t, *approved, 1)
		f.comments.AssertExpectations(t)
	})

	t.Run("Approve Requires Moderator", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		existing := &domain.Comment{ID: uuid.New(), ThreadID: th.ID, State: domain.StateDraft}

		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()
		f.threads.On("GetByID", ctx, th.ID).Return(th, nil).Once()

		_, err := f.svc.Approve(ctx, &domain.User{ID: "u-1"}, existing.ID)

		var notAuthorized *domain.NotAuthorizedError
		assert.ErrorAs(t, err, &notAuthorized)
	})

	t.Run("Draft", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		existing := &domain.Comment{ID: uuid.New(), ThreadID: th.ID, State: domain.StateApproved}

		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()
		f.threads.On("GetByID", ctx, th.ID).Return(th, nil).Once()
		f.comments.On("UpdateState", ctx, mock.MatchedBy(func(c *domain.Comment) bool {
			return c.State == domain.StateDraft
		})).Return(nil).Once()

		result, err := f.svc.Draft(ctx, sysadmin, existing.ID)

		assert.NoError(t, err)
		assert.False(t, result.Approved)
	})
}

func TestCommentUpdate(t *testing.T) {
	ctx := context.Background()
	sysadmin := &domain.User{ID: "admin", Sysadmin: true}

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		existing := &domain.Comment{ID: uuid.New(), ThreadID: th.ID, State: domain.StateDraft, Content: "old"}

		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()
		f.threads.On("GetByID", ctx, th.ID).Return(th, nil).Once()
		f.comments.On("UpdateContent", ctx, mock.MatchedBy(func(c *domain.Comment) bool {
			return c.Content == "new content"
		})).Return(nil).Once()
		updated := record(f.dispatcher, signals.Updated)

		result, err := f.svc.Update(ctx, sysadmin, existing.ID, domain.UpdateCommentInput{Content: "new content"})

		assert.NoError(t, err)
		assert.Equal(t, "new content", result.Content)
		assert.Len(t, *updated, 1)
	})

	t.Run("Approved Edits Disabled", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		existing := &domain.Comment{ID: uuid.New(), ThreadID: th.ID, State: domain.StateApproved, Content: "old"}

		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()
		f.threads.On("GetByID", ctx, th.ID).Return(th, nil).Once()

		_, err := f.svc.Update(ctx, sysadmin, existing.ID, domain.UpdateCommentInput{Content: "new"})

		var notAuthorized *domain.NotAuthorizedError
		assert.ErrorAs(t, err, &notAuthorized)
	})

	t.Run("Empty Content", func(t *testing.T) {
		f := newFixture(t, false)

		_, err := f.svc.Update(ctx, sysadmin, uuid.New(), domain.UpdateCommentInput{Content: "   "})

		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestCommentDelete(t *testing.T) {
	ctx := context.Background()
	sysadmin := &domain.User{ID: "admin", Sysadmin: true}

	t.Run("Success With Notice Extras", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		email := "guest@example.com"
		existing := &domain.Comment{ID: uuid.New(), ThreadID: th.ID, State: domain.StateDraft, Email: &email}

		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()
		f.threads.On("GetByID", ctx, th.ID).Return(th, nil).Once()
		f.comments.On("Delete", ctx, existing.ID).Return(nil).Once()
		deleted := record(f.dispatcher, signals.Deleted)

		_, err := f.svc.Delete(ctx, sysadmin, existing.ID, domain.DeleteCommentInput{
			Subject: "Removed",
			Body:    "Your comment was removed.",
		})

		assert.NoError(t, err)
		assert.Len(t, *deleted, 1)
		assert.Equal(t, "Removed", (*deleted)[0].Extras["subject"])
		assert.Equal(t, "Your comment was removed.", (*deleted)[0].Extras["body"])
		f.comments.AssertExpectations(t)
	})

	t.Run("Requires Moderator", func(t *testing.T) {
		f := newFixture(t, false)
		th := existingThread()
		existing := &domain.Comment{ID: uuid.New(), ThreadID: th.ID, State: domain.StateDraft}

		f.comments.On("GetByID", ctx, existing.ID).Return(existing, nil).Once()
		f.threads.On("GetByID", ctx, th.ID).Return(th, nil).Once()

		_, err := f.svc.Delete(ctx, &domain.User{ID: "u-1"}, existing.ID, domain.DeleteCommentInput{})

		var notAuthorized *domain.NotAuthorizedError
		assert.ErrorAs(t, err, &notAuthorized)
	})
}
