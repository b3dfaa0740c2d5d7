package dictize_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"portal-comments/internal/dictize"
	"portal-comments/internal/domain"
	"portal-comments/internal/mocks"
	"portal-comments/internal/repository"
)

type stubModerator bool

func (s stubModerator) IsModerator(ctx context.Context, user *domain.User, comment *domain.Comment, thread *domain.Thread) bool {
	return bool(s)
}

func newAuthors(getter domain.AuthorGetter) *domain.AuthorRegistry {
	registry := domain.NewAuthorRegistry()
	if getter != nil {
		registry.Register(domain.AuthorTypeUser, getter)
	}
	return registry
}

func TestCombine(t *testing.T) {
	id := func() uuid.UUID { return uuid.New() }

	t.Run("Nested Replies", func(t *testing.T) {
		c1 := &dictize.Comment{ID: id()}
		c2 := &dictize.Comment{ID: id(), ReplyToID: &c1.ID}
		c3 := &dictize.Comment{ID: id(), ReplyToID: &c2.ID}

		roots := dictize.Combine([]*dictize.Comment{c1, c2, c3})

		assert.Len(t, roots, 1)
		assert.Equal(t, c1.ID, roots[0].ID)
		assert.Len(t, roots[0].Replies, 1)
		assert.Equal(t, c2.ID, roots[0].Replies[0].ID)
		assert.Len(t, roots[0].Replies[0].Replies, 1)
		assert.Equal(t, c3.ID, roots[0].Replies[0].Replies[0].ID)
	})

	t.Run("Reply Before Parent", func(t *testing.T) {
		c1 := &dictize.Comment{ID: id()}
		c2 := &dictize.Comment{ID: id(), ReplyToID: &c1.ID}

		roots := dictize.Combine([]*dictize.Comment{c2, c1})

		assert.Len(t, roots, 1)
		assert.Equal(t, c1.ID, roots[0].ID)
		assert.Len(t, roots[0].Replies, 1)
	})

	t.Run("Orphan Surfaces As Root", func(t *testing.T) {
		missing := id()
		c1 := &dictize.Comment{ID: id()}
		orphan := &dictize.Comment{ID: id(), ReplyToID: &missing}

		roots := dictize.Combine([]*dictize.Comment{c1, orphan})

		assert.Len(t, roots, 2)
		assert.Equal(t, c1.ID, roots[0].ID)
		assert.Equal(t, orphan.ID, roots[1].ID)
		assert.Empty(t, orphan.Replies)
	})

	t.Run("Empty Input", func(t *testing.T) {
		assert.Empty(t, dictize.Combine(nil))
	})
}

func TestDictizeComment(t *testing.T) {
	ctx := context.Background()
	comment := &domain.Comment{
		ID:         uuid.New(),
		ThreadID:   uuid.New(),
		Content:    "hello",
		AuthorID:   "u-1",
		AuthorType: domain.AuthorTypeUser,
		State:      domain.StateApproved,
	}

	t.Run("Without Author", func(t *testing.T) {
		d := dictize.New(nil, newAuthors(nil), stubModerator(false))
		out := d.Comment(ctx, comment, dictize.Options{})

		assert.Equal(t, comment.ID, out.ID)
		assert.True(t, out.Approved)
		assert.Nil(t, out.Author)
	})

	t.Run("With Author", func(t *testing.T) {
		authors := newAuthors(func(ctx context.Context, id string) (*domain.Author, error) {
			return &domain.Author{ID: id, Name: "alice"}, nil
		})
		d := dictize.New(nil, authors, stubModerator(false))
		out := d.Comment(ctx, comment, dictize.Options{IncludeAuthor: true})

		assert.NotNil(t, out.Author)
		assert.Equal(t, "alice", out.Author.Name)
	})

	t.Run("Author Lookup Failure Is Tolerated", func(t *testing.T) {
		authors := newAuthors(func(ctx context.Context, id string) (*domain.Author, error) {
			return nil, errors.New("directory down")
		})
		d := dictize.New(nil, authors, stubModerator(false))
		out := d.Comment(ctx, comment, dictize.Options{IncludeAuthor: true})

		assert.Nil(t, out.Author)
		assert.Equal(t, comment.Content, out.Content)
	})

	t.Run("Prefers Preloaded Author", func(t *testing.T) {
		preloaded := &domain.Comment{
			ID:         uuid.New(),
			AuthorID:   "u-2",
			AuthorType: domain.AuthorTypeUser,
			State:      domain.StateDraft,
			Author:     &domain.Author{ID: "u-2", Name: "bob"},
		}
		d := dictize.New(nil, newAuthors(nil), stubModerator(false))
		out := d.Comment(ctx, preloaded, dictize.Options{IncludeAuthor: true})

		assert.NotNil(t, out.Author)
		assert.Equal(t, "bob", out.Author.Name)
		assert.False(t, out.Approved)
	})
}

func TestDictizeThread(t *testing.T) {
	ctx := context.Background()
	thread := &domain.Thread{
		ID:          uuid.New(),
		SubjectID:   "pkg-1",
		SubjectType: domain.SubjectPackage,
	}

	t.Run("Without Comments", func(t *testing.T) {
		d := dictize.New(nil, newAuthors(nil), stubModerator(false))
		out, err := d.Thread(ctx, thread, nil, dictize.Options{})

		assert.NoError(t, err)
		assert.Equal(t, thread.ID, out.ID)
		assert.Nil(t, out.Comments)
	})

	t.Run("Stub Thread Has Empty Comments", func(t *testing.T) {
		stub := &domain.Thread{SubjectID: "pkg-1", SubjectType: domain.SubjectPackage}
		d := dictize.New(nil, newAuthors(nil), stubModerator(false))
		out, err := d.Thread(ctx, stub, nil, dictize.Options{IncludeComments: true})

		assert.NoError(t, err)
		assert.NotNil(t, out.Comments)
		assert.Empty(t, out.Comments)
	})

	t.Run("Anonymous Sees Approved Only", func(t *testing.T) {
		lister := new(mocks.CommentRepository)
		lister.On("ListByThread", ctx, thread.ID, mock.MatchedBy(func(opts repository.CommentListOptions) bool {
			return opts.ApprovedOnly
		})).Return([]domain.Comment{
			{ID: uuid.New(), ThreadID: thread.ID, State: domain.StateApproved},
		}, nil).Once()

		d := dictize.New(lister, newAuthors(nil), stubModerator(false))
		out, err := d.Thread(ctx, thread, nil, dictize.Options{IncludeComments: true})

		assert.NoError(t, err)
		assert.Len(t, out.Comments, 1)
		lister.AssertExpectations(t)
	})

	t.Run("Moderator Sees Drafts", func(t *testing.T) {
		user := &domain.User{ID: "u-1", Sysadmin: true}
		lister := new(mocks.CommentRepository)
		lister.On("ListByThread", ctx, thread.ID, mock.MatchedBy(func(opts repository.CommentListOptions) bool {
			return !opts.ApprovedOnly
		})).Return([]domain.Comment{
			{ID: uuid.New(), ThreadID: thread.ID, State: domain.StateDraft},
		}, nil).Once()

		d := dictize.New(lister, newAuthors(nil), stubModerator(true))
		out, err := d.Thread(ctx, thread, user, dictize.Options{IncludeComments: true})

		assert.NoError(t, err)
		assert.Len(t, out.Comments, 1)
		lister.AssertExpectations(t)
	})

	t.Run("IgnoreAuth Sees Everything", func(t *testing.T) {
		lister := new(mocks.CommentRepository)
		lister.On("ListByThread", ctx, thread.ID, mock.MatchedBy(func(opts repository.CommentListOptions) bool {
			return !opts.ApprovedOnly
		})).Return([]domain.Comment{}, nil).Once()

		d := dictize.New(lister, newAuthors(nil), stubModerator(false))
		_, err := d.Thread(ctx, thread, nil, dictize.Options{IncludeComments: true, IgnoreAuth: true})

		assert.NoError(t, err)
		lister.AssertExpectations(t)
	})

	t.Run("Passes Ordering And Date Filter", func(t *testing.T) {
		after := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		lister := new(mocks.CommentRepository)
		lister.On("ListByThread", ctx, thread.ID, mock.MatchedBy(func(opts repository.CommentListOptions) bool {
			return opts.NewestFirst && opts.AfterDate != nil && opts.AfterDate.Equal(after)
		})).Return([]domain.Comment{}, nil).Once()

		d := dictize.New(lister, newAuthors(nil), stubModerator(false))
		_, err := d.Thread(ctx, thread, nil, dictize.Options{
			IncludeComments: true,
			NewestFirst:     true,
			AfterDate:       &after,
		})

		assert.NoError(t, err)
		lister.AssertExpectations(t)
	})

	t.Run("Combines Replies", func(t *testing.T) {
		rootID := uuid.New()
		lister := new(mocks.CommentRepository)
		lister.On("ListByThread", ctx, thread.ID, mock.Anything).Return([]domain.Comment{
			{ID: rootID, ThreadID: thread.ID, State: domain.StateApproved},
			{ID: uuid.New(), ThreadID: thread.ID, State: domain.StateApproved, ReplyToID: &rootID},
		}, nil).Once()

		d := dictize.New(lister, newAuthors(nil), stubModerator(false))
		out, err := d.Thread(ctx, thread, nil, dictize.Options{IncludeComments: true, CombineComments: true})

		assert.NoError(t, err)
		assert.Len(t, out.Comments, 1)
		assert.Len(t, out.Comments[0].Replies, 1)
	})
}
