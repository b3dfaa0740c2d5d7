// Package dictize projects persisted records into response structures,
// applying read-time policy: moderation visibility, date filtering,
// ordering and reply-tree combination.
package dictize

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"portal-comments/internal/domain"
	"portal-comments/internal/repository"
)

// Options are the read options threaded through thread_show.
type Options struct {
	IncludeComments bool
	IncludeAuthor   bool
	CombineComments bool
	NewestFirst     bool
	AfterDate       *time.Time
	IgnoreAuth      bool
}

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Comment struct {
	ID         uuid.UUID     `json:"id"`
	ThreadID   uuid.UUID     `json:"thread_id"`
	Content    string        `json:"content"`
	AuthorID   string        `json:"author_id"`
	AuthorType string        `json:"author_type"`
	State      string        `json:"state"`
	ReplyToID  *uuid.UUID    `json:"reply_to_id"`
	Email      *string       `json:"email"`
	Username   *string       `json:"username"`
	Consent    *bool         `json:"consent"`
	CreatedAt  time.Time     `json:"created_at"`
	ModifiedAt *time.Time    `json:"modified_at"`
	Extras     domain.Extras `json:"extras"`
	Approved   bool          `json:"approved"`
	Author     *Author       `json:"author,omitempty"`
	Replies    []*Comment    `json:"replies,omitempty"`
}

// PackageComment is a comment flattened with the dataset it was left on.
type PackageComment struct {
	Comment
	DatasetID    string `json:"dataset_id"`
	DatasetName  string `json:"dataset_name"`
	DatasetTitle string `json:"dataset_title"`
}

type Thread struct {
	ID          uuid.UUID  `json:"id"`
	SubjectID   string     `json:"subject_id"`
	SubjectType string     `json:"subject_type"`
	CreatedAt   time.Time  `json:"created_at"`
	Comments    []*Comment `json:"comments"`
}

type BlockedEntity struct {
	ID          uuid.UUID `json:"id"`
	SubjectID   string    `json:"subject_id"`
	SubjectType string    `json:"subject_type"`
	BlockedAt   time.Time `json:"blocked_at"`
}

type CommentLister interface {
	ListByThread(ctx context.Context, threadID uuid.UUID, opts repository.CommentListOptions) ([]domain.Comment, error)
}

type ModeratorChecker interface {
	IsModerator(ctx context.Context, user *domain.User, comment *domain.Comment, thread *domain.Thread) bool
}

type Dictizer struct {
	comments  CommentLister
	authors   *domain.AuthorRegistry
	moderator ModeratorChecker
}

func New(comments CommentLister, authors *domain.AuthorRegistry, moderator ModeratorChecker) *Dictizer {
	return &Dictizer{comments: comments, authors: authors, moderator: moderator}
}

// Comment projects a single comment. Author resolution failures are
// logged and leave the author empty; a read must never fail because a
// portal account went away.
func (d *Dictizer) Comment(ctx context.Context, c *domain.Comment, opts Options) *Comment {
	out := &Comment{
		ID:         c.ID,
		ThreadID:   c.ThreadID,
		Content:    c.Content,
		AuthorID:   c.AuthorID,
		AuthorType: c.AuthorType,
		State:      c.State,
		ReplyToID:  c.ReplyToID,
		Email:      c.Email,
		Username:   c.Username,
		Consent:    c.Consent,
		CreatedAt:  c.CreatedAt,
		ModifiedAt: c.ModifiedAt,
		Extras:     c.Extras,
		Approved:   c.IsApproved(),
	}
	if opts.IncludeAuthor {
		author := c.Author
		if author == nil && c.AuthorID != "" {
			resolved, err := d.authors.Resolve(ctx, c.AuthorType, c.AuthorID)
			if err != nil {
				log.Printf("dictize: missing author for comment %s: %v", c.ID, err)
			}
			author = resolved
		}
		if author != nil {
			out.Author = &Author{ID: author.ID, Name: author.Name}
		} else if c.AuthorID != "" {
			log.Printf("dictize: missing author for comment %s", c.ID)
		}
	}
	return out
}

func (d *Dictizer) PackageComment(ctx context.Context, pc *domain.PackageComment, opts Options) *PackageComment {
	return &PackageComment{
		Comment:      *d.Comment(ctx, &pc.Comment, opts),
		DatasetID:    pc.DatasetID,
		DatasetName:  pc.DatasetName,
		DatasetTitle: pc.DatasetTitle,
	}
}

// Thread projects a thread and, on request, its comments with the
// moderation visibility filter applied: the public sees approved comments
// only, moderators and ignore_auth see everything.
func (d *Dictizer) Thread(ctx context.Context, t *domain.Thread, user *domain.User, opts Options) (*Thread, error) {
	out := &Thread{
		ID:          t.ID,
		SubjectID:   t.SubjectID,
		SubjectType: t.SubjectType,
		CreatedAt:   t.CreatedAt,
	}
	if !opts.IncludeComments {
		return out, nil
	}

	out.Comments = []*Comment{}
	if !t.Persisted() {
		return out, nil
	}

	listOpts := repository.CommentListOptions{
		NewestFirst:  opts.NewestFirst,
		AfterDate:    opts.AfterDate,
		WithAuthor:   opts.IncludeAuthor,
		ApprovedOnly: d.approvedOnly(ctx, user, t, opts),
	}
	comments, err := d.comments.ListByThread(ctx, t.ID, listOpts)
	if err != nil {
		return nil, err
	}

	for i := range comments {
		out.Comments = append(out.Comments, d.Comment(ctx, &comments[i], opts))
	}
	if opts.CombineComments {
		out.Comments = Combine(out.Comments)
	}
	return out, nil
}

func (d *Dictizer) approvedOnly(ctx context.Context, user *domain.User, t *domain.Thread, opts Options) bool {
	if opts.IgnoreAuth {
		return false
	}
	if user == nil {
		return true
	}
	return !d.moderator.IsModerator(ctx, user, nil, t)
}

func (d *Dictizer) BlockedEntity(b *domain.BlockedEntity) *BlockedEntity {
	return &BlockedEntity{
		ID:          b.ID,
		SubjectID:   b.SubjectID,
		SubjectType: b.SubjectType,
		BlockedAt:   b.BlockedAt,
	}
}

// Combine restructures a flat, ordered comment list into a forest keyed
// by reply_to_id. Children keep the flat-list order. A reply whose parent
// is absent from the list (filtered out, or deleted out from under it)
// surfaces as a root instead of being dropped, and replies may appear
// before their parent in the input.
func Combine(comments []*Comment) []*Comment {
	byID := make(map[uuid.UUID]*Comment, len(comments))
	for _, comment := range comments {
		comment.Replies = []*Comment{}
		byID[comment.ID] = comment
	}

	roots := []*Comment{}
	for _, comment := range comments {
		if comment.ReplyToID == nil {
			roots = append(roots, comment)
			continue
		}
		parent, ok := byID[*comment.ReplyToID]
		if !ok {
			roots = append(roots, comment)
			continue
		}
		parent.Replies = append(parent.Replies, comment)
	}
	return roots
}
