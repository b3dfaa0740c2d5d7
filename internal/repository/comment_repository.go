package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"portal-comments/internal/domain"
)

// CommentListOptions narrows and orders a thread listing. WithAuthor adds
// an eager join on the portal user table; it only changes how authors are
// loaded, never which comments come back or their order.
type CommentListOptions struct {
	NewestFirst  bool
	ApprovedOnly bool
	AfterDate    *time.Time
	WithAuthor   bool
}

// PackageCommentListOptions narrows the cross-dataset listing. MemberID
// limits the result to datasets owned by organizations the given portal
// user is an active member of.
type PackageCommentListOptions struct {
	ApprovedOnly bool
	MemberID     string
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	UpdateContent(ctx context.Context, comment *domain.Comment) error
	UpdateState(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByThread(ctx context.Context, threadID uuid.UUID, opts CommentListOptions) ([]domain.Comment, error)
	ListForPackages(ctx context.Context, opts PackageCommentListOptions) ([]domain.PackageComment, error)
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments
			(id, thread_id, content, author_id, author_type, state, reply_to_id, email, username, consent, extras)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		comment.ID, comment.ThreadID, comment.Content,
		comment.AuthorID, comment.AuthorType, comment.State,
		comment.ReplyToID, comment.Email, comment.Username, comment.Consent,
		comment.Extras,
	).Scan(&comment.CreatedAt)
	return err
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	query := `
		SELECT id, thread_id, content, author_id, author_type, state,
		       reply_to_id, email, username, consent, created_at, modified_at, extras
		FROM comments WHERE id = $1`
	err := r.db.GetContext(ctx, &comment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, comment *domain.Comment) error {
	query := `
		UPDATE comments
		SET content = $2, modified_at = NOW()
		WHERE id = $1
		RETURNING modified_at`

	return r.db.QueryRowxContext(ctx, query,
		comment.ID, comment.Content,
	).Scan(&comment.ModifiedAt)
}

func (r *commentRepository) UpdateState(ctx context.Context, comment *domain.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE comments SET state = $2 WHERE id = $1`,
		comment.ID, comment.State,
	)
	return err
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Replies go with the parent via ON DELETE CASCADE.
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}

// listByThreadQuery builds the thread listing statement. The after_date
// boundary is inclusive: a comment created exactly at the cutoff comes
// back.
func listByThreadQuery(threadID uuid.UUID, opts CommentListOptions) (string, []any) {
	var sb strings.Builder
	args := []any{threadID}

	sb.WriteString(`
		SELECT c.id, c.thread_id, c.content, c.author_id, c.author_type, c.state,
		       c.reply_to_id, c.email, c.username, c.consent, c.created_at, c.modified_at, c.extras`)
	if opts.WithAuthor {
		sb.WriteString(`,
		       u.id AS author_uid, u.name AS author_name, u.email AS author_email,
		       u.state AS author_state, u.sysadmin AS author_sysadmin`)
	}
	sb.WriteString(`
		FROM comments c`)
	if opts.WithAuthor {
		sb.WriteString(`
		LEFT JOIN "user" u ON c.author_type = 'user' AND u.id = c.author_id`)
	}
	sb.WriteString(`
		WHERE c.thread_id = $1`)

	if opts.ApprovedOnly {
		args = append(args, domain.StateApproved)
		sb.WriteString(` AND c.state = $` + strconv.Itoa(len(args)))
	}
	if opts.AfterDate != nil {
		args = append(args, *opts.AfterDate)
		sb.WriteString(` AND c.created_at >= $` + strconv.Itoa(len(args)))
	}

	if opts.NewestFirst {
		sb.WriteString(` ORDER BY c.created_at DESC`)
	} else {
		sb.WriteString(` ORDER BY c.created_at ASC`)
	}

	return sb.String(), args
}

func (r *commentRepository) ListByThread(ctx context.Context, threadID uuid.UUID, opts CommentListOptions) ([]domain.Comment, error) {
	query, args := listByThreadQuery(threadID, opts)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if opts.WithAuthor {
			var (
				uid, name, email, state *string
				sysadmin                *bool
			)
			err = rows.Scan(
				&c.ID, &c.ThreadID, &c.Content, &c.AuthorID, &c.AuthorType, &c.State,
				&c.ReplyToID, &c.Email, &c.Username, &c.Consent, &c.CreatedAt, &c.ModifiedAt, &c.Extras,
				&uid, &name, &email, &state, &sysadmin,
			)
			if err == nil && uid != nil {
				c.Author = &domain.Author{
					ID:    *uid,
					Name:  deref(name),
					Email: deref(email),
					State: deref(state),
				}
				if sysadmin != nil {
					c.Author.Sysadmin = *sysadmin
				}
			}
		} else {
			err = rows.Scan(
				&c.ID, &c.ThreadID, &c.Content, &c.AuthorID, &c.AuthorType, &c.State,
				&c.ReplyToID, &c.Email, &c.Username, &c.Consent, &c.CreatedAt, &c.ModifiedAt, &c.Extras,
			)
		}
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// listForPackagesQuery builds the cross-dataset listing: every comment
// whose thread hangs off an active dataset, joined with that dataset's
// metadata.
func listForPackagesQuery(opts PackageCommentListOptions) (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`
		SELECT c.id, c.thread_id, c.content, c.author_id, c.author_type, c.state,
		       c.reply_to_id, c.email, c.username, c.consent, c.created_at, c.modified_at, c.extras,
		       p.id AS dataset_id, p.name AS dataset_name, p.title AS dataset_title
		FROM comments c
		JOIN threads t ON t.id = c.thread_id AND t.subject_type = 'package'
		JOIN package p ON p.id = t.subject_id
		WHERE p.state = 'active'`)

	if opts.ApprovedOnly {
		args = append(args, domain.StateApproved)
		sb.WriteString(` AND c.state = $` + strconv.Itoa(len(args)))
	}
	if opts.MemberID != "" {
		args = append(args, opts.MemberID)
		sb.WriteString(` AND p.owner_org IN (
			SELECT m.group_id FROM member m
			WHERE m.table_name = 'user' AND m.table_id = $` + strconv.Itoa(len(args)) + ` AND m.state = 'active')`)
	}

	sb.WriteString(` ORDER BY c.created_at DESC`)
	return sb.String(), args
}

func (r *commentRepository) ListForPackages(ctx context.Context, opts PackageCommentListOptions) ([]domain.PackageComment, error) {
	query, args := listForPackagesQuery(opts)
	var comments []domain.PackageComment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, err
	}
	return comments, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
