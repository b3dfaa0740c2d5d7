// Package authz holds the per-action authorization gates and the
// edit-permission matrix.
package authz

import (
	"context"
	"log"

	"portal-comments/internal/config"
	"portal-comments/internal/domain"
	"portal-comments/internal/moderation"
)

type Service struct {
	cfg     *config.Config
	mod     *moderation.Service
	authors *domain.AuthorRegistry
}

func NewService(cfg *config.Config, mod *moderation.Service, authors *domain.AuthorRegistry) *Service {
	return &Service{cfg: cfg, mod: mod, authors: authors}
}

// CanShowComment: approved comments are public, drafts are visible only
// to their author.
func (s *Service) CanShowComment(ctx context.Context, user *domain.User, comment *domain.Comment) error {
	if comment.IsApproved() {
		return nil
	}
	if user != nil && s.authoredBy(ctx, comment, user) {
		return nil
	}
	return domain.NotAuthorized("comment is awaiting moderation")
}

// CanModerate gates approve and draft.
func (s *Service) CanModerate(ctx context.Context, user *domain.User, comment *domain.Comment, thread *domain.Thread) error {
	if user == nil || !s.mod.IsModerator(ctx, user, comment, thread) {
		return domain.NotAuthorized("moderator access required")
	}
	return nil
}

// CanEditComment gates update and delete. The caller must be a moderator;
// the matrix then decides by state and whether the moderator also wrote
// the comment.
func (s *Service) CanEditComment(ctx context.Context, user *domain.User, comment *domain.Comment, thread *domain.Thread) error {
	if err := s.CanModerate(ctx, user, comment, thread); err != nil {
		return err
	}
	if !s.canEdit(comment.State, s.authoredBy(ctx, comment, user)) {
		return domain.NotAuthorized("comment edits are disabled for this state")
	}
	return nil
}

func (s *Service) CanDeleteThread(user *domain.User) error {
	if user == nil || !user.Sysadmin {
		return domain.NotAuthorized("only sysadmins can delete threads")
	}
	return nil
}

func (s *Service) CanManageBlocks(user *domain.User) error {
	if user == nil || !user.Sysadmin {
		return domain.NotAuthorized("only sysadmins can manage blocked entities")
	}
	return nil
}

func (s *Service) canEdit(state string, byAuthor bool) bool {
	switch state {
	case domain.StateDraft:
		if byAuthor {
			return s.cfg.DraftEditsByAuthor
		}
		return s.cfg.DraftEdits
	case domain.StateApproved:
		if byAuthor {
			return s.cfg.ApprovedEditsByAuthor
		}
		return s.cfg.ApprovedEdits
	}
	log.Printf("authz: unexpected comment state: %s", state)
	return false
}

func (s *Service) authoredBy(ctx context.Context, comment *domain.Comment, user *domain.User) bool {
	if user == nil || comment.AuthorID == "" {
		return false
	}
	author := comment.Author
	if author == nil {
		resolved, err := s.authors.Resolve(ctx, comment.AuthorType, comment.AuthorID)
		if err != nil {
			log.Printf("authz: author lookup failed for comment %s: %v", comment.ID, err)
			return false
		}
		author = resolved
	}
	return comment.IsAuthoredBy(author, user.ID) || comment.IsAuthoredBy(author, user.Name)
}
