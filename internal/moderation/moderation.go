// Package moderation decides who may moderate a thread and whether a new
// comment skips the draft queue. Role and membership lookups are external
// collaborators; their failures are logged and treated as "no", so a
// broken directory can never block comment creation.
package moderation

import (
	"context"
	"log"

	"portal-comments/internal/config"
	"portal-comments/internal/domain"
)

// RoleSource lists the directory roles held by a portal user. A nil
// RoleSource means no role information is available.
type RoleSource interface {
	RolesByAuthor(ctx context.Context, authorID string) ([]string, error)
}

// OrgMembership resolves the notification/moderation audience of an
// organization.
type OrgMembership interface {
	EditorEmails(ctx context.Context, orgID string) ([]string, error)
}

// Checker overrides the default moderator predicate.
type Checker func(ctx context.Context, user *domain.User, comment *domain.Comment, thread *domain.Thread) bool

type Service struct {
	cfg      *config.Config
	roles    RoleSource
	subjects *domain.SubjectRegistry
	authors  *domain.AuthorRegistry
	members  OrgMembership
	checker  Checker
}

func NewService(cfg *config.Config, roles RoleSource, subjects *domain.SubjectRegistry, authors *domain.AuthorRegistry, members OrgMembership) *Service {
	return &Service{
		cfg:      cfg,
		roles:    roles,
		subjects: subjects,
		authors:  authors,
		members:  members,
	}
}

// SetChecker installs a custom moderator predicate. The default one is
// role-based plus the sysadmin flag.
func (s *Service) SetChecker(checker Checker) {
	s.checker = checker
}

// IsModerator reports whether the user may moderate the thread's subject.
func (s *Service) IsModerator(ctx context.Context, user *domain.User, comment *domain.Comment, thread *domain.Thread) bool {
	if user == nil {
		return false
	}
	if s.checker != nil {
		return s.checker(ctx, user, comment, thread)
	}
	if user.Sysadmin {
		return true
	}
	author := &domain.Author{ID: user.ID, Name: user.Name, Email: user.Email}
	return s.approvableByRole(ctx, author, thread.SubjectID)
}

// AutoApprove applies the creation-time approval rule in place. It never
// returns an error: a failed lookup leaves the comment in draft.
func (s *Service) AutoApprove(ctx context.Context, author *domain.Author, comment *domain.Comment, subjectID string) {
	if !s.cfg.RequireApproval {
		comment.Approve()
		return
	}
	if author == nil {
		return
	}
	if s.approvableByRole(ctx, author, subjectID) {
		comment.Approve()
	}
}

func (s *Service) approvableByRole(ctx context.Context, author *domain.Author, subjectID string) bool {
	if s.roles == nil || author == nil {
		return false
	}
	roles, err := s.roles.RolesByAuthor(ctx, author.ID)
	if err != nil {
		log.Printf("moderation: role lookup failed for %s: %v", author.ID, err)
		return false
	}
	for _, role := range roles {
		if role == s.cfg.RoleAdministrator || role == s.cfg.RoleContributor {
			return true
		}
		if role == s.cfg.RolePublisher && s.sameOrganization(ctx, author, subjectID) {
			return true
		}
	}
	return false
}

// sameOrganization reports whether the author's directory email matches
// an active editor-capacity member of the owning organization of the
// commented dataset.
func (s *Service) sameOrganization(ctx context.Context, author *domain.Author, subjectID string) bool {
	if s.members == nil || author.Email == "" {
		return false
	}
	subject, err := s.subjects.Resolve(ctx, domain.SubjectPackage, subjectID)
	if err != nil || subject == nil || subject.OwnerOrg == "" {
		if err != nil {
			log.Printf("moderation: subject lookup failed for %s: %v", subjectID, err)
		}
		return false
	}
	emails, err := s.members.EditorEmails(ctx, subject.OwnerOrg)
	if err != nil {
		log.Printf("moderation: membership lookup failed for org %s: %v", subject.OwnerOrg, err)
		return false
	}
	for _, email := range emails {
		if email == author.Email {
			return true
		}
	}
	return false
}
