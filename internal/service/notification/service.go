// Package notification turns comment lifecycle signals into email. All
// sending is best-effort: failures are logged and never reach the caller
// whose mutation already committed.
package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"portal-comments/internal/config"
	"portal-comments/internal/domain"
	"portal-comments/internal/moderation"
	"portal-comments/internal/signals"
)

type ThreadGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Thread, error)
}

type Service struct {
	cfg      *config.Config
	email    Email
	threads  ThreadGetter
	subjects *domain.SubjectRegistry
	members  moderation.OrgMembership
}

// Email is the slice of the mail sender this package needs.
type Email interface {
	SendCommentReceived(ctx context.Context, toEmail, content string) error
	SendOrganizationNotice(ctx context.Context, toEmails []string, datasetTitle, datasetURL, authorName, authorEmail, content string, createdAt time.Time) error
	SendCommentApproved(ctx context.Context, toEmail, username, datasetTitle, datasetURL, content string) error
	SendCommentDeleted(ctx context.Context, toEmail, subject, body string) error
}

func NewService(cfg *config.Config, email Email, threads ThreadGetter, subjects *domain.SubjectRegistry, members moderation.OrgMembership) *Service {
	return &Service{
		cfg:      cfg,
		email:    email,
		threads:  threads,
		subjects: subjects,
		members:  members,
	}
}

// Register subscribes the mail fan-out to the lifecycle signals.
func (s *Service) Register(dispatcher *signals.Dispatcher) {
	dispatcher.Subscribe(signals.Created, s.onCreated)
	dispatcher.Subscribe(signals.Approved, s.onApproved)
	dispatcher.Subscribe(signals.Deleted, s.onDeleted)
}

func (s *Service) onCreated(ctx context.Context, payload signals.Payload) {
	comment := payload.Comment
	if comment == nil {
		return
	}

	if addr := deref(comment.Email); addr != "" {
		if err := s.email.SendCommentReceived(ctx, addr, comment.Content); err != nil {
			log.Printf("notification: author mail failed for comment %s: %v", comment.ID, err)
		}
	}

	subject := s.packageFor(ctx, payload.ThreadID)
	if subject == nil || subject.OwnerOrg == "" {
		return
	}
	recipients, err := s.members.EditorEmails(ctx, subject.OwnerOrg)
	if err != nil {
		log.Printf("notification: member lookup failed for org %s: %v", subject.OwnerOrg, err)
		return
	}
	if len(recipients) == 0 {
		return
	}
	err = s.email.SendOrganizationNotice(ctx, recipients,
		subject.Title, s.datasetURL(subject),
		deref(comment.Username), deref(comment.Email),
		comment.Content, comment.CreatedAt,
	)
	if err != nil {
		log.Printf("notification: organization mail failed for comment %s: %v", comment.ID, err)
	}
}

func (s *Service) onApproved(ctx context.Context, payload signals.Payload) {
	comment := payload.Comment
	if comment == nil {
		return
	}
	addr := deref(comment.Email)
	if addr == "" {
		return
	}

	username := deref(comment.Username)
	if username == "" {
		username = addr
	}

	title, url := "", s.cfg.SiteURL
	if subject := s.packageFor(ctx, payload.ThreadID); subject != nil {
		title = subject.Title
		url = s.datasetURL(subject)
	}

	if err := s.email.SendCommentApproved(ctx, addr, username, title, url, comment.Content); err != nil {
		log.Printf("notification: approval mail failed for comment %s: %v", comment.ID, err)
	}
}

func (s *Service) onDeleted(ctx context.Context, payload signals.Payload) {
	comment := payload.Comment
	if comment == nil {
		return
	}
	subject := payload.Extras["subject"]
	body := payload.Extras["body"]
	addr := deref(comment.Email)
	if subject == "" || body == "" || addr == "" {
		return
	}
	if err := s.email.SendCommentDeleted(ctx, addr, subject, body); err != nil {
		log.Printf("notification: deletion mail failed for comment %s: %v", comment.ID, err)
	}
}

// packageFor resolves the dataset behind a thread, or nil when the thread
// is gone or attached to a non-dataset subject.
func (s *Service) packageFor(ctx context.Context, threadID uuid.UUID) *domain.Subject {
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil || thread == nil {
		if err != nil {
			log.Printf("notification: thread lookup failed for %s: %v", threadID, err)
		}
		return nil
	}
	if thread.SubjectType != domain.SubjectPackage {
		return nil
	}
	subject, err := s.subjects.Resolve(ctx, thread.SubjectType, thread.SubjectID)
	if err != nil {
		log.Printf("notification: subject lookup failed for thread %s: %v", threadID, err)
		return nil
	}
	return subject
}

func (s *Service) datasetURL(subject *domain.Subject) string {
	return fmt.Sprintf("%s/dataset/%s", s.cfg.SiteURL, subject.Name)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
