package service

import (
	"github.com/redis/go-redis/v9"

	"portal-comments/internal/authz"
	"portal-comments/internal/config"
	"portal-comments/internal/dictize"
	"portal-comments/internal/domain"
	"portal-comments/internal/moderation"
	"portal-comments/internal/repository"
	"portal-comments/internal/service/block"
	"portal-comments/internal/service/comment"
	"portal-comments/internal/service/email"
	"portal-comments/internal/service/notification"
	"portal-comments/internal/service/thread"
	"portal-comments/internal/signals"
)

type Services struct {
	Thread       thread.Service
	Comment      comment.Service
	Block        block.Service
	Email        email.Service
	Notification *notification.Service
	Moderation   *moderation.Service
	Dispatcher   *signals.Dispatcher
}

func NewServices(
	repos *repository.Repositories,
	redis *redis.Client,
	cfg *config.Config,
	subjects *domain.SubjectRegistry,
	authors *domain.AuthorRegistry,
	roles moderation.RoleSource,
	members moderation.OrgMembership,
) *Services {
	emailService := email.NewService(cfg)
	moderationService := moderation.NewService(cfg, roles, subjects, authors, members)
	dictizer := dictize.New(repos.Comment, authors, moderationService)
	authzService := authz.NewService(cfg, moderationService, authors)
	dispatcher := signals.NewDispatcher()

	blockService := block.NewService(repos.BlockedEntity, subjects, authzService, dictizer)
	threadService := thread.NewService(repos.Thread, blockService, subjects, authzService, dictizer, redis)
	commentService := comment.NewService(
		repos.Comment,
		repos.Thread,
		threadService,
		blockService,
		authors,
		moderationService,
		authzService,
		dictizer,
		dispatcher,
		redis,
	)

	notificationService := notification.NewService(cfg, emailService, repos.Thread, subjects, members)
	notificationService.Register(dispatcher)

	return &Services{
		Thread:       threadService,
		Comment:      commentService,
		Block:        blockService,
		Email:        emailService,
		Notification: notificationService,
		Moderation:   moderationService,
		Dispatcher:   dispatcher,
	}
}
