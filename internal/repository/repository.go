package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Thread        ThreadRepository
	Comment       CommentRepository
	BlockedEntity BlockedEntityRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Thread:        NewThreadRepository(db),
		Comment:       NewCommentRepository(db),
		BlockedEntity: NewBlockedEntityRepository(db),
	}
}
