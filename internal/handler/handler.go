package handler

import "portal-comments/internal/service"

type Handlers struct {
	Thread  *ThreadHandler
	Comment *CommentHandler
	Block   *BlockHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Thread:  NewThreadHandler(services.Thread),
		Comment: NewCommentHandler(services.Comment),
		Block:   NewBlockHandler(services.Block),
	}
}
