package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"portal-comments/internal/dictize"
	"portal-comments/internal/domain"
	"portal-comments/internal/middleware"
	"portal-comments/internal/service/thread"
)

type ThreadHandler struct {
	threadService thread.Service
}

func NewThreadHandler(threadService thread.Service) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

func (h *ThreadHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateThreadInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.threadService.Create(c.Context(), middleware.GetCurrentUser(c), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *ThreadHandler) Show(c *fiber.Ctx) error {
	opts := thread.ShowOptions{
		InitMissing: c.QueryBool("init_missing"),
		Options: dictize.Options{
			IncludeComments: c.QueryBool("include_comments"),
			IncludeAuthor:   c.QueryBool("include_author"),
			CombineComments: c.QueryBool("combine_comments"),
			NewestFirst:     c.QueryBool("newest_first"),
		},
	}

	if raw := c.Query("after_date"); raw != "" {
		after, err := parseDate(raw)
		if err != nil {
			return middleware.BadRequest("Invalid after_date")
		}
		opts.AfterDate = &after
	}

	result, err := h.threadService.Show(c.Context(), middleware.GetCurrentUser(c),
		c.Query("subject_id"), c.Query("subject_type"), opts)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ThreadHandler) Delete(c *fiber.Ctx) error {
	threadID, err := uuid.Parse(c.Params("threadId"))
	if err != nil {
		return middleware.BadRequest("Invalid thread ID")
	}

	result, err := h.threadService.Delete(c.Context(), middleware.GetCurrentUser(c), threadID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func parseDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}
