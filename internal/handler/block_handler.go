package handler

import (
	"github.com/gofiber/fiber/v2"

	"portal-comments/internal/domain"
	"portal-comments/internal/middleware"
	"portal-comments/internal/service/block"
)

type BlockHandler struct {
	blockService block.Service
}

func NewBlockHandler(blockService block.Service) *BlockHandler {
	return &BlockHandler{blockService: blockService}
}

func (h *BlockHandler) Create(c *fiber.Ctx) error {
	var input domain.BlockedEntityInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.blockService.Create(c.Context(), middleware.GetCurrentUser(c), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *BlockHandler) Show(c *fiber.Ctx) error {
	input := domain.BlockedEntityInput{
		SubjectID:   c.Query("subject_id"),
		SubjectType: c.Query("subject_type"),
	}

	result, err := h.blockService.Show(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *BlockHandler) Delete(c *fiber.Ctx) error {
	var input domain.BlockedEntityInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	result, err := h.blockService.Delete(c.Context(), middleware.GetCurrentUser(c), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
