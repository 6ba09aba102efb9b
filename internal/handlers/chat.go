package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"auracoach/internal/services"
)

// ChatHandler handles chat turn requests
type ChatHandler struct {
	intake *services.IntakeService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(intake *services.IntakeService) *ChatHandler {
	return &ChatHandler{intake: intake}
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Handle processes POST /api/chat
func (h *ChatHandler) Handle(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and message are required"})
	}

	result, err := h.intake.HandleTurn(c.Context(), req.UserID, req.Message)
	if err != nil {
		// Internals stay in the logs; the user gets a generic failure.
		log.Printf("⚠️ [CHAT] Turn failed for user %s: %v", req.UserID, err)
		if errors.Is(err, services.ErrModelUnavailable) {
			if m := services.GetMetrics(); m != nil {
				m.ChatErrors.WithLabelValues("model_unavailable").Inc()
			}
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "I'm having trouble responding right now. Please try again in a moment.",
			})
		}
		if m := services.GetMetrics(); m != nil {
			m.ChatErrors.WithLabelValues("internal").Inc()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong processing your message",
		})
	}

	return c.JSON(result)
}
