package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"auracoach/internal/services"
)

// SuggestionHandler serves classified suggestions
type SuggestionHandler struct {
	suggestions *services.SuggestionService
	scheduler   *services.SuggestionScheduler
	turns       services.ConversationStore
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(
	suggestions *services.SuggestionService,
	scheduler *services.SuggestionScheduler,
	turns services.ConversationStore,
) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, scheduler: scheduler, turns: turns}
}

// Handle processes GET /api/suggestions/:userID. A precomputed suggestion
// is served when available; otherwise classification runs on demand.
func (h *SuggestionHandler) Handle(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userID is required"})
	}

	if h.scheduler != nil {
		if suggestion := h.scheduler.Latest(userID); suggestion != nil {
			return c.JSON(suggestion)
		}
	}

	turns, err := h.turns.GetRecentTurns(c.Context(), userID, 10)
	if err != nil {
		log.Printf("⚠️ [SUGGESTION] Failed to load turns for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load conversation"})
	}

	suggestion, err := h.suggestions.Classify(c.Context(), userID, turns)
	if err != nil {
		log.Printf("⚠️ [SUGGESTION] Classification failed for %s: %v", userID, err)
		if errors.Is(err, services.ErrModelUnavailable) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "suggestions are temporarily unavailable"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to classify suggestion"})
	}
	if suggestion == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(suggestion)
}
