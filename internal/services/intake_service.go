package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"auracoach/internal/logging"
	"auracoach/internal/models"
	"auracoach/internal/patterns"
)

// historyWindow is how many recent turns accompany a normal chat request.
const historyWindow = 10

// Fixed pipeline responses. The onboarding prompt, clarification re-prompt
// and extraction acknowledgement never come from the language model: those
// turns cost zero model calls and never touch the response cache.
const (
	onboardingPrompt = `Welcome! I'm your coach. Before we start, tell me a bit about yourself: ` +
		`your name, the goals you want to work on, and the coaching tone you'd like ` +
		`(encouraging, direct, gentle...).`

	clarificationPrompt = `I didn't quite catch enough to set up your profile. Could you tell me ` +
		`your name, at least one goal, and your preferred tone? For example: ` +
		`"My name is Alex. Goals: get fit; read more. Tone: encouraging"`
)

const coachSystemPrompt = `You are a supportive personal life coach. Keep replies short, concrete and actionable. Never invent facts about the user.`

// IntakeService routes each incoming chat turn: onboarding prompt,
// profile extraction, clarification, or a normal coached reply.
type IntakeService struct {
	profiles  ProfileStore
	turns     ConversationStore
	extractor *ExtractionService
	llm       LanguageModel
	cache     ResponseCache

	maxTokens int
	now       func() time.Time
}

// NewIntakeService creates a new intake service.
func NewIntakeService(
	profiles ProfileStore,
	turns ConversationStore,
	extractor *ExtractionService,
	llm LanguageModel,
	cache ResponseCache,
	maxTokens int,
) *IntakeService {
	return &IntakeService{
		profiles:  profiles,
		turns:     turns,
		extractor: extractor,
		llm:       llm,
		cache:     cache,
		maxTokens: maxTokens,
		now:       time.Now,
	}
}

// DeriveState computes the intake state for a turn. It is a pure function
// of (profile-exists, prior-turn-count, gate-check, confidence-after-
// extraction); nothing about the state machine is ever persisted.
func DeriveState(profileExists bool, priorTurns int, gateSignal bool, extracted bool, confidence models.Confidence) models.PipelineState {
	if !profileExists && priorTurns == 0 {
		return models.StateNeedsOnboarding
	}
	if !profileExists {
		if !gateSignal {
			return models.StateReady
		}
		if extracted && confidence == models.ConfidenceLow {
			return models.StateNeedsClarification
		}
		return models.StateAwaitingOnboardingReply
	}
	return models.StateReady
}

// HandleTurn processes one user turn end to end and returns the reply.
// Extraction results, when confident enough, are persisted before the
// response is returned.
func (s *IntakeService) HandleTurn(ctx context.Context, userID, text string) (models.TurnResult, error) {
	start := s.now()
	if m := GetMetrics(); m != nil {
		m.ChatRequests.Inc()
		defer func() { m.ChatRequestLatency.Observe(time.Since(start).Seconds()) }()
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return models.TurnResult{}, fmt.Errorf("profile lookup: %w", err)
	}

	prior, err := s.turns.GetRecentTurns(ctx, userID, historyWindow)
	if err != nil {
		return models.TurnResult{}, fmt.Errorf("history lookup: %w", err)
	}

	userTurn := models.ChatTurn{Text: text, Role: models.RoleUser, Timestamp: start}
	if err := s.turns.AppendTurn(ctx, userID, userTurn); err != nil {
		return models.TurnResult{}, fmt.Errorf("append turn: %w", err)
	}

	state := DeriveState(profile != nil, len(prior), patterns.HasOnboardingSignal(text), false, models.ConfidenceLow)
	logger := logging.WithTurn(userID, state.String())

	var result models.TurnResult
	switch state {
	case models.StateNeedsOnboarding:
		result = models.TurnResult{ResponseText: onboardingPrompt}

	case models.StateAwaitingOnboardingReply:
		result, err = s.handleOnboardingReply(ctx, logger, userID, text)

	default: // StateReady — either a profile exists or the turn has no onboarding signal
		result, err = s.handleChat(ctx, logger, userID, profile, prior, text)
	}
	if err != nil {
		return models.TurnResult{}, err
	}

	assistantTurn := models.ChatTurn{Text: result.ResponseText, Role: models.RoleAssistant, Timestamp: s.now()}
	if err := s.turns.AppendTurn(ctx, userID, assistantTurn); err != nil {
		return models.TurnResult{}, fmt.Errorf("append reply: %w", err)
	}

	return result, nil
}

// handleOnboardingReply runs the extractor against a turn that passed the
// gate-check. High/Medium confidence persists the fragment; Low asks for
// clarification instead.
func (s *IntakeService) handleOnboardingReply(ctx context.Context, logger *slog.Logger, userID, text string) (models.TurnResult, error) {
	extraction := s.extractor.Extract(text)

	if m := GetMetrics(); m != nil {
		m.Extractions.WithLabelValues(extraction.Confidence.String()).Inc()
	}
	logger.Info("onboarding extraction",
		"confidence", extraction.Confidence.String(),
		"goals", len(extraction.Goals),
		"warnings", len(extraction.Warnings))

	if extraction.Confidence == models.ConfidenceLow {
		return models.TurnResult{ResponseText: clarificationPrompt}, nil
	}

	fragment := s.extractor.FragmentFromResult(extraction, s.now())
	if _, err := s.profiles.UpsertProfile(ctx, userID, fragment); err != nil {
		return models.TurnResult{}, fmt.Errorf("persist profile: %w", err)
	}

	return models.TurnResult{
		ResponseText:   acknowledgement(extraction),
		ProfileUpdated: true,
	}, nil
}

// handleChat generates a normal coached reply, consulting the response
// cache before calling the language model.
func (s *IntakeService) handleChat(ctx context.Context, logger *slog.Logger, userID string, profile *models.Profile, history []models.ChatTurn, text string) (models.TurnResult, error) {
	if cached, ok := s.cache.Get(ctx, userID, text); ok {
		if m := GetMetrics(); m != nil {
			m.CacheHits.Inc()
		}
		logger.Debug("response cache hit")
		return models.TurnResult{ResponseText: cached}, nil
	}
	if m := GetMetrics(); m != nil {
		m.CacheMisses.Inc()
	}

	reply, err := s.llm.Generate(ctx, systemPromptFor(profile), history, text, s.maxTokens)
	if err != nil {
		logger.Error("language model call failed", "error", err)
		return models.TurnResult{}, err
	}

	s.cache.Set(ctx, userID, text, reply)
	return models.TurnResult{ResponseText: reply}, nil
}

// acknowledgement confirms a successful extraction without a model call.
func acknowledgement(extraction models.ExtractionResult) string {
	if extraction.HasName() {
		return fmt.Sprintf("Great to meet you, %s! I've saved your goals and we're ready to start. What would you like to work on first?", extraction.Summary)
	}
	return "Thanks! I've saved your goals and we're ready to start. What would you like to work on first?"
}

// systemPromptFor personalizes the coach prompt with the stored profile.
func systemPromptFor(profile *models.Profile) string {
	if profile == nil {
		return coachSystemPrompt
	}
	prompt := coachSystemPrompt
	if profile.Name != "" {
		prompt += fmt.Sprintf(" The user's name is %s.", profile.Name)
	}
	if len(profile.Goals) > 0 {
		prompt += fmt.Sprintf(" Their goals: %s.", strings.Join(profile.Goals, "; "))
	}
	if profile.Tone != "" {
		prompt += fmt.Sprintf(" Use a %s tone.", profile.Tone)
	}
	return prompt
}
