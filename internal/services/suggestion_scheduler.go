package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"auracoach/internal/models"
)

// SuggestionScheduler precomputes suggestions for recently active users in
// the background. Suggestions are advisory and non-blocking for the main
// chat reply, so this runs entirely outside the request path; the chat
// endpoint serves the latest precomputed result.
type SuggestionScheduler struct {
	scheduler   gocron.Scheduler
	suggestions *SuggestionService
	turns       ConversationStore
	latest      *gocache.Cache // userID -> *models.Suggestion
	interval    time.Duration
	window      time.Duration
	instanceID  string
}

// NewSuggestionScheduler creates the background precompute job.
func NewSuggestionScheduler(
	suggestions *SuggestionService,
	turns ConversationStore,
	interval time.Duration,
	window time.Duration,
) (*SuggestionScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &SuggestionScheduler{
		scheduler:   scheduler,
		suggestions: suggestions,
		turns:       turns,
		latest:      gocache.New(2*window, 10*time.Minute),
		interval:    interval,
		window:      window,
		instanceID:  uuid.New().String(),
	}, nil
}

// Start registers and starts the periodic job.
func (s *SuggestionScheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.runOnce(context.Background()) }),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule suggestion job: %w", err)
	}

	s.scheduler.Start()
	log.Printf("✅ Suggestion scheduler started (instance %s, every %s)", s.instanceID, s.interval)
	return nil
}

// Stop shuts the scheduler down.
func (s *SuggestionScheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// Latest returns the most recently precomputed suggestion for a user, if any.
func (s *SuggestionScheduler) Latest(userID string) *models.Suggestion {
	value, found := s.latest.Get(userID)
	if !found {
		return nil
	}
	suggestion, ok := value.(*models.Suggestion)
	if !ok {
		return nil
	}
	return suggestion
}

// runOnce classifies the recent conversation of every active user.
func (s *SuggestionScheduler) runOnce(ctx context.Context) {
	users, err := s.turns.ListActiveUsers(ctx, time.Now().Add(-s.window))
	if err != nil {
		log.Printf("⚠️ [SUGGESTION-JOB] Failed to list active users: %v", err)
		return
	}

	for _, userID := range users {
		turns, err := s.turns.GetRecentTurns(ctx, userID, historyWindow)
		if err != nil {
			log.Printf("⚠️ [SUGGESTION-JOB] Failed to load turns for %s: %v", userID, err)
			continue
		}

		suggestion, err := s.suggestions.Classify(ctx, userID, turns)
		if err != nil {
			log.Printf("⚠️ [SUGGESTION-JOB] Classification failed for %s: %v", userID, err)
			continue
		}
		if suggestion == nil {
			continue
		}

		s.latest.SetDefault(userID, suggestion)
	}
}
