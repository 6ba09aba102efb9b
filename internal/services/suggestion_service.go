package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"auracoach/internal/models"
	"auracoach/internal/patterns"
)

// suggestionWindow is how many recent turns the classifier prompt carries.
const suggestionWindow = 6

const suggestionPromptHeader = `You are analyzing a life-coaching conversation. Decide whether the user's latest message implies something actionable, and classify it.

KINDS:
- "daily_goal": a small habit the user wants to do each day
- "longterm_goal": an aspiration without a fixed schedule
- "event": something that belongs on a calendar (one-off or recurring)

Return ONLY a JSON object:
{"kind": "daily_goal"|"longterm_goal"|"event"|null, "text": "...", "reasoning": "...", "event_date": "YYYY-MM-DD", "event_time": "HH:mm", "recurring": "daily"|"weekly"|"biweekly"|"monthly"|"yearly", "recurring_days": [0-6]}

Use null for "kind" when nothing actionable was said. Omit fields you cannot fill.`

// modelProposal is the shape of the language model's advisory guess.
// Everything in it is untrusted.
type modelProposal struct {
	Kind          *string `json:"kind"`
	Text          string  `json:"text"`
	Reasoning     string  `json:"reasoning"`
	EventDate     string  `json:"event_date"`
	EventTime     string  `json:"event_time"`
	Recurring     string  `json:"recurring"`
	RecurringDays []int   `json:"recurring_days"`
}

// SuggestionService asks the language model to classify the intent behind
// recent conversation, then applies the deterministic red-flag override
// engine. The model reliably states the activity but is inconsistent about
// recurrence, so recurrence semantics are always re-derived from the raw
// text when a red-flag pattern is present.
type SuggestionService struct {
	llm      LanguageModel
	profiles ProfileStore
	now      func() time.Time
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(llm LanguageModel, profiles ProfileStore) *SuggestionService {
	return &SuggestionService{
		llm:      llm,
		profiles: profiles,
		now:      time.Now,
	}
}

// Classify produces a suggestion from the most recent user turn, or nil
// when the conversation implies nothing actionable. A malformed model
// payload is treated as "no suggestion", never as an error; a failed model
// call is an error for the caller.
func (s *SuggestionService) Classify(ctx context.Context, userID string, recentTurns []models.ChatTurn) (*models.Suggestion, error) {
	latest := latestUserText(recentTurns)
	if latest == "" {
		return nil, nil
	}

	prompt, err := s.buildPrompt(ctx, userID, recentTurns, latest)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("suggestion classification: %w", err)
	}

	proposal := parseProposal(raw)
	suggestion := s.resolve(proposal, latest)

	if suggestion != nil {
		suggestion.ID = uuid.New().String()
	}
	return suggestion, nil
}

// resolve reconciles the model's advisory proposal with the red-flag rule
// table. The override engine is authoritative: any recurrence pattern in
// the raw text forces a weekly recurring event, rebuilding the weekday set
// and event time from the text itself — even when the model proposed a
// different kind, and even when it proposed nothing at all.
func (s *SuggestionService) resolve(proposal *modelProposal, rawText string) *models.Suggestion {
	rule, overridden := patterns.MatchRecurrence(rawText)

	if !overridden {
		if proposal == nil || proposal.Kind == nil {
			return nil
		}
		kind := models.SuggestionKind(*proposal.Kind)
		if !models.ValidSuggestionKind(kind) {
			return nil
		}
		suggestion := &models.Suggestion{
			Kind:          kind,
			Text:          proposal.Text,
			Reasoning:     proposal.Reasoning,
			EventDate:     proposal.EventDate,
			EventTime:     proposal.EventTime,
			Recurring:     models.Recurrence(proposal.Recurring),
			RecurringDays: proposal.RecurringDays,
		}
		if kind == models.KindEvent && suggestion.EventDate == "" {
			normalized := NormalizeDateTime(rawText, s.now())
			suggestion.EventDate = normalized.Date
			if suggestion.EventTime == "" {
				suggestion.EventTime = normalized.Time
			}
		}
		return suggestion
	}

	if m := GetMetrics(); m != nil {
		m.SuggestionOverrides.WithLabelValues(rule).Inc()
	}
	log.Printf("🚩 [SUGGESTION] Red-flag rule %q forces recurring event", rule)

	suggestion := &models.Suggestion{
		Kind:      models.KindEvent,
		Recurring: models.RecurWeekly,
	}

	if proposal != nil && proposal.Kind != nil {
		suggestion.Text = proposal.Text
		suggestion.Reasoning = proposal.Reasoning
		suggestion.EventDate = proposal.EventDate
	}
	if suggestion.Text == "" {
		// The model saw nothing actionable but the text states a recurring
		// commitment explicitly; manufacture the event from the text.
		suggestion.Text = strings.TrimSpace(rawText)
		suggestion.Reasoning = "recurring commitment stated explicitly in the message"
	}

	// Recurrence fields always come from the text, not the model.
	suggestion.RecurringDays = patterns.WeekdaysIn(rawText)
	if clock := patterns.TimeOfDayIn(rawText); clock != "" {
		suggestion.EventTime = clock
	}
	if suggestion.EventDate == "" {
		suggestion.EventDate = NormalizeDateTime(rawText, s.now()).Date
	}

	return suggestion
}

// buildPrompt assembles the classifier prompt from the stored profile and a
// short window of recent turns.
func (s *SuggestionService) buildPrompt(ctx context.Context, userID string, recentTurns []models.ChatTurn, latest string) (string, error) {
	var b strings.Builder
	b.WriteString(suggestionPromptHeader)
	b.WriteString("\n\n")

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("profile lookup: %w", err)
	}
	if profile != nil {
		b.WriteString("USER PROFILE:\n")
		if profile.Name != "" {
			fmt.Fprintf(&b, "Name: %s\n", profile.Name)
		}
		if len(profile.Goals) > 0 {
			fmt.Fprintf(&b, "Goals: %s\n", strings.Join(profile.Goals, "; "))
		}
		b.WriteString("\n")
	}

	window := recentTurns
	if len(window) > suggestionWindow {
		window = window[len(window)-suggestionWindow:]
	}
	b.WriteString("CONVERSATION:\n")
	for _, turn := range window {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(turn.Role), turn.Text)
	}

	fmt.Fprintf(&b, "\nLATEST USER MESSAGE:\n%s\n", latest)
	return b.String(), nil
}

// parseProposal leniently parses the model's JSON-shaped reply. Markdown
// fences are stripped first; anything that still fails to parse counts as
// "no proposal".
func parseProposal(raw string) *modelProposal {
	cleaned := stripJSONFences(raw)
	if cleaned == "" {
		return nil
	}

	var proposal modelProposal
	if err := json.Unmarshal([]byte(cleaned), &proposal); err != nil {
		log.Printf("⚠️ [SUGGESTION] Failed to parse model proposal: %v (response length: %d bytes)", err, len(raw))
		return nil
	}
	return &proposal
}

// stripJSONFences removes a surrounding ```json ... ``` block if present.
func stripJSONFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

// latestUserText returns the text of the most recent user turn.
func latestUserText(turns []models.ChatTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == models.RoleUser {
			return turns[i].Text
		}
	}
	return ""
}
