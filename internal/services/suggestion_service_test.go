package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"auracoach/internal/models"
)

func newTestSuggestions(llm LanguageModel) *SuggestionService {
	svc := NewSuggestionService(llm, NewMemoryStores())
	svc.now = func() time.Time {
		return time.Date(2026, time.January, 7, 8, 30, 0, 0, time.UTC) // a Wednesday
	}
	return svc
}

func userTurns(texts ...string) []models.ChatTurn {
	turns := make([]models.ChatTurn, 0, len(texts))
	for _, text := range texts {
		turns = append(turns, models.ChatTurn{Text: text, Role: models.RoleUser, Timestamp: time.Now()})
	}
	return turns
}

// TestClassifyOverrideRebuildsRecurrence verifies the override engine beats
// the model's classification and re-derives every recurrence field from the
// raw text.
func TestClassifyOverrideRebuildsRecurrence(t *testing.T) {
	llm := &fakeLLM{jsonReply: `{"kind": "daily_goal", "text": "hike regularly", "reasoning": "user wants to hike"}`}
	svc := newTestSuggestions(llm)

	suggestion, err := svc.Classify(context.Background(), "u1", userTurns("I want to hike every Saturday morning"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if suggestion == nil {
		t.Fatal("suggestion = nil, want recurring event")
	}
	if suggestion.Kind != models.KindEvent {
		t.Errorf("Kind = %s, want event despite model saying daily_goal", suggestion.Kind)
	}
	if suggestion.Recurring != models.RecurWeekly {
		t.Errorf("Recurring = %s, want weekly", suggestion.Recurring)
	}
	if len(suggestion.RecurringDays) != 1 || suggestion.RecurringDays[0] != 6 {
		t.Errorf("RecurringDays = %v, want [6]", suggestion.RecurringDays)
	}
	if suggestion.EventTime != "09:00" {
		t.Errorf("EventTime = %q, want 09:00 from \"morning\"", suggestion.EventTime)
	}
	if suggestion.Text != "hike regularly" {
		t.Errorf("Text = %q, want the model's activity text kept", suggestion.Text)
	}
	if suggestion.ID == "" {
		t.Error("ID not assigned")
	}
}

// TestClassifyManufacturesOnNullKind verifies a red flag still produces an
// event when the model proposed nothing.
func TestClassifyManufacturesOnNullKind(t *testing.T) {
	llm := &fakeLLM{jsonReply: `{"kind": null}`}
	svc := newTestSuggestions(llm)

	raw := "I go swimming every monday and thursday at 7am"
	suggestion, err := svc.Classify(context.Background(), "u1", userTurns(raw))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if suggestion == nil {
		t.Fatal("suggestion = nil, want manufactured event")
	}
	if suggestion.Kind != models.KindEvent || suggestion.Recurring != models.RecurWeekly {
		t.Errorf("got kind=%s recurring=%s, want event/weekly", suggestion.Kind, suggestion.Recurring)
	}
	if suggestion.Text != raw {
		t.Errorf("Text = %q, want raw message text", suggestion.Text)
	}
	if suggestion.Reasoning == "" {
		t.Error("manufactured suggestion needs a reasoning string")
	}
	want := []int{1, 4}
	if len(suggestion.RecurringDays) != len(want) {
		t.Fatalf("RecurringDays = %v, want %v", suggestion.RecurringDays, want)
	}
	for i, day := range want {
		if suggestion.RecurringDays[i] != day {
			t.Errorf("RecurringDays = %v, want %v", suggestion.RecurringDays, want)
			break
		}
	}
}

// TestClassifyNoOverrideKeepsModelKind verifies the model's classification
// stands when the text has no recurrence pattern.
func TestClassifyNoOverrideKeepsModelKind(t *testing.T) {
	llm := &fakeLLM{jsonReply: `{"kind": "longterm_goal", "text": "run a marathon", "reasoning": "stated aspiration"}`}
	svc := newTestSuggestions(llm)

	suggestion, err := svc.Classify(context.Background(), "u1", userTurns("Someday I want to run a marathon"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if suggestion == nil {
		t.Fatal("suggestion = nil")
	}
	if suggestion.Kind != models.KindLongtermGoal {
		t.Errorf("Kind = %s, want longterm_goal", suggestion.Kind)
	}
	if suggestion.Recurring != "" {
		t.Errorf("Recurring = %s, want empty", suggestion.Recurring)
	}
}

// TestClassifyEventDateFilled verifies a model event with no date gets one
// normalized from the text.
func TestClassifyEventDateFilled(t *testing.T) {
	llm := &fakeLLM{jsonReply: `{"kind": "event", "text": "dentist appointment", "reasoning": "scheduled visit"}`}
	svc := newTestSuggestions(llm)

	suggestion, err := svc.Classify(context.Background(), "u1", userTurns("I have a dentist appointment next monday at 3pm"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if suggestion == nil {
		t.Fatal("suggestion = nil")
	}
	if suggestion.EventDate != "2026-01-12" {
		t.Errorf("EventDate = %q, want 2026-01-12", suggestion.EventDate)
	}
	if suggestion.EventTime != "15:00" {
		t.Errorf("EventTime = %q, want 15:00", suggestion.EventTime)
	}
}

func TestClassifyMalformedJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"truncated object", `{"kind": "event", "text": "dent`},
		{"prose instead of json", "I think the user wants to exercise more."},
		{"empty reply", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{jsonReply: tt.reply}
			svc := newTestSuggestions(llm)

			suggestion, err := svc.Classify(context.Background(), "u1", userTurns("Someday I want to travel"))
			if err != nil {
				t.Fatalf("malformed payload must not be an error, got %v", err)
			}
			if suggestion != nil {
				t.Errorf("suggestion = %+v, want nil", suggestion)
			}
		})
	}
}

// TestClassifyFencedJSON verifies markdown fences around the payload are
// tolerated.
func TestClassifyFencedJSON(t *testing.T) {
	llm := &fakeLLM{jsonReply: "```json\n{\"kind\": \"daily_goal\", \"text\": \"drink more water\", \"reasoning\": \"hydration habit\"}\n```"}
	svc := newTestSuggestions(llm)

	suggestion, err := svc.Classify(context.Background(), "u1", userTurns("I should drink more water"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if suggestion == nil || suggestion.Kind != models.KindDailyGoal {
		t.Fatalf("suggestion = %+v, want daily_goal", suggestion)
	}
}

func TestClassifyInvalidKindRejected(t *testing.T) {
	llm := &fakeLLM{jsonReply: `{"kind": "reminder", "text": "call mom"}`}
	svc := newTestSuggestions(llm)

	suggestion, err := svc.Classify(context.Background(), "u1", userTurns("I should call mom sometime"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if suggestion != nil {
		t.Errorf("suggestion = %+v, want nil for unknown kind", suggestion)
	}
}

// TestClassifyModelFailure verifies a failed model call surfaces as an
// error, distinct from the nil-suggestion path.
func TestClassifyModelFailure(t *testing.T) {
	llm := &fakeLLM{err: ErrModelUnavailable}
	svc := newTestSuggestions(llm)

	_, err := svc.Classify(context.Background(), "u1", userTurns("I run every sunday"))
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestClassifyNoUserTurns(t *testing.T) {
	llm := &fakeLLM{jsonReply: `{"kind": "event"}`}
	svc := newTestSuggestions(llm)

	suggestion, err := svc.Classify(context.Background(), "u1", []models.ChatTurn{
		{Text: "How are you today?", Role: models.RoleAssistant, Timestamp: time.Now()},
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if suggestion != nil {
		t.Errorf("suggestion = %+v, want nil without a user turn", suggestion)
	}
	if llm.jsonCalls != 0 {
		t.Errorf("jsonCalls = %d, want 0", llm.jsonCalls)
	}
}

// TestBuildPromptCarriesProfile verifies stored profile context reaches the
// classifier prompt.
func TestBuildPromptCarriesProfile(t *testing.T) {
	llm := &fakeLLM{jsonReply: `{"kind": null}`}
	stores := NewMemoryStores()
	svc := NewSuggestionService(llm, stores)

	fragment := models.ProfileFragment{Name: "Alex", Goals: []string{"get fit"}, ExtractedAt: time.Now(), ExtractionConfidence: models.ConfidenceHigh}
	if _, err := stores.UpsertProfile(context.Background(), "u1", fragment); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	if _, err := svc.Classify(context.Background(), "u1", userTurns("Someday I might travel")); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !strings.Contains(llm.lastPrompt, "Name: Alex") {
		t.Error("prompt missing profile name")
	}
	if !strings.Contains(llm.lastPrompt, "get fit") {
		t.Error("prompt missing profile goals")
	}
}
