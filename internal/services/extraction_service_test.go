package services

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"auracoach/internal/models"
)

// TestExtractFullScenario tests the complete onboarding reply path
func TestExtractFullScenario(t *testing.T) {
	service := NewExtractionService()

	result := service.Extract("My name is Alex. Goals: Get fit, learn Python, improve focus. Tone: supportive and energizing")

	if result.Summary != "Alex" {
		t.Errorf("Summary = %q, want %q", result.Summary, "Alex")
	}
	wantGoals := []string{"Get fit", "learn Python", "improve focus"}
	if !reflect.DeepEqual(result.Goals, wantGoals) {
		t.Errorf("Goals = %v, want %v", result.Goals, wantGoals)
	}
	if result.Preferences.Tone != "supportive" && result.Preferences.Tone != "energizing" {
		t.Errorf("Tone = %q, want supportive or energizing", result.Preferences.Tone)
	}
	if result.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence = %s, want high", result.Confidence)
	}
}

// TestExtractIdempotent verifies extraction has no hidden state
func TestExtractIdempotent(t *testing.T) {
	service := NewExtractionService()
	text := "I'm Dana and I want to run a marathon. Tone: firm"

	first := service.Extract(text)
	second := service.Extract(text)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extract not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// TestExtractNamePriority tests the name extraction chain
func TestExtractNamePriority(t *testing.T) {
	service := NewExtractionService()

	tests := []struct {
		name     string
		text     string
		wantName string
	}{
		{
			name:     "explicit pattern wins",
			text:     "My name is Maria Lopez and my goal is to meditate every morning",
			wantName: "Maria Lopez",
		},
		{
			name:     "casual form accepted when goal marker present",
			text:     "I'm Jordan and I want to get better at swimming regularly",
			wantName: "Jordan",
		},
		{
			name:     "casual form rejected without other markers",
			text:     "I'm Somewhat unsure about what we should discuss here today",
			wantName: models.NoNameFound,
		},
		{
			name:     "no first-sentence fallback",
			text:     "That sounds good. Let's keep going with what we discussed.",
			wantName: models.NoNameFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.Extract(tt.text)
			if result.Summary != tt.wantName {
				t.Errorf("Summary = %q, want %q", result.Summary, tt.wantName)
			}
		})
	}
}

// TestExtractGoalsDedup tests case-insensitive and restatement dedup
func TestExtractGoalsDedup(t *testing.T) {
	service := NewExtractionService()

	result := service.Extract("Goals: fitness, Fitness, GET FIT")
	if len(result.Goals) != 1 {
		t.Fatalf("Goals = %v, want exactly one entry", result.Goals)
	}
	if result.Goals[0] != "fitness" {
		t.Errorf("Goals[0] = %q, want first occurrence %q", result.Goals[0], "fitness")
	}
}

// TestExtractGoalsNoAndSplit verifies compound goals stay whole
func TestExtractGoalsNoAndSplit(t *testing.T) {
	service := NewExtractionService()

	result := service.Extract("Goals: Learn machine and deep learning")
	want := []string{"Learn machine and deep learning"}
	if !reflect.DeepEqual(result.Goals, want) {
		t.Errorf("Goals = %v, want %v", result.Goals, want)
	}
}

// TestExtractGoalsSemicolonsAndBullets tests the field splitting rules
func TestExtractGoalsSemicolonsAndBullets(t *testing.T) {
	service := NewExtractionService()

	result := service.Extract("Goals: run a 10k; drink less coffee; sleep before midnight")
	want := []string{"run a 10k", "drink less coffee", "sleep before midnight"}
	if !reflect.DeepEqual(result.Goals, want) {
		t.Errorf("Goals = %v, want %v", result.Goals, want)
	}
}

// TestExtractGoalsTruncation tests the 10-goal cap with warning
func TestExtractGoalsTruncation(t *testing.T) {
	service := NewExtractionService()

	entries := []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
		"hotel", "india", "juliett", "kilo", "lima", "mike", "november",
	}
	result := service.Extract("Goals: " + strings.Join(entries, "; "))

	if len(result.Goals) != 10 {
		t.Fatalf("len(Goals) = %d, want 10", len(result.Goals))
	}
	if !containsWarning(result.Warnings, warnTruncated) {
		t.Errorf("Warnings = %v, want truncation warning", result.Warnings)
	}
}

// TestExtractGoalIntentMarkers tests sentence scanning without a Goals field
func TestExtractGoalIntentMarkers(t *testing.T) {
	service := NewExtractionService()

	result := service.Extract("I want to write every morning. I'd like to call my grandmother weekly.")
	if len(result.Goals) != 2 {
		t.Fatalf("Goals = %v, want 2 entries", result.Goals)
	}
	if result.Goals[0] != "write every morning" {
		t.Errorf("Goals[0] = %q", result.Goals[0])
	}
}

// TestExtractToneContextGate verifies tone keywords need a preference context
func TestExtractToneContextGate(t *testing.T) {
	service := NewExtractionService()

	tests := []struct {
		name     string
		text     string
		wantTone string
	}{
		{
			name:     "keyword outside preference context ignored",
			text:     "I'm firm about my commitment to finishing this project",
			wantTone: "",
		},
		{
			name:     "keyword inside preference context accepted",
			text:     "For coaching style I prefer something firm but fair",
			wantTone: "firm",
		},
		{
			name:     "explicit tone field",
			text:     "Tone: gentle please, nothing harsh",
			wantTone: "gentle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.Extract(tt.text)
			if result.Preferences.Tone != tt.wantTone {
				t.Errorf("Tone = %q, want %q", result.Preferences.Tone, tt.wantTone)
			}
		})
	}
}

// TestExtractConfidenceLevels tests the confidence invariant
func TestExtractConfidenceLevels(t *testing.T) {
	service := NewExtractionService()

	tests := []struct {
		name string
		text string
		want models.Confidence
	}{
		{
			name: "all three fields is high",
			text: "My name is Sam. Goals: stretch daily. Tone: encouraging",
			want: models.ConfidenceHigh,
		},
		{
			name: "name plus goals is medium",
			text: "My name is Sam and I want to stretch every single day",
			want: models.ConfidenceMedium,
		},
		{
			name: "goals plus tone is medium",
			text: "Goals: stretch daily. Tone: encouraging",
			want: models.ConfidenceMedium,
		},
		{
			name: "tone only is low",
			text: "Tone: encouraging, that is all for now",
			want: models.ConfidenceLow,
		},
		{
			name: "name only is low",
			text: "My name is Sam, nice to meet you today",
			want: models.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.Extract(tt.text)
			if result.Confidence != tt.want {
				t.Errorf("Confidence = %s, want %s (warnings: %v)", result.Confidence, tt.want, result.Warnings)
			}
		})
	}
}

// TestExtractConfidenceMonotonic verifies adding a field never lowers confidence
func TestExtractConfidenceMonotonic(t *testing.T) {
	service := NewExtractionService()

	base := "Goals: stretch daily"
	withTone := base + ". Tone: encouraging"
	withAll := "My name is Sam. " + withTone

	confBase := service.Extract(base).Confidence
	confTone := service.Extract(withTone).Confidence
	confAll := service.Extract(withAll).Confidence

	if confTone < confBase {
		t.Errorf("adding tone lowered confidence: %s -> %s", confBase, confTone)
	}
	if confAll < confTone {
		t.Errorf("adding name lowered confidence: %s -> %s", confTone, confAll)
	}
}

// TestExtractShortText verifies the minimum length short-circuit
func TestExtractShortText(t *testing.T) {
	service := NewExtractionService()

	result := service.Extract("hi there")
	if result.Confidence != models.ConfidenceLow {
		t.Errorf("Confidence = %s, want low", result.Confidence)
	}
	if !containsWarning(result.Warnings, warnTooShort) {
		t.Errorf("Warnings = %v, want too-short warning", result.Warnings)
	}
	if result.Summary != models.NoNameFound {
		t.Errorf("Summary = %q, want sentinel", result.Summary)
	}
}

// TestFragmentFromResult verifies only non-empty fields are persisted
func TestFragmentFromResult(t *testing.T) {
	service := NewExtractionService()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	result := service.Extract("Goals: stretch daily. Tone: encouraging")
	fragment := service.FragmentFromResult(result, now)

	if fragment.Name != "" {
		t.Errorf("Name = %q, want empty (sentinel must not leak into the store)", fragment.Name)
	}
	if len(fragment.Goals) == 0 {
		t.Error("Goals missing from fragment")
	}
	if fragment.Tone != "encouraging" {
		t.Errorf("Tone = %q, want encouraging", fragment.Tone)
	}
	if fragment.ExtractedAt != now {
		t.Errorf("ExtractedAt = %v, want %v", fragment.ExtractedAt, now)
	}
	if fragment.ExtractionConfidence != models.ConfidenceMedium {
		t.Errorf("ExtractionConfidence = %s, want medium", fragment.ExtractionConfidence)
	}
}

func containsWarning(warnings []string, want string) bool {
	for _, w := range warnings {
		if w == want {
			return true
		}
	}
	return false
}
