package services

import (
	"strings"
	"time"

	"auracoach/internal/models"
	"auracoach/internal/patterns"
)

// Extraction bounds. Candidates outside the length range are noise
// (stray punctuation, pasted paragraphs), and the goal list is capped so a
// single enthusiastic reply can't flood the profile.
const (
	minExtractionLength = 20
	minGoalLength       = 3
	maxGoalLength       = 99
	maxGoals            = 10
)

// Extraction warnings surfaced as profile metadata for later auditing.
const (
	warnTooShort  = "message too short for extraction"
	warnNoName    = "no explicit name found"
	warnNoGoals   = "no goals found"
	warnNoTone    = "no tone preference found"
	warnTruncated = "goal list truncated to 10 entries"
)

// ExtractionService turns a free-form onboarding reply into a structured
// profile fragment plus a confidence verdict. Extraction is layered
// heuristics only: no randomness, no clock, no network, so re-running on
// the same text always yields the same result.
type ExtractionService struct{}

// NewExtractionService creates a new extraction service
func NewExtractionService() *ExtractionService {
	return &ExtractionService{}
}

// Extract runs the full extraction chain on one reply.
func (s *ExtractionService) Extract(text string) models.ExtractionResult {
	trimmed := strings.TrimSpace(text)

	if len(trimmed) < minExtractionLength {
		return models.ExtractionResult{
			Summary:    models.NoNameFound,
			Confidence: models.ConfidenceLow,
			Warnings:   []string{warnTooShort},
		}
	}

	var warnings []string

	name, nameWarn := extractName(trimmed)
	if nameWarn != "" {
		warnings = append(warnings, nameWarn)
	}

	goals, goalWarns := extractGoals(trimmed)
	warnings = append(warnings, goalWarns...)

	tone := extractTone(trimmed)
	if tone == "" {
		warnings = append(warnings, warnNoTone)
	}

	result := models.ExtractionResult{
		Summary:     name,
		Goals:       goals,
		Preferences: models.Preferences{Tone: tone},
		Warnings:    warnings,
	}
	result.Confidence = scoreConfidence(result.HasName(), len(goals) > 0, tone != "")

	return result
}

// FragmentFromResult builds the profile fragment actually persisted: only
// non-empty fields, plus extraction metadata.
func (s *ExtractionService) FragmentFromResult(result models.ExtractionResult, now time.Time) models.ProfileFragment {
	fragment := models.ProfileFragment{
		ExtractedAt:          now,
		ExtractionConfidence: result.Confidence,
		ExtractionWarnings:   result.Warnings,
	}
	if result.HasName() {
		fragment.Name = result.Summary
	}
	if len(result.Goals) > 0 {
		fragment.Goals = result.Goals
	}
	if result.Preferences.Tone != "" {
		fragment.Tone = result.Preferences.Tone
	}
	return fragment
}

// scoreConfidence computes the verdict purely from which fields were found:
// all three present is High; name+goals or goals+tone is Medium; anything
// else (including name+tone with no goals) is Low.
func scoreConfidence(hasName, hasGoals, hasTone bool) models.Confidence {
	switch {
	case hasName && hasGoals && hasTone:
		return models.ConfidenceHigh
	case hasName && hasGoals, hasGoals && hasTone:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// extractName applies the name priority chain: the explicit "my name is X"
// pattern first, then "I am X"/"I'm X" but only when the text also carries
// a goal or tone marker. There is deliberately no "first sentence as name"
// fallback; that misreads casual replies like "That sounds good." as names.
func extractName(text string) (string, string) {
	if m := patterns.NameExplicit.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), ""
	}

	if patterns.HasGoalMarker(text) || patterns.HasToneMarker(text) {
		if m := patterns.NameCasual.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), ""
		}
	}

	return models.NoNameFound, warnNoName
}

// extractGoals applies the goal priority chain: an explicit "Goals:" field
// first, intent-marker sentence scanning otherwise. Results are
// case-insensitively deduplicated (first occurrence wins, order preserved)
// and capped at maxGoals.
func extractGoals(text string) ([]string, []string) {
	var candidates []string

	if m := patterns.GoalsField.FindStringSubmatch(text); m != nil {
		candidates = splitGoalField(m[1])
	} else {
		for _, m := range patterns.GoalIntent.FindAllStringSubmatch(text, -1) {
			candidates = append(candidates, m[1])
		}
	}

	var warnings []string
	goals := cleanGoals(candidates)

	if len(goals) == 0 {
		return nil, []string{warnNoGoals}
	}
	if len(goals) > maxGoals {
		goals = goals[:maxGoals]
		warnings = append(warnings, warnTruncated)
	}
	return goals, warnings
}

// splitGoalField splits the value of an explicit goals field on semicolons,
// commas and bullet markers. It never splits on the word "and": compound
// goals like "machine and deep learning" are one goal.
func splitGoalField(value string) []string {
	// The field runs until the next labeled field on the same line.
	if loc := patterns.ToneField.FindStringIndex(value); loc != nil {
		value = value[:loc[0]]
	}

	value = strings.ReplaceAll(value, "•", ";")
	value = strings.ReplaceAll(value, " - ", ";")

	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ';' || r == ','
	})
}

// goalStopwords are filler tokens ignored when comparing goals for
// duplication; without them "read more" and "exercise more" would collapse
// on "more".
var goalStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "be": true, "better": true,
	"do": true, "every": true, "for": true, "get": true, "improve": true,
	"in": true, "learn": true, "more": true, "my": true, "of": true,
	"practice": true, "start": true, "stop": true, "the": true,
	"to": true, "with": true,
}

// cleanGoals trims candidates, applies length bounds and deduplicates,
// keeping first occurrences in order. Duplication is case-insensitive and
// also collapses stem-level restatements ("GET FIT" after "fitness"): a
// candidate sharing a significant token stem with an earlier goal is the
// same goal reworded, not a new one.
func cleanGoals(candidates []string) []string {
	seen := make(map[string]bool)
	var goals []string

	for _, candidate := range candidates {
		goal := strings.TrimSpace(candidate)
		goal = strings.TrimLeft(goal, "-*• \t")
		goal = strings.TrimRight(goal, ".!")
		goal = strings.TrimSpace(goal)

		if len(goal) < minGoalLength || len(goal) > maxGoalLength {
			continue
		}

		key := strings.ToLower(goal)
		if seen[key] || restatesExisting(goal, goals) {
			continue
		}
		seen[key] = true
		goals = append(goals, goal)
	}

	return goals
}

// restatesExisting reports whether a candidate shares a significant token
// stem with any already-kept goal. Two tokens share a stem when one is a
// prefix of the other and the prefix is at least three characters
// ("fit"/"fitness").
func restatesExisting(candidate string, goals []string) bool {
	for _, existing := range goals {
		for _, ct := range significantTokens(candidate) {
			for _, et := range significantTokens(existing) {
				if sharesStem(ct, et) {
					return true
				}
			}
		}
	}
	return false
}

func significantTokens(goal string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(goal)) {
		tok = strings.Trim(tok, ".,;:!?")
		if len(tok) >= minGoalLength && !goalStopwords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func sharesStem(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	return len(a) >= 3 && strings.HasPrefix(b, a)
}

// extractTone applies the tone priority chain: an explicit "Tone:" field
// first, then a keyword scan that only runs when the text has a
// tone/preference context at all.
func extractTone(text string) string {
	if m := patterns.ToneField.FindStringSubmatch(text); m != nil {
		value := strings.TrimSpace(m[1])
		if kw := patterns.FirstToneKeyword(value); kw != "" {
			return kw
		}
		return value
	}

	if patterns.HasToneContext(text) {
		return patterns.FirstToneKeyword(text)
	}

	return ""
}
