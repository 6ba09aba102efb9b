// Package patterns is the single source of truth for the regex and keyword
// rule sets shared by the onboarding extractor, the intake gate-check, and
// the suggestion override engine. Keeping them here means gating,
// extraction, and override logic never drift apart on what counts as a
// name marker, a goal marker, or a recurring commitment.
package patterns

import (
	"regexp"
	"sort"
	"strings"
)

const weekdayAlternation = `sunday|monday|tuesday|wednesday|thursday|friday|saturday`

var (
	// NameExplicit matches "my name is X" / "my name's X", capturing one or
	// two capitalized words. The marker is case-insensitive but the captured
	// name must be capitalized, which keeps "my name is whatever" out.
	NameExplicit = regexp.MustCompile(`(?i:\bmy name(?:'s| is)\s+)([A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+)?)`)

	// NameCasual matches "I am X" / "I'm X". Only trusted when the text also
	// carries a goal or tone marker elsewhere; on its own it misreads small
	// talk ("I'm fine") as a name.
	NameCasual = regexp.MustCompile(`\bI(?:'m| am)\s+([A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+)?)`)

	// GoalsField matches an explicit "Goals:"/"Goal:" field up to end of line.
	GoalsField = regexp.MustCompile(`(?i:\bgoals?\s*:\s*)([^\n]+)`)

	// GoalIntent matches intent phrasing inside a sentence; the capture is the
	// remainder of the sentence.
	GoalIntent = regexp.MustCompile(`(?i:\b(?:i want to|i'd like to|i would like to|i'm aiming to|i am aiming to|my goal is to|goal is to)\s+)([^.!?\n]+)`)

	// ToneField matches an explicit "Tone:" field up to end of line.
	ToneField = regexp.MustCompile(`(?i:\btone\s*:\s*)([^\n.]+)`)

	// toneContext matches text that is actually talking about coaching style.
	// The tone keyword scan only runs inside this context so that "I'm firm
	// about my commitment" is not read as tone=firm.
	toneContext = regexp.MustCompile(`(?i)\b(?:tone|style|prefer|preference|motivat|coach|keep it|talk to me)`)

	// nameMarker, goalMarker and toneMarker are the intake gate-check: a turn
	// with none of them is ordinary chat and skips extraction entirely.
	nameMarker = regexp.MustCompile(`(?i)\bmy name(?:'s| is)\b|\bi am\b|\bi'm\b`)
	goalMarker = regexp.MustCompile(`(?i)\bgoals?\b|\bi want to\b|\bi'd like to\b|\bi would like to\b|\bi'm aiming to\b|\bi am aiming to\b`)
	toneMarker = regexp.MustCompile(`(?i)\btone\b|\bmotivat\w*\b|\bcoaching style\b`)

	weekdayRe = regexp.MustCompile(`(?i)\b(` + weekdayAlternation + `)s?\b`)

	// ExplicitTime matches H:MM or H[:MM]am/pm. A bare number without a colon
	// or meridiem ("read 3 chapters") is deliberately not a time.
	ExplicitTime = regexp.MustCompile(`(?i)\b(\d{1,2}):([0-5]\d)\s*(am|pm)?\b|\b(\d{1,2})\s*(am|pm)\b`)
)

// ToneKeywords is the closed set of recognized coaching tones, in scan order.
var ToneKeywords = []string{
	"encouraging", "supportive", "energizing", "energetic", "firm", "strict",
	"gentle", "motivating", "motivational", "uplifting", "positive",
	"realistic", "direct", "compassionate",
}

// Weekdays maps lowercase weekday names to their index, Sunday=0.
var Weekdays = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
}

// TimeOfDay maps time-of-day words to a 24-hour HH:mm clock value.
var TimeOfDay = map[string]string{
	"morning":   "09:00",
	"noon":      "12:00",
	"afternoon": "14:00",
	"evening":   "18:00",
	"night":     "20:00",
}

// timeOfDayOrder fixes scan precedence when several words appear; the
// earliest occurrence in the text wins.
var timeOfDayOrder = []string{"morning", "noon", "afternoon", "evening", "night"}

// RecurrenceRule is one red-flag pattern that forces a suggestion to be a
// weekly recurring event regardless of what the language model proposed.
// Rules are plain data so new ones are additive, not new control flow.
type RecurrenceRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// RecurrenceRules is the red-flag rule table, evaluated in order.
var RecurrenceRules = []RecurrenceRule{
	{"every_weekday", regexp.MustCompile(`(?i)\bevery\s+(?:` + weekdayAlternation + `)s?\b`)},
	{"on_weekday", regexp.MustCompile(`(?i)\bon\s+(?:` + weekdayAlternation + `)s?\b`)},
	{"weekday_time_of_day", regexp.MustCompile(`(?i)\b(?:` + weekdayAlternation + `)s?\s+(?:morning|afternoon|evening)s?\b`)},
	{"every_other", regexp.MustCompile(`(?i)\bevery\s+other\b`)},
	{"weekly_frequency", regexp.MustCompile(`(?i)\b(?:\d+x\s*(?:a|per)\s+week|twice\s+a\s+week|once\s+a\s+week|weekly|bi-?weekly)\b`)},
}

// MatchRecurrence returns the name of the first red-flag rule matching text.
func MatchRecurrence(text string) (string, bool) {
	for _, rule := range RecurrenceRules {
		if rule.Pattern.MatchString(text) {
			return rule.Name, true
		}
	}
	return "", false
}

// WeekdaysIn returns the sorted, deduplicated indices (Sunday=0) of every
// weekday name mentioned in text.
func WeekdaysIn(text string) []int {
	matches := weekdayRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[int]bool)
	var days []int
	for _, m := range matches {
		day, ok := Weekdays[strings.ToLower(m[1])]
		if !ok || seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// TimeOfDayIn returns the HH:mm value for the earliest time-of-day word in
// text, or "" when none is present.
func TimeOfDayIn(text string) string {
	lower := strings.ToLower(text)
	best := -1
	clock := ""
	for _, word := range timeOfDayOrder {
		idx := strings.Index(lower, word)
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
			clock = TimeOfDay[word]
		}
	}
	return clock
}

// HasNameMarker reports whether text carries a name marker.
func HasNameMarker(text string) bool { return nameMarker.MatchString(text) }

// HasGoalMarker reports whether text carries a goal field or intent marker.
func HasGoalMarker(text string) bool { return goalMarker.MatchString(text) }

// HasToneMarker reports whether text carries a tone/motivation marker.
func HasToneMarker(text string) bool { return toneMarker.MatchString(text) }

// HasToneContext reports whether text is talking about coaching style at
// all; the tone keyword scan is restricted to such text.
func HasToneContext(text string) bool { return toneContext.MatchString(text) }

// HasOnboardingSignal is the intake gate-check: at least one of the three
// marker families must be present for extraction to be worth running.
func HasOnboardingSignal(text string) bool {
	return HasNameMarker(text) || HasGoalMarker(text) || HasToneMarker(text)
}

// FirstToneKeyword returns the earliest tone keyword occurring in text,
// or "" when none is present. Ties are broken by position in the text,
// not by keyword list order.
func FirstToneKeyword(text string) string {
	lower := strings.ToLower(text)
	best := -1
	found := ""
	for _, kw := range ToneKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			found = kw
		}
	}
	return found
}
