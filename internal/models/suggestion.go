package models

// SuggestionKind classifies what a conversational turn was really asking for.
type SuggestionKind string

const (
	KindDailyGoal    SuggestionKind = "daily_goal"
	KindLongtermGoal SuggestionKind = "longterm_goal"
	KindEvent        SuggestionKind = "event"
)

// ValidSuggestionKind reports whether k is one of the known kinds.
func ValidSuggestionKind(k SuggestionKind) bool {
	switch k {
	case KindDailyGoal, KindLongtermGoal, KindEvent:
		return true
	}
	return false
}

// Recurrence describes how often a recurring event repeats.
type Recurrence string

const (
	RecurDaily    Recurrence = "daily"
	RecurWeekly   Recurrence = "weekly"
	RecurBiweekly Recurrence = "biweekly"
	RecurMonthly  Recurrence = "monthly"
	RecurYearly   Recurrence = "yearly"
)

// Suggestion is a proposed goal or calendar event inferred from recent
// conversation, offered to the user for one-click acceptance. Produced per
// request, immutable, discarded after being surfaced; the caller persists
// it as a goal/event record if the user accepts.
type Suggestion struct {
	ID            string         `json:"id"`
	Kind          SuggestionKind `json:"kind"`
	Text          string         `json:"text"`
	Reasoning     string         `json:"reasoning"`
	EventDate     string         `json:"event_date,omitempty"` // YYYY-MM-DD
	EventTime     string         `json:"event_time,omitempty"` // HH:mm
	Recurring     Recurrence     `json:"recurring,omitempty"`
	RecurringDays []int          `json:"recurring_days,omitempty"` // 0..6, Sunday=0
}
