package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"auracoach/internal/patterns"
)

// DefaultEventTime is used when a message mentions no time at all.
const DefaultEventTime = "10:00"

// NormalizedDateTime is a concrete calendar coordinate derived from a
// relative phrase.
type NormalizedDateTime struct {
	Date string // YYYY-MM-DD
	Time string // HH:mm, 24-hour
}

// NormalizeDateTime converts relative date/time phrases in text into
// concrete calendar coordinates. Pure function of (text, now); callers
// inject now so tests need no clock mocking.
//
// Time resolution: an explicit H[:MM][am|pm] pattern wins over a
// time-of-day word (morning/noon/afternoon/evening/night); neither present
// means 10:00. Date resolution: "tomorrow" is +1 day, "next <weekday>" and
// bare weekday names resolve to the next occurrence strictly after today,
// and everything else is today.
func NormalizeDateTime(text string, now time.Time) NormalizedDateTime {
	clock := patterns.TimeOfDayIn(text)
	if explicit, ok := explicitTimeIn(text); ok {
		clock = explicit
	}
	if clock == "" {
		clock = DefaultEventTime
	}

	date := now
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "tomorrow"):
		date = now.AddDate(0, 0, 1)
	default:
		if days := patterns.WeekdaysIn(text); len(days) > 0 {
			// First mentioned weekday drives the date; later mentions only
			// matter for recurrence.
			target := firstWeekdayMentioned(lower)
			offset := (target - int(now.Weekday()) + 7) % 7
			if offset <= 0 {
				offset += 7
			}
			date = now.AddDate(0, 0, offset)
		}
	}

	return NormalizedDateTime{
		Date: date.Format("2006-01-02"),
		Time: clock,
	}
}

// firstWeekdayMentioned returns the weekday index of the earliest weekday
// name in the lowercased text.
func firstWeekdayMentioned(lower string) int {
	best := -1
	day := 0
	for name, idx := range patterns.Weekdays {
		pos := strings.Index(lower, name)
		if pos >= 0 && (best < 0 || pos < best) {
			best = pos
			day = idx
		}
	}
	return day
}

// explicitTimeIn extracts an explicit clock time like "3pm", "15:30" or
// "7:15am". 12-hour values are normalized to 24-hour: 12am is 00:00 and
// 12pm is 12:00.
func explicitTimeIn(text string) (string, bool) {
	m := patterns.ExplicitTime.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	var hourStr, minStr, meridiem string
	if m[1] != "" {
		hourStr, minStr, meridiem = m[1], m[2], m[3]
	} else {
		hourStr, minStr, meridiem = m[4], "", m[5]
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour > 23 {
		return "", false
	}
	minute := 0
	if minStr != "" {
		minute, _ = strconv.Atoi(minStr)
	}

	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
