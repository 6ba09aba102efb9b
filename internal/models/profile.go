package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Confidence is the three-valued verdict attached to an extraction result.
// It gates whether the extracted fields are persisted automatically (High,
// Medium) or a clarification is requested instead (Low). The ordering
// Low < Medium < High is relied on by the intake gate.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalJSON serializes confidence as its string form ("high"/"medium"/"low").
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON parses the string form back into the enum.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConfidence converts the stored string form into a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	switch s {
	case "high":
		return ConfidenceHigh, nil
	case "medium":
		return ConfidenceMedium, nil
	case "low":
		return ConfidenceLow, nil
	default:
		return ConfidenceLow, fmt.Errorf("unknown confidence %q", s)
	}
}

// NoNameFound is the distinguished summary value meaning "no explicit name
// was present in the text". It is deliberately distinct from the empty
// string so that callers can tell "nothing extracted yet" apart from
// "extraction ran and found no name".
const NoNameFound = "__no_name__"

// Preferences holds coaching style preferences extracted from onboarding.
type Preferences struct {
	Tone string `json:"tone,omitempty"`
}

// ExtractionResult is the outcome of one onboarding extraction attempt.
// Immutable after construction; re-running extraction on the same text
// always produces an identical result.
type ExtractionResult struct {
	Summary     string      `json:"summary"`
	Goals       []string    `json:"goals"`
	Preferences Preferences `json:"preferences"`
	Confidence  Confidence  `json:"confidence"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// HasName reports whether an explicit name was extracted.
func (r ExtractionResult) HasName() bool {
	return r.Summary != NoNameFound && r.Summary != ""
}

// ProfileFragment is the subset of an ExtractionResult that is written to
// the profile store: only non-empty fields, plus extraction metadata kept
// for later auditing.
type ProfileFragment struct {
	Name                 string     `json:"name,omitempty"`
	Goals                []string   `json:"goals,omitempty"`
	Tone                 string     `json:"tone,omitempty"`
	ExtractedAt          time.Time  `json:"extracted_at"`
	ExtractionConfidence Confidence `json:"extraction_confidence"`
	ExtractionWarnings   []string   `json:"extraction_warnings,omitempty"`
}

// Profile is the stored coaching profile for a user.
type Profile struct {
	UserID               string     `json:"user_id"`
	Name                 string     `json:"name,omitempty"`
	Goals                []string   `json:"goals,omitempty"`
	Tone                 string     `json:"tone,omitempty"`
	ExtractionConfidence Confidence `json:"extraction_confidence"`
	ExtractionWarnings   []string   `json:"extraction_warnings,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
