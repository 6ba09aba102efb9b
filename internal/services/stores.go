package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"auracoach/internal/database"
	"auracoach/internal/models"
)

// ProfileStore persists coaching profiles.
type ProfileStore interface {
	// GetProfile returns the stored profile, or (nil, nil) when absent.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	// UpsertProfile merges a fragment into the stored profile and returns
	// the resulting profile.
	UpsertProfile(ctx context.Context, userID string, fragment models.ProfileFragment) (*models.Profile, error)
}

// ConversationStore persists chat turns.
type ConversationStore interface {
	// GetRecentTurns returns up to limit turns in chronological order.
	GetRecentTurns(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error)
	AppendTurn(ctx context.Context, userID string, turn models.ChatTurn) error
	// ListActiveUsers returns user IDs with at least one turn since the
	// given time. Used by the background suggestion job.
	ListActiveUsers(ctx context.Context, since time.Time) ([]string, error)
}

// SQLStores implements ProfileStore and ConversationStore on SQLite.
type SQLStores struct {
	db *database.DB
}

// NewSQLStores creates SQLite-backed profile and conversation stores.
func NewSQLStores(db *database.DB) *SQLStores {
	return &SQLStores{db: db}
}

// GetProfile implements ProfileStore.
func (s *SQLStores) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, goals, tone, extraction_confidence, extraction_warnings, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID)

	var p models.Profile
	var goalsJSON, warningsJSON, confidence string
	err := row.Scan(&p.UserID, &p.Name, &goalsJSON, &p.Tone, &confidence, &warningsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if err := json.Unmarshal([]byte(goalsJSON), &p.Goals); err != nil {
		return nil, fmt.Errorf("corrupt goals for user %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &p.ExtractionWarnings); err != nil {
		return nil, fmt.Errorf("corrupt warnings for user %s: %w", userID, err)
	}
	p.ExtractionConfidence, err = models.ParseConfidence(confidence)
	if err != nil {
		return nil, fmt.Errorf("corrupt confidence for user %s: %w", userID, err)
	}

	return &p, nil
}

// UpsertProfile implements ProfileStore. Only non-empty fragment fields
// overwrite what is already stored.
func (s *SQLStores) UpsertProfile(ctx context.Context, userID string, fragment models.ProfileFragment) (*models.Profile, error) {
	existing, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	merged := mergeFragment(existing, userID, fragment, now)

	goalsJSON, err := json.Marshal(merged.Goals)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal goals: %w", err)
	}
	warningsJSON, err := json.Marshal(merged.ExtractionWarnings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal warnings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, goals, tone, extraction_confidence, extraction_warnings, extracted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			goals = excluded.goals,
			tone = excluded.tone,
			extraction_confidence = excluded.extraction_confidence,
			extraction_warnings = excluded.extraction_warnings,
			extracted_at = excluded.extracted_at,
			updated_at = excluded.updated_at`,
		userID, merged.Name, string(goalsJSON), merged.Tone,
		merged.ExtractionConfidence.String(), string(warningsJSON),
		fragment.ExtractedAt, merged.CreatedAt, merged.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return merged, nil
}

// GetRecentTurns implements ConversationStore.
func (s *SQLStores) GetRecentTurns(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, created_at FROM turns
		WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ChatTurn
	for rows.Next() {
		var t models.ChatTurn
		if err := rows.Scan(&t.Role, &t.Text, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returned newest first; callers want chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// AppendTurn implements ConversationStore.
func (s *SQLStores) AppendTurn(ctx context.Context, userID string, turn models.ChatTurn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (user_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		userID, turn.Role, turn.Text, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// ListActiveUsers implements ConversationStore.
func (s *SQLStores) ListActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM turns WHERE created_at >= ?`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// mergeFragment overlays a fragment's non-empty fields onto an existing
// profile (or a fresh one).
func mergeFragment(existing *models.Profile, userID string, fragment models.ProfileFragment, now time.Time) *models.Profile {
	merged := &models.Profile{UserID: userID, CreatedAt: now}
	if existing != nil {
		*merged = *existing
	}
	if fragment.Name != "" {
		merged.Name = fragment.Name
	}
	if len(fragment.Goals) > 0 {
		merged.Goals = fragment.Goals
	}
	if fragment.Tone != "" {
		merged.Tone = fragment.Tone
	}
	merged.ExtractionConfidence = fragment.ExtractionConfidence
	merged.ExtractionWarnings = fragment.ExtractionWarnings
	merged.UpdatedAt = now
	return merged
}

// MemoryStores is the in-memory implementation of both stores, used in
// tests and when no database path is configured.
type MemoryStores struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	turns    map[string][]models.ChatTurn
}

// NewMemoryStores creates empty in-memory stores.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		profiles: make(map[string]*models.Profile),
		turns:    make(map[string][]models.ChatTurn),
	}
}

// GetProfile implements ProfileStore.
func (s *MemoryStores) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

// UpsertProfile implements ProfileStore.
func (s *MemoryStores) UpsertProfile(_ context.Context, userID string, fragment models.ProfileFragment) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := mergeFragment(s.profiles[userID], userID, fragment, time.Now().UTC())
	s.profiles[userID] = merged
	clone := *merged
	return &clone, nil
}

// GetRecentTurns implements ConversationStore.
func (s *MemoryStores) GetRecentTurns(_ context.Context, userID string, limit int) ([]models.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.turns[userID]
	start := 0
	if len(all) > limit {
		start = len(all) - limit
	}
	turns := make([]models.ChatTurn, len(all[start:]))
	copy(turns, all[start:])
	return turns, nil
}

// AppendTurn implements ConversationStore.
func (s *MemoryStores) AppendTurn(_ context.Context, userID string, turn models.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[userID] = append(s.turns[userID], turn)
	return nil
}

// ListActiveUsers implements ConversationStore.
func (s *MemoryStores) ListActiveUsers(_ context.Context, since time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []string
	for userID, turns := range s.turns {
		for _, turn := range turns {
			if !turn.Timestamp.Before(since) {
				users = append(users, userID)
				break
			}
		}
	}
	sort.Strings(users)
	return users, nil
}
