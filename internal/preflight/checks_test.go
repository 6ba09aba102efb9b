package preflight

import (
	"path/filepath"
	"testing"

	"auracoach/internal/database"
	"auracoach/internal/models"
)

func setupPreflightDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "preflight.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	return db
}

func validProviders() *models.ProvidersConfig {
	return &models.ProvidersConfig{
		Providers: []models.Provider{
			{
				Name:    "openai",
				BaseURL: "https://api.openai.com/v1",
				APIKey:  "test-key",
				Model:   "gpt-4o",
				Enabled: true,
			},
		},
	}
}

func TestCheckDatabaseConnection_Success(t *testing.T) {
	db := setupPreflightDB(t)

	checker := NewChecker(db, validProviders())
	result := checker.checkDatabaseConnection()

	if result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s'", result.Status)
	}
	if result.Name != "Database Connection" {
		t.Errorf("Expected name 'Database Connection', got '%s'", result.Name)
	}
}

func TestCheckDatabaseConnection_NoDatabase(t *testing.T) {
	checker := NewChecker(nil, validProviders())
	result := checker.checkDatabaseConnection()

	if result.Status != "warning" {
		t.Errorf("Expected status 'warning' without a database, got '%s'", result.Status)
	}
}

func TestCheckDatabaseSchema_Success(t *testing.T) {
	db := setupPreflightDB(t)

	checker := NewChecker(db, validProviders())
	result := checker.checkDatabaseSchema()

	if result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s': %s", result.Status, result.Message)
	}
}

func TestCheckDatabaseSchema_MissingTable(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	defer db.Close()

	// Not initialized: tables don't exist.
	checker := NewChecker(db, validProviders())
	result := checker.checkDatabaseSchema()

	if result.Status != "fail" {
		t.Errorf("Expected status 'fail', got '%s'", result.Status)
	}
}

func TestCheckProviders(t *testing.T) {
	tests := []struct {
		name      string
		providers *models.ProvidersConfig
		want      string
	}{
		{"valid provider", validProviders(), "pass"},
		{"nil config", nil, "fail"},
		{"no enabled provider", &models.ProvidersConfig{
			Providers: []models.Provider{{Name: "off", BaseURL: "https://x", Model: "m", Enabled: false}},
		}, "fail"},
		{"missing base url", &models.ProvidersConfig{
			Providers: []models.Provider{{Name: "bad", Model: "m", APIKey: "k", Enabled: true}},
		}, "fail"},
		{"missing api key", &models.ProvidersConfig{
			Providers: []models.Provider{{Name: "local", BaseURL: "http://localhost:11434/v1", Model: "llama3", Enabled: true}},
		}, "warning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(nil, tt.providers)
			result := checker.checkProviders()
			if result.Status != tt.want {
				t.Errorf("Expected status '%s', got '%s': %s", tt.want, result.Status, result.Message)
			}
		})
	}
}

func TestRunAll(t *testing.T) {
	db := setupPreflightDB(t)

	checker := NewChecker(db, validProviders())
	results := checker.RunAll()

	expectedChecks := map[string]bool{
		"Database Connection": false,
		"Database Schema":     false,
		"Providers":           false,
	}

	for _, result := range results {
		if _, exists := expectedChecks[result.Name]; exists {
			expectedChecks[result.Name] = true
		}
	}

	for checkName, ran := range expectedChecks {
		if !ran {
			t.Errorf("Expected check '%s' to run", checkName)
		}
	}
	if HasFailures(results) {
		t.Error("Expected no failures with a healthy setup")
	}
}

func TestHasFailures(t *testing.T) {
	results := []CheckResult{
		{Status: "pass"},
		{Status: "warning"},
	}
	if HasFailures(results) {
		t.Error("Expected no failures")
	}

	results = append(results, CheckResult{Status: "fail"})
	if !HasFailures(results) {
		t.Error("Expected failures to be detected")
	}
}
