package preflight

import (
	"fmt"
	"log"

	"auracoach/internal/database"
	"auracoach/internal/models"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before the server starts
type Checker struct {
	db        *database.DB
	providers *models.ProvidersConfig
}

// NewChecker creates a new preflight checker. db may be nil when the server
// runs on in-memory stores.
func NewChecker(db *database.DB, providers *models.ProvidersConfig) *Checker {
	return &Checker{db: db, providers: providers}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkDatabaseSchema(),
		c.checkProviders(),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDatabaseConnection verifies database connectivity
func (c *Checker) checkDatabaseConnection() CheckResult {
	if c.db == nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "warning",
			Message: "No database configured, profiles and turns are in-memory only",
		}
	}
	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}
	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: "Database connection successful",
	}
}

// checkDatabaseSchema verifies all required tables exist
func (c *Checker) checkDatabaseSchema() CheckResult {
	if c.db == nil {
		return CheckResult{
			Name:    "Database Schema",
			Status:  "warning",
			Message: "Skipped, no database configured",
		}
	}

	requiredTables := []string{"profiles", "turns"}
	for _, table := range requiredTables {
		var count int
		query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
		err := c.db.QueryRow(query, table).Scan(&count)
		if err != nil || count == 0 {
			return CheckResult{
				Name:    "Database Schema",
				Status:  "fail",
				Message: fmt.Sprintf("Required table '%s' not found", table),
				Error:   err,
			}
		}
	}

	return CheckResult{
		Name:    "Database Schema",
		Status:  "pass",
		Message: fmt.Sprintf("All %d required tables exist", len(requiredTables)),
	}
}

// checkProviders verifies at least one usable language model provider
func (c *Checker) checkProviders() CheckResult {
	if c.providers == nil {
		return CheckResult{
			Name:    "Providers",
			Status:  "fail",
			Message: "No providers configuration loaded",
		}
	}

	provider := c.providers.DefaultProvider()
	if provider == nil {
		return CheckResult{
			Name:    "Providers",
			Status:  "fail",
			Message: "No enabled provider in providers configuration",
		}
	}
	if provider.BaseURL == "" || provider.Model == "" {
		return CheckResult{
			Name:    "Providers",
			Status:  "fail",
			Message: fmt.Sprintf("Provider '%s' is missing base_url or model", provider.Name),
		}
	}
	if provider.APIKey == "" {
		return CheckResult{
			Name:    "Providers",
			Status:  "warning",
			Message: fmt.Sprintf("Provider '%s' has no API key configured", provider.Name),
		}
	}

	return CheckResult{
		Name:    "Providers",
		Status:  "pass",
		Message: fmt.Sprintf("Provider '%s' (%s) ready", provider.Name, provider.Model),
	}
}
