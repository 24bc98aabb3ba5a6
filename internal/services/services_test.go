package services

import (
	"testing"

	"github.com/localnerve/contentforge/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Niche{},
		&models.Pillar{},
		&models.Subpillar{},
		&models.Outline{},
		&models.OutlineSection{},
		&models.Article{},
		&models.ResearchNote{},
		&models.LLM{},
		&models.ContentGeneration{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// createTestLLM inserts a registry row so ledger rows have something to join
func createTestLLM(t *testing.T, db *gorm.DB) *models.LLM {
	row := models.LLM{
		Name:     "Claude Sonnet",
		Model:    "claude-sonnet-4-0",
		Provider: "anthropic",
		Active:   true,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("Failed to create LLM row: %v", err)
	}
	return &row
}
