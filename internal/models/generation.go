package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentType discriminates which kind of content a ledger row was generated
// against. One table, tagged rows.
type ContentType string

const (
	ContentTypePillar    ContentType = "pillar"
	ContentTypeSubpillar ContentType = "subpillar"
	ContentTypeOutline   ContentType = "outline"
	ContentTypeArticle   ContentType = "article"
)

// Valid reports whether t is a member of the content type enum.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypePillar, ContentTypeSubpillar, ContentTypeOutline, ContentTypeArticle:
		return true
	}
	return false
}

const (
	GenerationStatusPending   = "pending"
	GenerationStatusCompleted = "completed"
	GenerationStatusFailed    = "failed"
)

// ValidGenerationStatus reports whether s is a member of the ledger status enum.
func ValidGenerationStatus(s string) bool {
	switch s {
	case GenerationStatusPending, GenerationStatusCompleted, GenerationStatusFailed:
		return true
	}
	return false
}

// ContentGeneration is one ledger row: a single LLM invocation attempt against
// a piece of content. ContentID and ContentType are immutable after insert;
// only Status, Error and Metadata ever change. Retries are new rows linked via
// metadata.retryOf, never mutations of the original.
type ContentGeneration struct {
	ID          string      `gorm:"type:char(36);primaryKey" json:"id"`
	ContentID   string      `gorm:"type:char(36);not null;index" json:"contentId"`
	ContentType ContentType `gorm:"size:32;not null;index" json:"contentType"`
	LLMID       string      `gorm:"type:char(36);index;column:llm_id" json:"llmId,omitempty"`
	LLM         *LLM        `gorm:"foreignKey:LLMID" json:"llm,omitempty"`
	Prompt      string      `gorm:"type:text;not null" json:"prompt"`
	Temperature float64     `gorm:"not null;default:0.7" json:"temperature"`
	MaxTokens   int         `gorm:"not null;default:1000" json:"maxTokens"`
	Status      string      `gorm:"size:32;not null;default:pending;index" json:"status"`
	Error       string      `gorm:"type:text" json:"error,omitempty"`
	Metadata    JSON        `gorm:"type:json" json:"metadata"`
	GeneratedAt time.Time   `gorm:"not null;index" json:"generatedAt"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// LLM is a registry row of static model metadata joined into ledger history
// for display.
type LLM struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Model     string    `gorm:"size:255;not null" json:"model"`
	Provider  string    `gorm:"size:64;not null" json:"provider"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ContentGeneration) TableName() string { return "content_generations" }
func (LLM) TableName() string               { return "llms" }

func (g *ContentGeneration) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.GeneratedAt.IsZero() {
		g.GeneratedAt = time.Now().UTC()
	}
	return nil
}

func (l *LLM) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
