package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
)

// Article is the merged long-form content for a subpillar.
type Article struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	SubpillarID string     `gorm:"type:char(36);not null;index" json:"subpillarId"`
	Subpillar   *Subpillar `gorm:"foreignKey:SubpillarID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Content     string     `gorm:"type:text" json:"content"`
	CreatedByID string     `gorm:"type:char(36);not null;index" json:"createdById"`
	Status      string     `gorm:"size:32;not null;default:draft" json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ResearchNote is a research finding collected for a subpillar.
type ResearchNote struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	SubpillarID string     `gorm:"type:char(36);not null;index" json:"subpillarId"`
	Subpillar   *Subpillar `gorm:"foreignKey:SubpillarID;constraint:OnDelete:CASCADE" json:"-"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Source      string     `gorm:"size:512" json:"source"`
	CreatedByID string     `gorm:"type:char(36);not null;index" json:"createdById"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Article) TableName() string      { return "articles" }
func (ResearchNote) TableName() string { return "research_notes" }

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (r *ResearchNote) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (a *Article) OwnerID() string      { return a.CreatedByID }
func (r *ResearchNote) OwnerID() string { return r.CreatedByID }
