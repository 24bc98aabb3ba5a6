package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OutlineStatusDraft      = "draft"
	OutlineStatusApproved   = "approved"
	OutlineStatusInProgress = "in_progress"
)

// ValidOutlineStatus reports whether s is a member of the outline status enum.
// Transitions between members are unconstrained on purpose; only membership is
// checked.
func ValidOutlineStatus(s string) bool {
	switch s {
	case OutlineStatusDraft, OutlineStatusApproved, OutlineStatusInProgress:
		return true
	}
	return false
}

// Outline is the ordered section plan for a subpillar's article. Logically
// 0-or-1 per subpillar; not enforced at the storage layer.
type Outline struct {
	ID          string           `gorm:"type:char(36);primaryKey" json:"id"`
	SubpillarID string           `gorm:"type:char(36);not null;index" json:"subpillarId"`
	Subpillar   *Subpillar       `gorm:"foreignKey:SubpillarID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedByID string           `gorm:"type:char(36);not null;index" json:"createdById"`
	Status      string           `gorm:"size:32;not null;default:draft" json:"status"`
	Sections    []OutlineSection `gorm:"foreignKey:OutlineID;constraint:OnDelete:CASCADE" json:"sections"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// OutlineSection is stored as a side table keyed by (outline_id, order_index)
// and always read back sorted ascending by order_index. The index is advisory
// ordering metadata; it is never recomputed after deletion.
type OutlineSection struct {
	SectionID     uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	OutlineID     string    `gorm:"type:char(36);not null;index:idx_outline_order,unique" json:"outlineId"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	OrderIndex    int       `gorm:"not null;index:idx_outline_order,unique" json:"orderIndex"`
	ContentPoints JSON      `gorm:"type:json" json:"contentPoints"`
	Content       string    `gorm:"type:text" json:"content,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ContentPoint is one research point of a section, flagged once content has
// been generated for it.
type ContentPoint struct {
	Point     string `json:"point"`
	Generated bool   `json:"generated"`
}

func (Outline) TableName() string        { return "outlines" }
func (OutlineSection) TableName() string { return "outline_sections" }

func (o *Outline) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (o *Outline) OwnerID() string { return o.CreatedByID }
