package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status vocabularies for the content tree. Niche and Pillar share one
// vocabulary; Subpillar uses the ledger-path draft/active/archived set.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusInProgress = "in_progress"

	SubpillarStatusDraft    = "draft"
	SubpillarStatusActive   = "active"
	SubpillarStatusArchived = "archived"
)

// NichePillarSummary is one entry of the denormalized pillar summary stored on
// the niche row. It duplicates the pillars table and is rebuilt in the same
// transaction as every pillar write.
type NichePillarSummary struct {
	Title    string `json:"title"`
	Status   string `json:"status"`
	Approved bool   `json:"approved"`
}

// Niche is the root of the content tree, owned exclusively by its creating user.
type Niche struct {
	ID        string `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string `gorm:"size:255;not null" json:"name"`
	UserID    string `gorm:"type:char(36);not null;index" json:"userId"`
	Pillars   JSON   `gorm:"type:json" json:"pillars"`
	Progress  int    `gorm:"not null;default:0" json:"progress"`
	Status    string `gorm:"size:32;not null;default:pending" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pillar is a major topic generated under a niche.
type Pillar struct {
	ID          string `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	NicheID     string `gorm:"type:char(36);not null;index;constraint:OnDelete:CASCADE" json:"nicheId"`
	Niche       *Niche `gorm:"foreignKey:NicheID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedByID string `gorm:"type:char(36);not null;index" json:"createdById"`
	Status      string `gorm:"size:32;not null;default:pending" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subpillar is a sub-topic generated under an approved pillar.
type Subpillar struct {
	ID          string  `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	PillarID    string  `gorm:"type:char(36);not null;index" json:"pillarId"`
	Pillar      *Pillar `gorm:"foreignKey:PillarID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedByID string  `gorm:"type:char(36);not null;index" json:"createdById"`
	Status      string  `gorm:"size:32;not null;default:draft" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Niche) TableName() string     { return "niches" }
func (Pillar) TableName() string    { return "pillars" }
func (Subpillar) TableName() string { return "subpillars" }

func (n *Niche) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

func (p *Pillar) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (s *Subpillar) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// OwnerID implements the ownership guard contract. The niche owner key is the
// creating user.
func (n *Niche) OwnerID() string     { return n.UserID }
func (p *Pillar) OwnerID() string    { return p.CreatedByID }
func (s *Subpillar) OwnerID() string { return s.CreatedByID }
