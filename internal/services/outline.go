// outline.go
//
// Hierarchical content generation workflow service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of contentforge.
// contentforge is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// contentforge is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with contentforge.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/localnerve/contentforge/internal/models"
	"github.com/localnerve/contentforge/internal/types"
	"gorm.io/gorm"
)

// SectionInput is the caller-supplied shape of one outline section. OrderIndex
// is taken as given; the editor never rewrites indices.
type SectionInput struct {
	Title         string                `json:"title"`
	OrderIndex    types.FlexInt         `json:"orderIndex"`
	ContentPoints []models.ContentPoint `json:"contentPoints"`
	Content       string                `json:"content,omitempty"`
}

// OutlineService owns the outline tree and its ordered section list. Sections
// live in a side table keyed by (outline_id, order_index) and every read comes
// back sorted ascending, so replace operations are delete-then-reinsert inside
// one transaction.
type OutlineService struct {
	DB *gorm.DB
}

func NewOutlineService(db *gorm.DB) *OutlineService {
	return &OutlineService{DB: db}
}

// CreateOutline creates a draft outline for a subpillar. An outline per
// subpillar is a logical 0-or-1; a second create is not rejected here.
func (s *OutlineService) CreateOutline(subpillarID, userID string, sections []SectionInput) (*models.Outline, error) {
	var subpillar models.Subpillar
	if err := s.DB.First(&subpillar, "id = ?", subpillarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFound("Subpillar not found")
		}
		log.Printf("Failed to load subpillar %s: %v", subpillarID, err)
		return nil, types.NewStore("Failed to load subpillar")
	}
	if err := AssertOwner(&subpillar, userID); err != nil {
		return nil, err
	}

	outline := models.Outline{
		SubpillarID: subpillar.ID,
		CreatedByID: userID,
		Status:      models.OutlineStatusDraft,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&outline).Error; err != nil {
			return err
		}
		return insertSections(tx, outline.ID, sections)
	})
	if err != nil {
		log.Printf("Failed to create outline for subpillar %s: %v", subpillarID, err)
		return nil, types.NewStore("Failed to create outline")
	}

	return s.GetOutline(outline.ID)
}

// GetOutline returns an outline with its sections sorted ascending by
// order_index.
func (s *OutlineService) GetOutline(id string) (*models.Outline, error) {
	var outline models.Outline
	err := s.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		First(&outline, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFound("Outline not found")
		}
		log.Printf("Failed to load outline %s: %v", id, err)
		return nil, types.NewStore("Failed to load outline")
	}
	return &outline, nil
}

// AddSection appends a section as given. The order index is the caller's
// responsibility; no validation or rewrite happens here.
func (s *OutlineService) AddSection(outlineID, userID string, section SectionInput) (*models.Outline, error) {
	outline, err := s.GetOutline(outlineID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(outline, userID); err != nil {
		return nil, err
	}

	row, err := sectionRow(outlineID, section)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Create(row).Error; err != nil {
		log.Printf("Failed to add section to outline %s: %v", outlineID, err)
		return nil, types.NewStore("Failed to add section")
	}

	return s.GetOutline(outlineID)
}

// UpdateSection replaces the section at a zero-based position of the sorted
// list, leaving the list length and the stored order index unchanged.
func (s *OutlineService) UpdateSection(outlineID, userID string, index int, section SectionInput) (*models.Outline, error) {
	outline, err := s.GetOutline(outlineID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(outline, userID); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(outline.Sections) {
		return nil, types.NewValidation("Invalid section index")
	}

	target := outline.Sections[index]
	points, err := marshalContentPoints(section.ContentPoints)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":          section.Title,
		"content_points": points,
		"content":        section.Content,
	}
	if err := s.DB.Model(&models.OutlineSection{}).Where("section_id = ?", target.SectionID).Updates(updates).Error; err != nil {
		log.Printf("Failed to update section %d of outline %s: %v", index, outlineID, err)
		return nil, types.NewStore("Failed to update section")
	}

	return s.GetOutline(outlineID)
}

// ReplaceAllSections wholesale-replaces the section list. Delete and reinsert
// run in one transaction so concurrent readers never observe a partial list.
func (s *OutlineService) ReplaceAllSections(outlineID, userID string, sections []SectionInput) (*models.Outline, error) {
	outline, err := s.GetOutline(outlineID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(outline, userID); err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("outline_id = ?", outlineID).Delete(&models.OutlineSection{}).Error; err != nil {
			return err
		}
		return insertSections(tx, outlineID, sections)
	})
	if err != nil {
		log.Printf("Failed to replace sections of outline %s: %v", outlineID, err)
		return nil, types.NewStore("Failed to replace sections")
	}

	return s.GetOutline(outlineID)
}

// UpdateStatus sets the outline status to any member of the enum. Transitions
// are unconstrained by design; only ownership and enum membership are checked.
func (s *OutlineService) UpdateStatus(outlineID, userID, status string) (*models.Outline, error) {
	if !models.ValidOutlineStatus(status) {
		return nil, types.NewValidation("Invalid outline status")
	}

	outline, err := s.GetOutline(outlineID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(outline, userID); err != nil {
		return nil, err
	}

	if err := s.DB.Model(outline).Update("status", status).Error; err != nil {
		log.Printf("Failed to update status of outline %s: %v", outlineID, err)
		return nil, types.NewStore("Failed to update outline status")
	}
	outline.Status = status
	return outline, nil
}

// DeleteOutline removes an outline and cascades to its sections.
func (s *OutlineService) DeleteOutline(outlineID, userID string) error {
	outline, err := s.GetOutline(outlineID)
	if err != nil {
		return err
	}
	if err := AssertOwner(outline, userID); err != nil {
		return err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("outline_id = ?", outlineID).Delete(&models.OutlineSection{}).Error; err != nil {
			return err
		}
		return tx.Delete(outline).Error
	})
	if err != nil {
		log.Printf("Failed to delete outline %s: %v", outlineID, err)
		return types.NewStore("Failed to delete outline")
	}
	return nil
}

func insertSections(tx *gorm.DB, outlineID string, sections []SectionInput) error {
	for _, section := range sections {
		row, err := sectionRow(outlineID, section)
		if err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
	}
	return nil
}

func sectionRow(outlineID string, section SectionInput) (*models.OutlineSection, error) {
	points, err := marshalContentPoints(section.ContentPoints)
	if err != nil {
		return nil, err
	}
	return &models.OutlineSection{
		OutlineID:     outlineID,
		Title:         section.Title,
		OrderIndex:    section.OrderIndex.Int(),
		ContentPoints: points,
		Content:       section.Content,
	}, nil
}

func marshalContentPoints(points []models.ContentPoint) (models.JSON, error) {
	if points == nil {
		points = []models.ContentPoint{}
	}
	blob, err := json.Marshal(points)
	if err != nil {
		return models.JSON{}, types.NewValidation("Content points are not serializable")
	}
	var j models.JSON
	if err := j.Scan(blob); err != nil {
		return models.JSON{}, types.NewValidation("Content points are not serializable")
	}
	return j, nil
}
