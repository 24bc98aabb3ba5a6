// workflow.go
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
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/localnerve/contentforge/internal/llm"
	"github.com/localnerve/contentforge/internal/models"
	"github.com/localnerve/contentforge/internal/types"
	"gorm.io/gorm"
)

// nicheTransitions is the allowed niche status graph. Rejected niches may be
// resubmitted back to pending.
var nicheTransitions = map[string][]string{
	models.StatusPending:    {models.StatusInProgress},
	models.StatusInProgress: {models.StatusApproved, models.StatusRejected},
	models.StatusRejected:   {models.StatusPending},
}

// WorkflowService governs the niche → pillar → subpillar tree: creation,
// approval and generation gating. Generated batches are all-or-nothing; a
// failed model call or empty parse never leaves partial children behind.
type WorkflowService struct {
	DB        *gorm.DB
	Generator llm.Generator
	Ledger    *GenerationService
	LLMID     string
}

func NewWorkflowService(db *gorm.DB, generator llm.Generator, ledger *GenerationService, llmID string) *WorkflowService {
	return &WorkflowService{DB: db, Generator: generator, Ledger: ledger, LLMID: llmID}
}

// CreateNiche creates a pending niche owned by userID.
func (s *WorkflowService) CreateNiche(name, userID string) (*models.Niche, error) {
	if name == "" {
		return nil, types.NewValidation("Niche name is required")
	}

	niche := models.Niche{
		Name:   name,
		UserID: userID,
		Status: models.StatusPending,
	}
	if err := s.DB.Create(&niche).Error; err != nil {
		log.Printf("Failed to create niche: %v", err)
		return nil, types.NewStore("Failed to create niche")
	}
	return &niche, nil
}

// GetNiche returns a niche after an ownership check.
func (s *WorkflowService) GetNiche(id, userID string) (*models.Niche, error) {
	niche, err := s.findNiche(id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(niche, userID); err != nil {
		return nil, err
	}
	return niche, nil
}

// ListNiches returns all niches owned by userID.
func (s *WorkflowService) ListNiches(userID string) ([]models.Niche, error) {
	var niches []models.Niche
	if err := s.DB.Where("user_id = ?", userID).Order("created_at ASC").Find(&niches).Error; err != nil {
		log.Printf("Failed to list niches for %s: %v", userID, err)
		return nil, types.NewStore("Failed to list niches")
	}
	return niches, nil
}

// UpdateNicheStatus moves a niche along its transition graph.
func (s *WorkflowService) UpdateNicheStatus(id, userID, status string) (*models.Niche, error) {
	niche, err := s.findNiche(id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(niche, userID); err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range nicheTransitions[niche.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, types.NewValidation("Invalid niche status transition")
	}

	if err := s.DB.Model(niche).Update("status", status).Error; err != nil {
		log.Printf("Failed to update niche %s status: %v", id, err)
		return nil, types.NewStore("Failed to update niche status")
	}
	niche.Status = status
	return niche, nil
}

// DeleteNiche removes a niche and cascades to its pillars, subpillars and
// outlines.
func (s *WorkflowService) DeleteNiche(id, userID string) error {
	niche, err := s.findNiche(id)
	if err != nil {
		return err
	}
	if err := AssertOwner(niche, userID); err != nil {
		return err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var pillarIDs []string
		if err := tx.Model(&models.Pillar{}).Where("niche_id = ?", id).Pluck("id", &pillarIDs).Error; err != nil {
			return err
		}
		if len(pillarIDs) > 0 {
			if err := deleteSubpillarTrees(tx, pillarIDs); err != nil {
				return err
			}
			if err := tx.Where("niche_id = ?", id).Delete(&models.Pillar{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(niche).Error
	})
	if err != nil {
		log.Printf("Failed to delete niche %s: %v", id, err)
		return types.NewStore("Failed to delete niche")
	}
	return nil
}

// GeneratePillars asks the model for pillar topics of the niche and persists
// one pending pillar per parsed title in a single transaction, moving the
// niche to in_progress and rebuilding its denormalized pillar summary. The
// attempt is recorded in the ledger before the model call and resolved after.
func (s *WorkflowService) GeneratePillars(ctx context.Context, nicheID, userID string) ([]models.Pillar, error) {
	niche, err := s.findNiche(nicheID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(niche, userID); err != nil {
		return nil, err
	}

	prompt := llm.PillarPrompt(niche.Name)
	titles, err := s.generateTitles(ctx, models.ContentTypePillar, niche.ID, prompt)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, types.NewValidation("Failed to generate valid pillars from AI response")
	}

	var pillars []models.Pillar
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, title := range titles {
			pillar := models.Pillar{
				Title:       title,
				NicheID:     niche.ID,
				CreatedByID: userID,
				Status:      models.StatusPending,
			}
			if err := tx.Create(&pillar).Error; err != nil {
				return err
			}
			pillars = append(pillars, pillar)
		}

		updates := map[string]interface{}{}
		if niche.Status == models.StatusPending {
			updates["status"] = models.StatusInProgress
		}
		summary, err := pillarSummary(tx, niche.ID)
		if err != nil {
			return err
		}
		updates["pillars"] = summary

		return tx.Model(niche).Updates(updates).Error
	})
	if err != nil {
		log.Printf("Failed to persist generated pillars for niche %s: %v", nicheID, err)
		return nil, types.NewStore("Failed to persist generated pillars")
	}

	return pillars, nil
}

// ApprovePillar moves a pending pillar to approved, unlocking subpillar
// generation, and refreshes the niche pillar summary.
func (s *WorkflowService) ApprovePillar(pillarID, userID string) (*models.Pillar, error) {
	pillar, err := s.findPillar(pillarID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(pillar, userID); err != nil {
		return nil, err
	}
	if pillar.Status != models.StatusPending {
		return nil, types.NewValidation("Can only approve pending pillars")
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(pillar).Update("status", models.StatusApproved).Error; err != nil {
			return err
		}
		summary, err := pillarSummary(tx, pillar.NicheID)
		if err != nil {
			return err
		}
		return tx.Model(&models.Niche{}).Where("id = ?", pillar.NicheID).Update("pillars", summary).Error
	})
	if err != nil {
		log.Printf("Failed to approve pillar %s: %v", pillarID, err)
		return nil, types.NewStore("Failed to approve pillar")
	}

	pillar.Status = models.StatusApproved
	return pillar, nil
}

// ListPillars returns the pillars of a niche in creation order.
func (s *WorkflowService) ListPillars(nicheID, userID string) ([]models.Pillar, error) {
	niche, err := s.findNiche(nicheID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(niche, userID); err != nil {
		return nil, err
	}

	var pillars []models.Pillar
	if err := s.DB.Where("niche_id = ?", nicheID).Order("created_at ASC").Find(&pillars).Error; err != nil {
		log.Printf("Failed to list pillars for niche %s: %v", nicheID, err)
		return nil, types.NewStore("Failed to list pillars")
	}
	return pillars, nil
}

// DeletePillar removes a pillar, its subpillar tree and the niche summary entry.
func (s *WorkflowService) DeletePillar(pillarID, userID string) error {
	pillar, err := s.findPillar(pillarID)
	if err != nil {
		return err
	}
	if err := AssertOwner(pillar, userID); err != nil {
		return err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteSubpillarTrees(tx, []string{pillar.ID}); err != nil {
			return err
		}
		if err := tx.Delete(pillar).Error; err != nil {
			return err
		}
		summary, err := pillarSummary(tx, pillar.NicheID)
		if err != nil {
			return err
		}
		return tx.Model(&models.Niche{}).Where("id = ?", pillar.NicheID).Update("pillars", summary).Error
	})
	if err != nil {
		log.Printf("Failed to delete pillar %s: %v", pillarID, err)
		return types.NewStore("Failed to delete pillar")
	}
	return nil
}

// GenerateSubpillars asks the model for exactly llm.SubpillarCount sub-topics
// of an approved pillar and persists them as draft subpillars in a single
// transaction. Non-approved pillars are rejected before any model call.
func (s *WorkflowService) GenerateSubpillars(ctx context.Context, pillarID, userID string) ([]models.Subpillar, error) {
	pillar, err := s.findPillar(pillarID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(pillar, userID); err != nil {
		return nil, err
	}
	if pillar.Status != models.StatusApproved {
		return nil, types.NewValidation("Can only generate subpillars for approved pillars")
	}

	prompt := llm.SubpillarPrompt(pillar.Title)
	titles, err := s.generateTitles(ctx, models.ContentTypeSubpillar, pillar.ID, prompt)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, types.NewValidation("Failed to generate valid subpillars from AI response")
	}

	var subpillars []models.Subpillar
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, title := range titles {
			subpillar := models.Subpillar{
				Title:       title,
				PillarID:    pillar.ID,
				CreatedByID: userID,
				Status:      models.SubpillarStatusDraft,
			}
			if err := tx.Create(&subpillar).Error; err != nil {
				return err
			}
			subpillars = append(subpillars, subpillar)
		}
		return nil
	})
	if err != nil {
		log.Printf("Failed to persist generated subpillars for pillar %s: %v", pillarID, err)
		return nil, types.NewStore("Failed to persist generated subpillars")
	}

	return subpillars, nil
}

// ListSubpillars returns the subpillars of a pillar in creation order.
func (s *WorkflowService) ListSubpillars(pillarID, userID string) ([]models.Subpillar, error) {
	pillar, err := s.findPillar(pillarID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(pillar, userID); err != nil {
		return nil, err
	}

	var subpillars []models.Subpillar
	if err := s.DB.Where("pillar_id = ?", pillarID).Order("created_at ASC").Find(&subpillars).Error; err != nil {
		log.Printf("Failed to list subpillars for pillar %s: %v", pillarID, err)
		return nil, types.NewStore("Failed to list subpillars")
	}
	return subpillars, nil
}

// DeleteSubpillar removes a subpillar and its outlines, articles and research.
func (s *WorkflowService) DeleteSubpillar(subpillarID, userID string) error {
	var subpillar models.Subpillar
	if err := s.DB.First(&subpillar, "id = ?", subpillarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NewNotFound("Subpillar not found")
		}
		log.Printf("Failed to load subpillar %s: %v", subpillarID, err)
		return types.NewStore("Failed to load subpillar")
	}
	if err := AssertOwner(&subpillar, userID); err != nil {
		return err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteSubpillarChildren(tx, []string{subpillar.ID}); err != nil {
			return err
		}
		return tx.Delete(&subpillar).Error
	})
	if err != nil {
		log.Printf("Failed to delete subpillar %s: %v", subpillarID, err)
		return types.NewStore("Failed to delete subpillar")
	}
	return nil
}

// generateTitles records the ledger attempt, calls the model and parses the
// numbered list. The ledger row ends completed or failed; parse results are
// returned to the caller to decide batch creation.
func (s *WorkflowService) generateTitles(ctx context.Context, contentType models.ContentType, contentID, prompt string) ([]string, error) {
	attempt, err := s.Ledger.RecordAttempt(contentType, contentID, GenerationRequest{
		LLMID:  s.LLMID,
		Prompt: prompt,
	})
	if err != nil {
		return nil, err
	}

	response, err := s.Generator.Generate(ctx, prompt, llm.Options{
		Temperature: attempt.Temperature,
		MaxTokens:   attempt.MaxTokens,
	})
	if err != nil {
		log.Printf("Model call failed for %s %s: %v", contentType, contentID, err)
		if _, lerr := s.Ledger.UpdateStatus(attempt.ID, models.GenerationStatusFailed, err.Error()); lerr != nil {
			log.Printf("Failed to mark generation %s failed: %v", attempt.ID, lerr)
		}
		return nil, types.NewAIService("AI generation failed")
	}

	titles := llm.ParseNumberedList(response)
	if len(titles) == 0 {
		if _, lerr := s.Ledger.UpdateStatus(attempt.ID, models.GenerationStatusFailed, "no valid items in model response"); lerr != nil {
			log.Printf("Failed to mark generation %s failed: %v", attempt.ID, lerr)
		}
		return nil, nil
	}

	if _, lerr := s.Ledger.UpdateStatus(attempt.ID, models.GenerationStatusCompleted, ""); lerr != nil {
		log.Printf("Failed to mark generation %s completed: %v", attempt.ID, lerr)
	}

	return titles, nil
}

func (s *WorkflowService) findNiche(id string) (*models.Niche, error) {
	var niche models.Niche
	if err := s.DB.First(&niche, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFound("Niche not found")
		}
		log.Printf("Failed to load niche %s: %v", id, err)
		return nil, types.NewStore("Failed to load niche")
	}
	return &niche, nil
}

func (s *WorkflowService) findPillar(id string) (*models.Pillar, error) {
	var pillar models.Pillar
	if err := s.DB.First(&pillar, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFound("Pillar not found")
		}
		log.Printf("Failed to load pillar %s: %v", id, err)
		return nil, types.NewStore("Failed to load pillar")
	}
	return &pillar, nil
}

// pillarSummary rebuilds the denormalized niche.pillars projection from the
// pillars table inside the caller's transaction.
func pillarSummary(tx *gorm.DB, nicheID string) (models.JSON, error) {
	var pillars []models.Pillar
	if err := tx.Where("niche_id = ?", nicheID).Order("created_at ASC").Find(&pillars).Error; err != nil {
		return models.JSON{}, err
	}

	summary := make([]models.NichePillarSummary, 0, len(pillars))
	for _, p := range pillars {
		summary = append(summary, models.NichePillarSummary{
			Title:    p.Title,
			Status:   p.Status,
			Approved: p.Status == models.StatusApproved,
		})
	}

	blob, err := json.Marshal(summary)
	if err != nil {
		return models.JSON{}, err
	}
	var j models.JSON
	if err := j.Scan(blob); err != nil {
		return models.JSON{}, err
	}
	return j, nil
}

// deleteSubpillarTrees removes all subpillars of the given pillars together
// with their outlines, sections, articles and research notes.
func deleteSubpillarTrees(tx *gorm.DB, pillarIDs []string) error {
	var subpillarIDs []string
	if err := tx.Model(&models.Subpillar{}).Where("pillar_id IN ?", pillarIDs).Pluck("id", &subpillarIDs).Error; err != nil {
		return err
	}
	if len(subpillarIDs) > 0 {
		if err := deleteSubpillarChildren(tx, subpillarIDs); err != nil {
			return err
		}
		if err := tx.Where("pillar_id IN ?", pillarIDs).Delete(&models.Subpillar{}).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteSubpillarChildren(tx *gorm.DB, subpillarIDs []string) error {
	var outlineIDs []string
	if err := tx.Model(&models.Outline{}).Where("subpillar_id IN ?", subpillarIDs).Pluck("id", &outlineIDs).Error; err != nil {
		return err
	}
	if len(outlineIDs) > 0 {
		if err := tx.Where("outline_id IN ?", outlineIDs).Delete(&models.OutlineSection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subpillar_id IN ?", subpillarIDs).Delete(&models.Outline{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("subpillar_id IN ?", subpillarIDs).Delete(&models.Article{}).Error; err != nil {
		return err
	}
	return tx.Where("subpillar_id IN ?", subpillarIDs).Delete(&models.ResearchNote{}).Error
}
