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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/contentforge/internal/services"
	"github.com/localnerve/contentforge/internal/utils"
)

// WorkflowHandler handles the niche → pillar → subpillar routes
type WorkflowHandler struct {
	Workflow *services.WorkflowService
}

type createNicheRequest struct {
	Name string `json:"name"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// CreateNiche handles POST /api/niches
// @Summary Create a niche
// @Description Create a new pending niche owned by the caller
// @Tags Niches
// @Accept json
// @Produce json
// @Param body body createNicheRequest true "Niche name"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /niches [post]
func (h *WorkflowHandler) CreateNiche(c *fiber.Ctx) error {
	var req createNicheRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	niche, err := h.Workflow.CreateNiche(req.Name, requestUserID(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, niche, fiber.StatusCreated)
}

// ListNiches handles GET /api/niches
// @Summary List niches
// @Description List all niches owned by the caller
// @Tags Niches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /niches [get]
func (h *WorkflowHandler) ListNiches(c *fiber.Ctx) error {
	niches, err := h.Workflow.ListNiches(requestUserID(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, niches, fiber.StatusOK)
}

// GetNiche handles GET /api/niches/:id
// @Summary Get a niche
// @Tags Niches
// @Produce json
// @Param id path string true "Niche ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /niches/{id} [get]
func (h *WorkflowHandler) GetNiche(c *fiber.Ctx) error {
	niche, err := h.Workflow.GetNiche(c.Params("id"), requestUserID(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, niche, fiber.StatusOK)
}

// UpdateNicheStatus handles PUT /api/niches/:id/status
// @Summary Update niche status
// @Description Move a niche along its status transition graph
// @Tags Niches
// @Accept json
// @Produce json
// @Param id path string true "Niche ID"
// @Param body body updateStatusRequest true "Target status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /niches/{id}/status [put]
func (h *WorkflowHandler) UpdateNicheStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	niche, err := h.Workflow.UpdateNicheStatus(c.Params("id"), requestUserID(c), req.Status)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, niche, fiber.StatusOK)
}

// DeleteNiche handles DELETE /api/niches/:id
// @Summary Delete a niche
// @Description Delete a niche and cascade to its pillar tree
// @Tags Niches
// @Produce json
// @Param id path string true "Niche ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /niches/{id} [delete]
func (h *WorkflowHandler) DeleteNiche(c *fiber.Ctx) error {
	if err := h.Workflow.DeleteNiche(c.Params("id"), requestUserID(c)); err != nil {
		return err
	}
	return utils.DataResponse(c, fiber.Map{"deleted": true}, fiber.StatusOK)
}

// GeneratePillars handles POST /api/niches/:id/pillars/generate
// @Summary Generate pillars
// @Description Generate pillar topics for a niche via the configured model
// @Tags Pillars
// @Produce json
// @Param id path string true "Niche ID"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /niches/{id}/pillars/generate [post]
func (h *WorkflowHandler) GeneratePillars(c *fiber.Ctx) error {
	pillars, err := h.Workflow.GeneratePillars(c.Context(), c.Params("id"), requestUserID(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, pillars, fiber.StatusCreated)
}

// ListPillars handles GET /api/niches/:id/pillars
// @Summary List pillars of a niche
// @Tags Pillars
// @Produce json
// @Param id path string true "Niche ID"
// @Success 200 {object} map[string]interface{}
// @Router /niches/{id}/pillars [get]
func (h *WorkflowHandler) ListPillars(c *fiber.Ctx) error {
	pillars, err := h.Workflow.ListPillars(c.Params("id"), requestUserID(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, pillars, fiber.StatusOK)
}

// ApprovePillar handles PUT /api/pillars/:id/approve
// @Summary Approve a pillar
// @Description Move a pending pillar to approved, unlocking subpillar generation
// @Tags Pillars
// @Produce json
// @Param id path string true "Pillar ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /pillars/{id}/approve [put]
func (h *WorkflowHandler) ApprovePillar(c *fiber.Ctx) error {
	pillar, err := h.Workflow.ApprovePillar(c.Params("id"), requestUserID(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, pillar, fiber.StatusOK)
}

// DeletePillar handles DELETE /api/pillars/:id
// @Summary Delete a pillar
// @Tags Pillars
// @Produce json
// @Param id path string true "Pillar ID"
// @Success 200 {object} map[string]interface{}
// @Router /pillars/{id} [delete]
func (h *WorkflowHandler) DeletePillar(c *fiber.Ctx) error {
	if err := h.Workflow.DeletePillar(c.Params("id"), requestUserID(c)); err != nil {
		return err
	}
	return utils.DataResponse(c, fiber.Map{"deleted": true}, fiber.StatusOK)
}

// GenerateSubpillars handles POST /api/pillars/:id/subpillars/generate
// @Summary Generate subpillars
// @Description Generate subpillar topics for an approved pillar via the configured model
// @Tags Subpillars
// @Produce json
// @Param id path string true "Pillar ID"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /pillars/{id}/subpillars/generate [post]
func (h *WorkflowHandler) GenerateSubpillars(c *fiber.Ctx) error {
	subpillars, err := h.Workflow.GenerateSubpillars(c.Context(), c.Params("id"), requestUserID(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, subpillars, fiber.StatusCreated)
}

// ListSubpillars handles GET /api/pillars/:id/subpillars
// @Summary List subpillars of a pillar
// @Tags Subpillars
// @Produce json
// @Param id path string true "Pillar ID"
// @Success 200 {object} map[string]interface{}
// @Router /pillars/{id}/subpillars [get]
func (h *WorkflowHandler) ListSubpillars(c *fiber.Ctx) error {
	subpillars, err := h.Workflow.ListSubpillars(c.Params("id"), requestUserID(c))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, subpillars, fiber.StatusOK)
}

// DeleteSubpillar handles DELETE /api/subpillars/:id
// @Summary Delete a subpillar
// @Tags Subpillars
// @Produce json
// @Param id path string true "Subpillar ID"
// @Success 200 {object} map[string]interface{}
// @Router /subpillars/{id} [delete]
func (h *WorkflowHandler) DeleteSubpillar(c *fiber.Ctx) error {
	if err := h.Workflow.DeleteSubpillar(c.Params("id"), requestUserID(c)); err != nil {
		return err
	}
	return utils.DataResponse(c, fiber.Map{"deleted": true}, fiber.StatusOK)
}
