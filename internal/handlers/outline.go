package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/contentforge/internal/services"
	"github.com/localnerve/contentforge/internal/types"
	"github.com/localnerve/contentforge/internal/utils"
)

// OutlineHandler handles the outline and section-editor routes
type OutlineHandler struct {
	Outlines *services.OutlineService
}

type createOutlineRequest struct {
	Sections types.FlexList[services.SectionInput] `json:"sections"`
}

type updateOutlineRequest struct {
	Sections types.FlexList[services.SectionInput] `json:"sections"`
}

// CreateOutline handles POST /api/subpillars/:id/outline
// @Summary Create an outline
// @Description Create a draft outline for a subpillar, optionally with initial sections
// @Tags Outlines
// @Accept json
// @Produce json
// @Param id path string true "Subpillar ID"
// @Param body body createOutlineRequest false "Initial sections"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /subpillars/{id}/outline [post]
func (h *OutlineHandler) CreateOutline(c *fiber.Ctx) error {
	var req createOutlineRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	outline, err := h.Outlines.CreateOutline(c.Params("id"), requestUserID(c), req.Sections.Slice())
	if err != nil {
		return err
	}
	return utils.DataResponse(c, outline, fiber.StatusCreated)
}

// GetOutline handles GET /api/outlines/:id
// @Summary Get an outline
// @Description Get an outline with sections sorted ascending by order index
// @Tags Outlines
// @Produce json
// @Param id path string true "Outline ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /outlines/{id} [get]
func (h *OutlineHandler) GetOutline(c *fiber.Ctx) error {
	outline, err := h.Outlines.GetOutline(c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, outline, fiber.StatusOK)
}

// UpdateOutline handles PUT /api/outlines/:id
// @Summary Replace all sections
// @Description Wholesale replace of the outline's section list
// @Tags Outlines
// @Accept json
// @Produce json
// @Param id path string true "Outline ID"
// @Param body body updateOutlineRequest true "Replacement sections"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /outlines/{id} [put]
func (h *OutlineHandler) UpdateOutline(c *fiber.Ctx) error {
	var req updateOutlineRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	outline, err := h.Outlines.ReplaceAllSections(c.Params("id"), requestUserID(c), req.Sections.Slice())
	if err != nil {
		return err
	}
	return utils.DataResponse(c, outline, fiber.StatusOK)
}

// AddSection handles POST /api/outlines/:id/sections
// @Summary Append a section
// @Tags Outlines
// @Accept json
// @Produce json
// @Param id path string true "Outline ID"
// @Param body body services.SectionInput true "New section"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /outlines/{id}/sections [post]
func (h *OutlineHandler) AddSection(c *fiber.Ctx) error {
	var section services.SectionInput
	if err := parseBody(c, &section); err != nil {
		return err
	}

	outline, err := h.Outlines.AddSection(c.Params("id"), requestUserID(c), section)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, outline, fiber.StatusCreated)
}

// UpdateSection handles PUT /api/outlines/:id/sections/:index
// @Summary Replace a section by position
// @Description Replace the section at a zero-based position of the sorted list
// @Tags Outlines
// @Accept json
// @Produce json
// @Param id path string true "Outline ID"
// @Param index path int true "Zero-based section position"
// @Param body body services.SectionInput true "Replacement section"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /outlines/{id}/sections/{index} [put]
func (h *OutlineHandler) UpdateSection(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return types.NewValidation("Invalid section index")
	}

	var section services.SectionInput
	if err := parseBody(c, &section); err != nil {
		return err
	}

	outline, err := h.Outlines.UpdateSection(c.Params("id"), requestUserID(c), index, section)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, outline, fiber.StatusOK)
}

// UpdateOutlineStatus handles PUT /api/outlines/:id/status
// @Summary Update outline status
// @Description Set the outline status to any member of the enum
// @Tags Outlines
// @Accept json
// @Produce json
// @Param id path string true "Outline ID"
// @Param body body updateStatusRequest true "Target status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /outlines/{id}/status [put]
func (h *OutlineHandler) UpdateOutlineStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	outline, err := h.Outlines.UpdateStatus(c.Params("id"), requestUserID(c), req.Status)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, outline, fiber.StatusOK)
}

// DeleteOutline handles DELETE /api/outlines/:id
// @Summary Delete an outline
// @Description Delete an outline and cascade to its sections
// @Tags Outlines
// @Produce json
// @Param id path string true "Outline ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /outlines/{id} [delete]
func (h *OutlineHandler) DeleteOutline(c *fiber.Ctx) error {
	if err := h.Outlines.DeleteOutline(c.Params("id"), requestUserID(c)); err != nil {
		return err
	}
	return utils.DataResponse(c, fiber.Map{"deleted": true}, fiber.StatusOK)
}
