package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/contentforge/internal/models"
	"github.com/localnerve/contentforge/internal/services"
	"github.com/localnerve/contentforge/internal/utils"
)

// GenerationHandler handles the generation-attempt ledger routes
type GenerationHandler struct {
	Ledger *services.GenerationService
}

type recordAttemptRequest struct {
	ContentID    string   `json:"contentId"`
	ContentType  string   `json:"contentType"`
	LLMID        string   `json:"llmId"`
	Prompt       string   `json:"prompt"`
	CustomPrompt bool     `json:"customPrompt"`
	Temperature  *float64 `json:"temperature"`
	MaxTokens    *int     `json:"maxTokens"`
}

type updateGenerationStatusRequest struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type updateMetadataRequest struct {
	Metadata map[string]interface{} `json:"metadata"`
}

// RecordAttempt handles POST /api/generations
// @Summary Record a generation attempt
// @Description Insert a new pending ledger row for an LLM invocation
// @Tags Generations
// @Accept json
// @Produce json
// @Param body body recordAttemptRequest true "Attempt parameters"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /generations [post]
func (h *GenerationHandler) RecordAttempt(c *fiber.Ctx) error {
	var req recordAttemptRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	row, err := h.Ledger.RecordAttempt(models.ContentType(req.ContentType), req.ContentID, services.GenerationRequest{
		LLMID:        req.LLMID,
		Prompt:       req.Prompt,
		CustomPrompt: req.CustomPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		return err
	}
	return utils.DataResponse(c, row, fiber.StatusCreated)
}

// GetGeneration handles GET /api/generations/:id
// @Summary Get a generation attempt
// @Tags Generations
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /generations/{id} [get]
func (h *GenerationHandler) GetGeneration(c *fiber.Ctx) error {
	row, err := h.Ledger.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, row, fiber.StatusOK)
}

// UpdateStatus handles PUT /api/generations/:id/status
// @Summary Update attempt status
// @Description Move a ledger row to completed or failed; error text is meaningful with failed
// @Tags Generations
// @Accept json
// @Produce json
// @Param id path string true "Generation ID"
// @Param body body updateGenerationStatusRequest true "Status and optional error"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /generations/{id}/status [put]
func (h *GenerationHandler) UpdateStatus(c *fiber.Ctx) error {
	var req updateGenerationStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	row, err := h.Ledger.UpdateStatus(c.Params("id"), req.Status, req.Error)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, row, fiber.StatusOK)
}

// UpdateMetadata handles PUT /api/generations/:id/metadata
// @Summary Replace attempt metadata
// @Description Full replace of the metadata blob; read-modify-write to preserve prior keys
// @Tags Generations
// @Accept json
// @Produce json
// @Param id path string true "Generation ID"
// @Param body body updateMetadataRequest true "Replacement metadata"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /generations/{id}/metadata [put]
func (h *GenerationHandler) UpdateMetadata(c *fiber.Ctx) error {
	var req updateMetadataRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	row, err := h.Ledger.UpdateMetadata(c.Params("id"), req.Metadata)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, row, fiber.StatusOK)
}

// Retry handles POST /api/generations/:id/retry
// @Summary Retry a generation attempt
// @Description Create a new pending ledger row linked to the original via metadata.retryOf
// @Tags Generations
// @Produce json
// @Param id path string true "Generation ID"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /generations/{id}/retry [post]
func (h *GenerationHandler) Retry(c *fiber.Ctx) error {
	row, err := h.Ledger.Retry(c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, row, fiber.StatusCreated)
}

// History handles GET /api/generations/content/:contentId
// @Summary Generation history for a content id
// @Description All ledger rows for the content id, most recent first, with LLM metadata
// @Tags Generations
// @Produce json
// @Param contentId path string true "Content ID"
// @Success 200 {object} map[string]interface{}
// @Router /generations/content/{contentId} [get]
func (h *GenerationHandler) History(c *fiber.Ctx) error {
	rows, err := h.Ledger.History(c.Params("contentId"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, rows, fiber.StatusOK)
}
