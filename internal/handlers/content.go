package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/contentforge/internal/services"
	"github.com/localnerve/contentforge/internal/utils"
)

// ContentHandler handles the article and research routes under a subpillar
type ContentHandler struct {
	Content *services.ContentService
}

type createArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type createResearchRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// CreateArticle handles POST /api/subpillars/:id/articles
// @Summary Create an article
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Subpillar ID"
// @Param body body createArticleRequest true "Article"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /subpillars/{id}/articles [post]
func (h *ContentHandler) CreateArticle(c *fiber.Ctx) error {
	var req createArticleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	article, err := h.Content.CreateArticle(c.Params("id"), requestUserID(c), req.Title, req.Content)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, article, fiber.StatusCreated)
}

// ListArticles handles GET /api/subpillars/:id/articles
// @Summary List articles of a subpillar
// @Tags Content
// @Produce json
// @Param id path string true "Subpillar ID"
// @Success 200 {object} map[string]interface{}
// @Router /subpillars/{id}/articles [get]
func (h *ContentHandler) ListArticles(c *fiber.Ctx) error {
	articles, err := h.Content.ListArticles(c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, articles, fiber.StatusOK)
}

// DeleteArticle handles DELETE /api/articles/:id
// @Summary Delete an article
// @Tags Content
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /articles/{id} [delete]
func (h *ContentHandler) DeleteArticle(c *fiber.Ctx) error {
	if err := h.Content.DeleteArticle(c.Params("id"), requestUserID(c)); err != nil {
		return err
	}
	return utils.DataResponse(c, fiber.Map{"deleted": true}, fiber.StatusOK)
}

// CreateResearch handles POST /api/subpillars/:id/research
// @Summary Record a research note
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Subpillar ID"
// @Param body body createResearchRequest true "Research note"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /subpillars/{id}/research [post]
func (h *ContentHandler) CreateResearch(c *fiber.Ctx) error {
	var req createResearchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	note, err := h.Content.CreateResearch(c.Params("id"), requestUserID(c), req.Content, req.Source)
	if err != nil {
		return err
	}
	return utils.DataResponse(c, note, fiber.StatusCreated)
}

// ListResearch handles GET /api/subpillars/:id/research
// @Summary List research notes of a subpillar
// @Tags Content
// @Produce json
// @Param id path string true "Subpillar ID"
// @Success 200 {object} map[string]interface{}
// @Router /subpillars/{id}/research [get]
func (h *ContentHandler) ListResearch(c *fiber.Ctx) error {
	notes, err := h.Content.ListResearch(c.Params("id"))
	if err != nil {
		return err
	}
	return utils.DataResponse(c, notes, fiber.StatusOK)
}
