package services

import (
	"errors"
	"log"

	"github.com/localnerve/contentforge/internal/models"
	"github.com/localnerve/contentforge/internal/types"
	"gorm.io/gorm"
)

// ContentService is the entity-store surface for the downstream content
// stages: articles and research notes under a subpillar. No status gate
// applies here; the pillar-approval gate upstream is the one that matters.
type ContentService struct {
	DB *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{DB: db}
}

// CreateArticle creates a draft article under a subpillar.
func (s *ContentService) CreateArticle(subpillarID, userID, title, content string) (*models.Article, error) {
	if title == "" {
		return nil, types.NewValidation("Article title is required")
	}
	subpillar, err := s.loadSubpillar(subpillarID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(subpillar, userID); err != nil {
		return nil, err
	}

	article := models.Article{
		SubpillarID: subpillarID,
		Title:       title,
		Content:     content,
		CreatedByID: userID,
		Status:      models.ArticleStatusDraft,
	}
	if err := s.DB.Create(&article).Error; err != nil {
		log.Printf("Failed to create article for subpillar %s: %v", subpillarID, err)
		return nil, types.NewStore("Failed to create article")
	}
	return &article, nil
}

// ListArticles returns the articles of a subpillar in creation order.
func (s *ContentService) ListArticles(subpillarID string) ([]models.Article, error) {
	var articles []models.Article
	if err := s.DB.Where("subpillar_id = ?", subpillarID).Order("created_at ASC").Find(&articles).Error; err != nil {
		log.Printf("Failed to list articles for subpillar %s: %v", subpillarID, err)
		return nil, types.NewStore("Failed to list articles")
	}
	return articles, nil
}

// DeleteArticle removes an article after an ownership check.
func (s *ContentService) DeleteArticle(id, userID string) error {
	var article models.Article
	if err := s.DB.First(&article, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.NewNotFound("Article not found")
		}
		log.Printf("Failed to load article %s: %v", id, err)
		return types.NewStore("Failed to load article")
	}
	if err := AssertOwner(&article, userID); err != nil {
		return err
	}
	if err := s.DB.Delete(&article).Error; err != nil {
		log.Printf("Failed to delete article %s: %v", id, err)
		return types.NewStore("Failed to delete article")
	}
	return nil
}

// CreateResearch records a research note under a subpillar.
func (s *ContentService) CreateResearch(subpillarID, userID, content, source string) (*models.ResearchNote, error) {
	if content == "" {
		return nil, types.NewValidation("Research content is required")
	}
	subpillar, err := s.loadSubpillar(subpillarID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(subpillar, userID); err != nil {
		return nil, err
	}

	note := models.ResearchNote{
		SubpillarID: subpillarID,
		Content:     content,
		Source:      source,
		CreatedByID: userID,
	}
	if err := s.DB.Create(&note).Error; err != nil {
		log.Printf("Failed to create research note for subpillar %s: %v", subpillarID, err)
		return nil, types.NewStore("Failed to create research note")
	}
	return &note, nil
}

// ListResearch returns the research notes of a subpillar in creation order.
func (s *ContentService) ListResearch(subpillarID string) ([]models.ResearchNote, error) {
	var notes []models.ResearchNote
	if err := s.DB.Where("subpillar_id = ?", subpillarID).Order("created_at ASC").Find(&notes).Error; err != nil {
		log.Printf("Failed to list research notes for subpillar %s: %v", subpillarID, err)
		return nil, types.NewStore("Failed to list research notes")
	}
	return notes, nil
}

func (s *ContentService) loadSubpillar(id string) (*models.Subpillar, error) {
	var subpillar models.Subpillar
	if err := s.DB.First(&subpillar, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFound("Subpillar not found")
		}
		log.Printf("Failed to load subpillar %s: %v", id, err)
		return nil, types.NewStore("Failed to load subpillar")
	}
	return &subpillar, nil
}
