package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/localnerve/contentforge/internal/models"
	"github.com/localnerve/contentforge/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// GenerationRequest carries the parameters of one LLM invocation to record.
type GenerationRequest struct {
	LLMID        string
	Prompt       string
	CustomPrompt bool
	Temperature  *float64
	MaxTokens    *int
}

// GenerationService is the generation-attempt ledger. Rows are created once
// per invocation attempt and never mutated except status, error and metadata;
// retries are always new rows linked via metadata.retryOf. Status and metadata
// writes are last-writer-wins, there is no optimistic concurrency token.
type GenerationService struct {
	DB *gorm.DB
}

func NewGenerationService(db *gorm.DB) *GenerationService {
	return &GenerationService{DB: db}
}

// RecordAttempt inserts a new pending ledger row. Temperature and max tokens
// fall back to the service defaults; the metadata snapshot records the request
// parameters and whether a custom prompt was supplied, without duplicating the
// prompt text.
func (s *GenerationService) RecordAttempt(contentType models.ContentType, contentID string, req GenerationRequest) (*models.ContentGeneration, error) {
	if !contentType.Valid() {
		return nil, types.NewValidation("Invalid content type")
	}
	if contentID == "" {
		return nil, types.NewValidation("Content id is required")
	}
	if req.Prompt == "" {
		return nil, types.NewValidation("Prompt is required")
	}

	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	metadata, err := marshalMetadata(map[string]interface{}{
		"temperature":     temperature,
		"maxTokens":       maxTokens,
		"hasCustomPrompt": req.CustomPrompt,
	})
	if err != nil {
		return nil, err
	}

	row := models.ContentGeneration{
		ContentID:   contentID,
		ContentType: contentType,
		LLMID:       req.LLMID,
		Prompt:      req.Prompt,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Status:      models.GenerationStatusPending,
		Metadata:    metadata,
		GeneratedAt: time.Now().UTC(),
	}

	if err := s.DB.Create(&row).Error; err != nil {
		log.Printf("Failed to record generation attempt: %v", err)
		return nil, types.NewStore("Failed to record generation attempt")
	}

	return &row, nil
}

// UpdateStatus sets the status of a ledger row, with errMsg meaningful only
// alongside failed. Repeated status writes are allowed.
func (s *GenerationService) UpdateStatus(id, status, errMsg string) (*models.ContentGeneration, error) {
	if !models.ValidGenerationStatus(status) {
		return nil, types.NewValidation("Invalid generation status")
	}

	row, err := s.find(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": status, "error": errMsg}
	if err := s.DB.Model(row).Updates(updates).Error; err != nil {
		log.Printf("Failed to update generation %s status: %v", id, err)
		return nil, types.NewStore("Failed to update generation status")
	}

	row.Status = status
	row.Error = errMsg
	return row, nil
}

// UpdateMetadata fully replaces the metadata blob. Callers who want to keep
// prior metadata must read-modify-write.
func (s *GenerationService) UpdateMetadata(id string, metadata map[string]interface{}) (*models.ContentGeneration, error) {
	row, err := s.find(id)
	if err != nil {
		return nil, err
	}

	blob, err := marshalMetadata(metadata)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(row).Update("metadata", blob).Error; err != nil {
		log.Printf("Failed to update generation %s metadata: %v", id, err)
		return nil, types.NewStore("Failed to update generation metadata")
	}

	row.Metadata = blob
	return row, nil
}

// Retry creates a new pending ledger row copying the request parameters of the
// original, with lineage metadata pointing back at it. The original row is
// untouched; following retryOf pointers reconstructs the full retry history.
func (s *GenerationService) Retry(id string) (*models.ContentGeneration, error) {
	original, err := s.find(id)
	if err != nil {
		return nil, err
	}

	var originalMetadata interface{}
	if len(original.Metadata.JSON) > 0 {
		if err := json.Unmarshal(original.Metadata.JSON, &originalMetadata); err != nil {
			log.Printf("Unreadable metadata on generation %s: %v", id, err)
			originalMetadata = nil
		}
	}

	metadata, err := marshalMetadata(map[string]interface{}{
		"retryOf":          original.ID,
		"originalMetadata": originalMetadata,
		"retryInfo": map[string]interface{}{
			"timestamp":              time.Now().UTC().Format(time.RFC3339),
			"originalGenerationDate": original.GeneratedAt.UTC().Format(time.RFC3339),
			"reason":                 "Manual retry",
			"previousStatus":         original.Status,
			"previousError":          original.Error,
		},
	})
	if err != nil {
		return nil, err
	}

	retry := models.ContentGeneration{
		ContentID:   original.ContentID,
		ContentType: original.ContentType,
		LLMID:       original.LLMID,
		Prompt:      original.Prompt,
		Temperature: original.Temperature,
		MaxTokens:   original.MaxTokens,
		Status:      models.GenerationStatusPending,
		Metadata:    metadata,
		GeneratedAt: time.Now().UTC(),
	}

	if err := s.DB.Create(&retry).Error; err != nil {
		log.Printf("Failed to create retry for generation %s: %v", id, err)
		return nil, types.NewStore("Failed to retry generation")
	}

	return &retry, nil
}

// Get returns a single ledger row with its LLM registry entry.
func (s *GenerationService) Get(id string) (*models.ContentGeneration, error) {
	var row models.ContentGeneration
	err := s.DB.Preload("LLM").First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFound("Generation not found")
		}
		log.Printf("Failed to load generation %s: %v", id, err)
		return nil, types.NewStore("Failed to load generation")
	}
	return &row, nil
}

// History returns every ledger row for a content id, most recent first, joined
// with static LLM metadata for display.
func (s *GenerationService) History(contentID string) ([]models.ContentGeneration, error) {
	var rows []models.ContentGeneration
	err := s.DB.
		Clauses(hints.CommentBefore("select", "generation-history")).
		Preload("LLM").
		Where("content_id = ?", contentID).
		Order("generated_at DESC").
		Find(&rows).Error
	if err != nil {
		log.Printf("Failed to load generation history for %s: %v", contentID, err)
		return nil, types.NewStore("Failed to load generation history")
	}
	return rows, nil
}

func (s *GenerationService) find(id string) (*models.ContentGeneration, error) {
	var row models.ContentGeneration
	err := s.DB.First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFound("Generation not found")
		}
		log.Printf("Failed to load generation %s: %v", id, err)
		return nil, types.NewStore("Failed to load generation")
	}
	return &row, nil
}

func marshalMetadata(metadata map[string]interface{}) (models.JSON, error) {
	blob, err := json.Marshal(metadata)
	if err != nil {
		return models.JSON{}, types.NewValidation("Metadata is not serializable")
	}
	var j models.JSON
	if err := j.Scan(blob); err != nil {
		return models.JSON{}, types.NewValidation("Metadata is not serializable")
	}
	return j, nil
}
