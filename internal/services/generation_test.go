package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/localnerve/contentforge/internal/models"
	"github.com/localnerve/contentforge/internal/types"
)

func TestRecordAttemptDefaults(t *testing.T) {
	db := setupTestDB(t)
	llmRow := createTestLLM(t, db)
	svc := NewGenerationService(db)

	row, err := svc.RecordAttempt(models.ContentTypePillar, "content-1", GenerationRequest{
		LLMID:  llmRow.ID,
		Prompt: "Generate pillars",
	})
	if err != nil {
		t.Fatalf("Failed to record attempt: %v", err)
	}

	if row.Status != models.GenerationStatusPending {
		t.Errorf("Expected pending, got %q", row.Status)
	}
	if row.Temperature != DefaultTemperature {
		t.Errorf("Expected default temperature %v, got %v", DefaultTemperature, row.Temperature)
	}
	if row.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected default max tokens %d, got %d", DefaultMaxTokens, row.MaxTokens)
	}
	if row.GeneratedAt.IsZero() {
		t.Error("Expected generatedAt to be set")
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(row.Metadata.JSON, &metadata); err != nil {
		t.Fatalf("Failed to decode metadata: %v", err)
	}
	if metadata["hasCustomPrompt"] != false {
		t.Errorf("Expected hasCustomPrompt false, got %v", metadata["hasCustomPrompt"])
	}
	if metadata["temperature"] != DefaultTemperature {
		t.Errorf("Expected metadata temperature %v, got %v", DefaultTemperature, metadata["temperature"])
	}
}

func TestRecordAttemptValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGenerationService(db)

	cases := []struct {
		name        string
		contentType models.ContentType
		contentID   string
		prompt      string
	}{
		{"invalid content type", "banner", "content-1", "prompt"},
		{"missing content id", models.ContentTypePillar, "", "prompt"},
		{"missing prompt", models.ContentTypePillar, "content-1", ""},
	}

	for _, tc := range cases {
		_, err := svc.RecordAttempt(tc.contentType, tc.contentID, GenerationRequest{Prompt: tc.prompt})
		if !types.IsKind(err, types.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestRecordAttemptExplicitParameters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGenerationService(db)

	temperature := 0.2
	maxTokens := 4096
	row, err := svc.RecordAttempt(models.ContentTypeOutline, "content-1", GenerationRequest{
		Prompt:       "Custom outline prompt",
		CustomPrompt: true,
		Temperature:  &temperature,
		MaxTokens:    &maxTokens,
	})
	if err != nil {
		t.Fatalf("Failed to record attempt: %v", err)
	}
	if row.Temperature != 0.2 || row.MaxTokens != 4096 {
		t.Errorf("Expected explicit parameters, got %v/%d", row.Temperature, row.MaxTokens)
	}

	var metadata map[string]interface{}
	json.Unmarshal(row.Metadata.JSON, &metadata)
	if metadata["hasCustomPrompt"] != true {
		t.Errorf("Expected hasCustomPrompt true, got %v", metadata["hasCustomPrompt"])
	}
}

func TestUpdateGenerationStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGenerationService(db)

	row, _ := svc.RecordAttempt(models.ContentTypePillar, "content-1", GenerationRequest{Prompt: "p"})

	updated, err := svc.UpdateStatus(row.ID, models.GenerationStatusFailed, "timeout")
	if err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}
	if updated.Status != models.GenerationStatusFailed || updated.Error != "timeout" {
		t.Errorf("Expected failed/timeout, got %q/%q", updated.Status, updated.Error)
	}

	if _, err := svc.UpdateStatus(row.ID, "done", ""); !types.IsKind(err, types.ErrValidation) {
		t.Errorf("Expected validation error for unknown status, got %v", err)
	}
	if _, err := svc.UpdateStatus("missing-id", models.GenerationStatusCompleted, ""); !types.IsKind(err, types.ErrNotFound) {
		t.Errorf("Expected not_found, got %v", err)
	}

	// persisted, not only mutated in memory
	fresh, _ := svc.Get(row.ID)
	if fresh.Status != models.GenerationStatusFailed || fresh.Error != "timeout" {
		t.Errorf("Persisted row mismatch: %q/%q", fresh.Status, fresh.Error)
	}
}

func TestUpdateGenerationMetadata(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGenerationService(db)

	row, _ := svc.RecordAttempt(models.ContentTypePillar, "content-1", GenerationRequest{Prompt: "p"})

	updated, err := svc.UpdateMetadata(row.ID, map[string]interface{}{"tokensUsed": 512})
	if err != nil {
		t.Fatalf("Failed to update metadata: %v", err)
	}

	// full replace: the original snapshot keys are gone
	var metadata map[string]interface{}
	json.Unmarshal(updated.Metadata.JSON, &metadata)
	if metadata["tokensUsed"] != float64(512) {
		t.Errorf("Expected tokensUsed 512, got %v", metadata["tokensUsed"])
	}
	if _, ok := metadata["temperature"]; ok {
		t.Error("Expected old metadata keys replaced")
	}
}

func TestRetryLineage(t *testing.T) {
	db := setupTestDB(t)
	llmRow := createTestLLM(t, db)
	svc := NewGenerationService(db)

	original, _ := svc.RecordAttempt(models.ContentTypeSubpillar, "pillar-1", GenerationRequest{
		LLMID:  llmRow.ID,
		Prompt: "Generate subpillars",
	})
	svc.UpdateStatus(original.ID, models.GenerationStatusFailed, "timeout")

	retry, err := svc.Retry(original.ID)
	if err != nil {
		t.Fatalf("Failed to retry: %v", err)
	}

	if retry.ID == original.ID {
		t.Fatal("Expected retry to be a new row")
	}
	if retry.Status != models.GenerationStatusPending {
		t.Errorf("Expected pending retry, got %q", retry.Status)
	}
	if retry.Prompt != original.Prompt || retry.ContentID != original.ContentID {
		t.Error("Expected retry to copy request parameters")
	}
	if retry.Temperature != original.Temperature || retry.MaxTokens != original.MaxTokens {
		t.Error("Expected retry to copy generation parameters")
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(retry.Metadata.JSON, &metadata); err != nil {
		t.Fatalf("Failed to decode retry metadata: %v", err)
	}
	if metadata["retryOf"] != original.ID {
		t.Errorf("Expected retryOf %s, got %v", original.ID, metadata["retryOf"])
	}
	retryInfo, ok := metadata["retryInfo"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected retryInfo object, got %v", metadata["retryInfo"])
	}
	if retryInfo["reason"] != "Manual retry" {
		t.Errorf("Expected manual retry reason, got %v", retryInfo["reason"])
	}
	if retryInfo["previousStatus"] != models.GenerationStatusFailed {
		t.Errorf("Expected previousStatus failed, got %v", retryInfo["previousStatus"])
	}
	if retryInfo["previousError"] != "timeout" {
		t.Errorf("Expected previousError timeout, got %v", retryInfo["previousError"])
	}
	if _, ok := metadata["originalMetadata"]; !ok {
		t.Error("Expected originalMetadata snapshot")
	}

	// the original row is untouched
	fresh, _ := svc.Get(original.ID)
	if fresh.Status != models.GenerationStatusFailed || fresh.Error != "timeout" {
		t.Errorf("Original row mutated: %q/%q", fresh.Status, fresh.Error)
	}
}

func TestGenerationHistoryOrdering(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGenerationService(db)

	original, _ := svc.RecordAttempt(models.ContentTypePillar, "niche-1", GenerationRequest{Prompt: "p"})
	svc.UpdateStatus(original.ID, models.GenerationStatusFailed, "timeout")

	// push the first attempt back so ordering is unambiguous
	past := time.Now().UTC().Add(-time.Minute)
	db.Model(&models.ContentGeneration{}).Where("id = ?", original.ID).Update("generated_at", past)

	retry, _ := svc.Retry(original.ID)
	svc.UpdateStatus(retry.ID, models.GenerationStatusCompleted, "")

	// unrelated content does not leak in
	svc.RecordAttempt(models.ContentTypePillar, "niche-2", GenerationRequest{Prompt: "other"})

	history, err := svc.History("niche-1")
	if err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 history rows, got %d", len(history))
	}
	if history[0].ID != retry.ID {
		t.Errorf("Expected most recent attempt first, got %s", history[0].ID)
	}
	if history[1].ID != original.ID {
		t.Errorf("Expected original attempt last, got %s", history[1].ID)
	}
	if history[0].Status != models.GenerationStatusCompleted {
		t.Errorf("Expected completed retry first, got %q", history[0].Status)
	}
}
