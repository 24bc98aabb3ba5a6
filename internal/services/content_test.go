package services

import (
	"testing"

	"github.com/localnerve/contentforge/internal/models"
	"github.com/localnerve/contentforge/internal/types"
)

func TestCreateAndListArticles(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContentService(db)
	subpillar := createTestSubpillar(t, db, "user-1")

	article, err := svc.CreateArticle(subpillar.ID, "user-1", "Guest Posting at Scale", "Body text")
	if err != nil {
		t.Fatalf("Failed to create article: %v", err)
	}
	if article.Status != models.ArticleStatusDraft {
		t.Errorf("Expected draft article, got %q", article.Status)
	}

	if _, err := svc.CreateArticle(subpillar.ID, "user-1", "", "body"); !types.IsKind(err, types.ErrValidation) {
		t.Errorf("Expected validation error for empty title, got %v", err)
	}
	if _, err := svc.CreateArticle("missing", "user-1", "Title", "body"); !types.IsKind(err, types.ErrNotFound) {
		t.Errorf("Expected not_found for missing subpillar, got %v", err)
	}
	if _, err := svc.CreateArticle(subpillar.ID, "user-2", "Title", "body"); !types.IsKind(err, types.ErrNotAuthorized) {
		t.Errorf("Expected not_authorized for foreign subpillar, got %v", err)
	}

	articles, err := svc.ListArticles(subpillar.ID)
	if err != nil {
		t.Fatalf("Failed to list articles: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("Expected 1 article, got %d", len(articles))
	}
}

func TestDeleteArticleOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContentService(db)
	subpillar := createTestSubpillar(t, db, "user-1")

	article, _ := svc.CreateArticle(subpillar.ID, "user-1", "Guest Posting at Scale", "")

	if err := svc.DeleteArticle(article.ID, "user-2"); !types.IsKind(err, types.ErrNotAuthorized) {
		t.Errorf("Expected not_authorized, got %v", err)
	}
	if err := svc.DeleteArticle(article.ID, "user-1"); err != nil {
		t.Fatalf("Failed to delete article: %v", err)
	}
	if err := svc.DeleteArticle(article.ID, "user-1"); !types.IsKind(err, types.ErrNotFound) {
		t.Errorf("Expected not_found after delete, got %v", err)
	}
}

func TestCreateAndListResearch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContentService(db)
	subpillar := createTestSubpillar(t, db, "user-1")

	note, err := svc.CreateResearch(subpillar.ID, "user-1", "Outreach reply rates hover near 8%", "https://example.com/study")
	if err != nil {
		t.Fatalf("Failed to create research note: %v", err)
	}
	if note.Source != "https://example.com/study" {
		t.Errorf("Expected source persisted, got %q", note.Source)
	}

	if _, err := svc.CreateResearch(subpillar.ID, "user-1", "", ""); !types.IsKind(err, types.ErrValidation) {
		t.Errorf("Expected validation error for empty content, got %v", err)
	}
	if _, err := svc.CreateResearch(subpillar.ID, "user-2", "content", ""); !types.IsKind(err, types.ErrNotAuthorized) {
		t.Errorf("Expected not_authorized for foreign subpillar, got %v", err)
	}

	notes, err := svc.ListResearch(subpillar.ID)
	if err != nil {
		t.Fatalf("Failed to list research notes: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("Expected 1 note, got %d", len(notes))
	}
}
