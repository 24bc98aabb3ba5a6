package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	_ "github.com/localnerve/contentforge/docs/api" // Swagger docs
	"github.com/localnerve/contentforge/internal/config"
	"github.com/localnerve/contentforge/internal/database"
	"github.com/localnerve/contentforge/internal/handlers"
	"github.com/localnerve/contentforge/internal/llm"
	"github.com/localnerve/contentforge/internal/middleware"
	"github.com/localnerve/contentforge/internal/models"
	"github.com/localnerve/contentforge/internal/services"
	"github.com/localnerve/contentforge/internal/types"
	"github.com/localnerve/contentforge/internal/utils"
	"gorm.io/gorm"
)

// @title ContentForge API
// @version 1.0.0
// @description Hierarchical content generation workflow service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/contentforge
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Build the generation collaborator
	generator := newGenerator(cfg)
	llmID, err := registerLLM(db, cfg)
	if err != nil {
		log.Fatalf("Failed to register LLM: %v", err)
	}

	// Construct services once and hand them to the handlers
	ledger := services.NewGenerationService(db)
	workflow := services.NewWorkflowService(db, generator, ledger, llmID)
	outlines := services.NewOutlineService(db)
	content := services.NewContentService(db)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler(cfg),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("contentforge")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	// Health (no auth)
	api.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	// All content routes require user authentication
	auth := middleware.AuthUser(cfg)

	workflowHandler := &handlers.WorkflowHandler{Workflow: workflow}
	outlineHandler := &handlers.OutlineHandler{Outlines: outlines}
	generationHandler := &handlers.GenerationHandler{Ledger: ledger}
	contentHandler := &handlers.ContentHandler{Content: content}

	// Niche routes
	api.Post("/niches", auth, workflowHandler.CreateNiche)
	api.Get("/niches", auth, workflowHandler.ListNiches)
	api.Get("/niches/:id", auth, workflowHandler.GetNiche)
	api.Put("/niches/:id/status", auth, workflowHandler.UpdateNicheStatus)
	api.Delete("/niches/:id", auth, workflowHandler.DeleteNiche)
	api.Post("/niches/:id/pillars/generate", auth, workflowHandler.GeneratePillars)
	api.Get("/niches/:id/pillars", auth, workflowHandler.ListPillars)

	// Pillar routes
	api.Put("/pillars/:id/approve", auth, workflowHandler.ApprovePillar)
	api.Delete("/pillars/:id", auth, workflowHandler.DeletePillar)
	api.Post("/pillars/:id/subpillars/generate", auth, workflowHandler.GenerateSubpillars)
	api.Get("/pillars/:id/subpillars", auth, workflowHandler.ListSubpillars)

	// Subpillar routes
	api.Post("/subpillars/:id/outline", auth, outlineHandler.CreateOutline)
	api.Delete("/subpillars/:id", auth, workflowHandler.DeleteSubpillar)
	api.Post("/subpillars/:id/articles", auth, contentHandler.CreateArticle)
	api.Get("/subpillars/:id/articles", auth, contentHandler.ListArticles)
	api.Post("/subpillars/:id/research", auth, contentHandler.CreateResearch)
	api.Get("/subpillars/:id/research", auth, contentHandler.ListResearch)
	api.Delete("/articles/:id", auth, contentHandler.DeleteArticle)

	// Outline routes
	api.Get("/outlines/:id", auth, outlineHandler.GetOutline)
	api.Put("/outlines/:id", auth, outlineHandler.UpdateOutline)
	api.Post("/outlines/:id/sections", auth, outlineHandler.AddSection)
	api.Put("/outlines/:id/sections/:index", auth, outlineHandler.UpdateSection)
	api.Put("/outlines/:id/status", auth, outlineHandler.UpdateOutlineStatus)
	api.Delete("/outlines/:id", auth, outlineHandler.DeleteOutline)

	// Generation ledger routes
	api.Post("/generations", auth, generationHandler.RecordAttempt)
	api.Get("/generations/content/:contentId", auth, generationHandler.History)
	api.Get("/generations/:id", auth, generationHandler.GetGeneration)
	api.Put("/generations/:id/status", auth, generationHandler.UpdateStatus)
	api.Put("/generations/:id/metadata", auth, generationHandler.UpdateMetadata)
	api.Post("/generations/:id/retry", auth, generationHandler.Retry)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "[404] Resource Not Found")
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// newGenerator selects the configured LLM provider
func newGenerator(cfg *config.Config) llm.Generator {
	switch cfg.LLMProvider {
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	default:
		return llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.LLMModel)
	}
}

// registerLLM upserts the configured model into the llms registry so ledger
// rows can join static model metadata for display.
func registerLLM(db *gorm.DB, cfg *config.Config) (string, error) {
	var row models.LLM
	err := db.Where("provider = ? AND model = ?", cfg.LLMProvider, cfg.LLMModel).First(&row).Error
	if err == nil {
		return row.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	row = models.LLM{
		Name:     cfg.LLMProvider + " default",
		Model:    cfg.LLMModel,
		Provider: cfg.LLMProvider,
		Active:   true,
	}
	if err := db.Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

// customErrorHandler is the sole translation point from error kind to HTTP
// status. Unexpected errors get a generic message in production.
func customErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()
		errorType := "unknown"

		var ce *types.CustomError
		if errors.As(err, &ce) {
			code = ce.Code
			message = ce.Message
			errorType = ce.Type
		} else if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Printf("Unhandled error on %s: %v", c.OriginalURL(), err)
			if cfg.IsProduction() {
				message = "Internal server error"
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status":    code,
			"error":     errorType,
			"message":   message,
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	}
}
