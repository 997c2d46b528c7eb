package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"listing-studio/app/controller"
	"listing-studio/app/router"
	"listing-studio/db"
	"listing-studio/repository"
	"listing-studio/service"
)

const janitorInterval = 5 * time.Minute

// Initialize wires the services and registers the routes on mux
func Initialize(ctx context.Context, cfg Config, mux *http.ServeMux) error {
	// Database is optional: it backs generation history and TEMPLATE_STORE=database
	if db.Configured() {
		if err := db.InitDB(ctx); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	} else {
		log.Printf("⚠️  No database configured, generation history disabled")
	}

	backend, err := service.NewBackendClient(cfg.BackendURL, cfg.BackendAPIKey, cfg.CallTimeout)
	if err != nil {
		return err
	}

	var templates service.TemplateSource = backend
	if cfg.TemplateStore == TemplateStoreDatabase {
		if !db.Enabled() {
			return fmt.Errorf("TEMPLATE_STORE=database requires DATABASE_URL or DB_* variables")
		}
		templates = repository.NewTemplateRepository()
		log.Printf("📋 Templates are stored in the database")
	}

	var recorder service.GenerationRecorder
	var history repository.GenerationRepositoryInterface
	if db.Enabled() {
		generationRepo := repository.NewGenerationRepository()
		recorder = generationRepo
		history = generationRepo
	}

	pipeline := service.NewGenerationPipeline(backend, backend, recorder, cfg.CallTimeout)
	sessions := service.NewSessionRegistry(service.WorkflowDeps{
		Catalog:   backend,
		Variants:  backend,
		Templates: templates,
		Niches:    backend,
		Pipeline:  pipeline,
	}, cfg.SessionTTL)
	sessions.StartJanitor(ctx, janitorInterval)

	images := service.NewImageCache(cfg.ImageCacheDir, cfg.CallTimeout)
	if err := images.EnsureDir(); err != nil {
		return err
	}

	store, err := newPreviewStore(ctx, cfg)
	if err != nil {
		return err
	}
	var archive *service.PreviewArchiveService
	if store != nil {
		archive = service.NewPreviewArchiveService(images, store)
		log.Printf("☁️  Preview archive enabled (%s)", store.Name())
	}

	controllers := &router.Controllers{
		Workflow:   controller.NewWorkflowController(sessions, cfg.CatalogPageSize),
		Preview:    controller.NewPreviewController(sessions, images, archive, service.NewProofSheetService(cfg.PublicBaseURL, cfg.ChromePath)),
		Generation: controller.NewGenerationController(history),
	}
	router.SetupRoutes(mux, controllers)

	return nil
}

// newPreviewStore picks Google Drive when a folder is configured, else S3 when a bucket is
// configured; nil disables the archive
func newPreviewStore(ctx context.Context, cfg Config) (service.PreviewStore, error) {
	switch {
	case cfg.PreviewDriveFolderID != "":
		if cfg.GoogleCredentials == "" {
			return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS environment variable is not set")
		}
		return service.NewDriveService(ctx, cfg.GoogleCredentials, cfg.PreviewDriveFolderID)
	case cfg.PreviewS3.Bucket != "":
		return service.NewS3Store(ctx, cfg.PreviewS3)
	default:
		return nil, nil
	}
}
