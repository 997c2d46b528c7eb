package repository

import (
	"context"

	"listing-studio/models"
)

// TemplateRepositoryInterface defines the contract for template persistence in the database
type TemplateRepositoryInterface interface {
	ListTemplates(ctx context.Context) ([]models.Template, error)
	CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.Template, error)
}

// GenerationRepositoryInterface defines the contract for generation history operations
type GenerationRepositoryInterface interface {
	Record(ctx context.Context, rec models.GenerationRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.GenerationRecord, error)
	ListByRun(ctx context.Context, runID string) ([]models.GenerationRecord, error)
}
