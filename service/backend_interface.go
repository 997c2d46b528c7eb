package service

import (
	"context"

	"listing-studio/models"
)

// CatalogSource lists the purchasable blueprints
type CatalogSource interface {
	ListBlueprints(ctx context.Context) ([]models.Blueprint, error)
}

// VariantSource lists the variants of one blueprint
type VariantSource interface {
	ListVariants(ctx context.Context, blueprintID int) ([]models.Variant, error)
}

// TemplateSource defines the contract for template persistence (remote backend or database)
type TemplateSource interface {
	ListTemplates(ctx context.Context) ([]models.Template, error)
	CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.Template, error)
}

// NicheSource suggests niches for a product type
type NicheSource interface {
	SuggestNiches(ctx context.Context, productType string) ([]string, error)
}

// ProductCreator creates one product record per blueprint and returns its id
type ProductCreator interface {
	CreateProduct(ctx context.Context, req models.CreateProductRequest) (models.RecordID, error)
}

// DesignGenerator requests a design for a created product and returns preview URLs
type DesignGenerator interface {
	GenerateDesign(ctx context.Context, productID models.RecordID) ([]string, error)
}

// PreviewStore archives optimized preview images (Google Drive or S3)
type PreviewStore interface {
	Name() string
	Upload(ctx context.Context, name string, data []byte) (string, error)
}
