package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"listing-studio/db"
	"listing-studio/models"
)

// TemplateRepository handles database operations for selection templates
// Implements TemplateRepositoryInterface
type TemplateRepository struct{}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{}
}

// Ensure TemplateRepository implements TemplateRepositoryInterface
var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)

// ListTemplates returns every saved template, oldest first
func (r *TemplateRepository) ListTemplates(ctx context.Context) ([]models.Template, error) {
	query := `SELECT id, name, products, variants FROM templates ORDER BY id`
	rows, err := db.DB.QueryContext(ctx, query)
	if err != nil {
		log.Printf("❌ TemplateRepository.ListTemplates: %v", err)
		return nil, &models.FetchError{Resource: "templates", Err: err}
	}
	defer rows.Close()

	templates := []models.Template{}
	for rows.Next() {
		var tmpl models.Template
		var products, variants []byte
		if err := rows.Scan(&tmpl.ID, &tmpl.Name, &products, &variants); err != nil {
			return nil, &models.FetchError{Resource: "templates", Err: fmt.Errorf("failed to scan template: %w", err)}
		}
		if err := decodeSelection(products, variants, &tmpl); err != nil {
			log.Printf("⚠️  TemplateRepository.ListTemplates: skipping template %d: %v", tmpl.ID, err)
			continue
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.FetchError{Resource: "templates", Err: err}
	}

	log.Printf("📋 TemplateRepository.ListTemplates: %d templates", len(templates))
	return templates, nil
}

// CreateTemplate inserts a template and returns it with its new id
func (r *TemplateRepository) CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.Template, error) {
	products := req.Products
	if products == nil {
		products = []int{}
	}
	variants := req.Variants
	if variants == nil {
		variants = map[int][]int{}
	}
	productsJSON, err := json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("failed to encode products: %w", err)
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return nil, fmt.Errorf("failed to encode variants: %w", err)
	}

	var id int
	query := `INSERT INTO templates (name, products, variants) VALUES ($1, $2, $3) RETURNING id`
	if err := db.DB.QueryRowContext(ctx, query, req.Name, productsJSON, variantsJSON).Scan(&id); err != nil {
		log.Printf("❌ TemplateRepository.CreateTemplate: %v", err)
		return nil, fmt.Errorf("failed to insert template: %w", err)
	}

	log.Printf("💾 TemplateRepository.CreateTemplate: template id=%d (%s)", id, req.Name)
	return &models.Template{ID: id, Name: req.Name, Products: products, Variants: variants}, nil
}

func decodeSelection(products, variants []byte, tmpl *models.Template) error {
	tmpl.Products = []int{}
	tmpl.Variants = map[int][]int{}
	if len(products) > 0 {
		if err := json.Unmarshal(products, &tmpl.Products); err != nil {
			return fmt.Errorf("invalid products: %w", err)
		}
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &tmpl.Variants); err != nil {
			return fmt.Errorf("invalid variants: %w", err)
		}
	}
	return nil
}
