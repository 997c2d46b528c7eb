package service

import (
	"context"
	"log"
	"strings"

	"listing-studio/models"
)

// NicheService asks the backend for niche ideas for a product type
type NicheService struct {
	source NicheSource
}

// NewNicheService creates a new NicheService
func NewNicheService(source NicheSource) *NicheService {
	return &NicheService{source: source}
}

// Suggest returns niche suggestions for productType.
// Backend failures are wrapped in *models.SuggestionError; the operator can still type a niche.
func (s *NicheService) Suggest(ctx context.Context, productType string) ([]string, error) {
	productType = strings.TrimSpace(productType)
	if productType == "" {
		return nil, &models.ValidationError{Field: "product_type", Message: "cannot be empty"}
	}

	log.Printf("💡 NicheService.Suggest: product_type=%q", productType)
	raw, err := s.source.SuggestNiches(ctx, productType)
	if err != nil {
		log.Printf("❌ NicheService.Suggest: %v", err)
		return nil, &models.SuggestionError{Err: err}
	}

	suggestions := make([]string, 0, len(raw))
	for _, suggestion := range raw {
		if v := strings.TrimSpace(suggestion); v != "" {
			suggestions = append(suggestions, v)
		}
	}
	return suggestions, nil
}
