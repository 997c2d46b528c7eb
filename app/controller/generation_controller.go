package controller

import (
	"fmt"
	"net/http"
	"strings"

	"listing-studio/repository"
)

// GenerationController handles HTTP requests for the generation history
type GenerationController struct {
	repository repository.GenerationRepositoryInterface
}

// NewGenerationController creates a new GenerationController
func NewGenerationController(repo repository.GenerationRepositoryInterface) *GenerationController {
	return &GenerationController{repository: repo}
}

// ListGenerations handles GET /admin/generations?limit=&runId=
func (c *GenerationController) ListGenerations(w http.ResponseWriter, r *http.Request) {
	if c.repository == nil {
		http.Error(w, "generation history requires a database", http.StatusServiceUnavailable)
		return
	}

	if runID := strings.TrimSpace(r.URL.Query().Get("runId")); runID != "" {
		records, err := c.repository.ListByRun(r.Context(), runID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to list generation run: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, "ListGenerations", err)
		return
	}
	records, err := c.repository.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list generations: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
