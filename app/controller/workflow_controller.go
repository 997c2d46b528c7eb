package controller

import (
	"net/http"
	"strings"

	"listing-studio/models"
	"listing-studio/service"
)

// WorkflowController handles HTTP requests for listing workflow sessions
type WorkflowController struct {
	sessions *service.SessionRegistry
	pageSize int
}

// NewWorkflowController creates a new WorkflowController
func NewWorkflowController(sessions *service.SessionRegistry, pageSize int) *WorkflowController {
	if pageSize <= 0 {
		pageSize = service.DefaultPageSize
	}
	return &WorkflowController{sessions: sessions, pageSize: pageSize}
}

func (c *WorkflowController) session(w http.ResponseWriter, r *http.Request, op string) (*service.WorkflowSession, bool) {
	session, err := c.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, op, err)
		return nil, false
	}
	return session, true
}

// CreateSession handles POST /workflow/sessions
// Enters the workflow: catalog and templates are loaded before the session is returned
func (c *WorkflowController) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := c.sessions.Create(r.Context())
	writeJSON(w, http.StatusCreated, session.View())
}

// GetSession handles GET /workflow/sessions/{id}
func (c *WorkflowController) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "GetSession")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

// CloseSession handles DELETE /workflow/sessions/{id}
func (c *WorkflowController) CloseSession(w http.ResponseWriter, r *http.Request) {
	if !c.sessions.Close(r.PathValue("id")) {
		writeError(w, "CloseSession", service.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCatalog handles GET /workflow/sessions/{id}/catalog?q=&category=&page=&pageSize=
func (c *WorkflowController) GetCatalog(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "GetCatalog")
	if !ok {
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, "GetCatalog", err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", c.pageSize)
	if err != nil {
		writeError(w, "GetCatalog", err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	writeJSON(w, http.StatusOK, session.Catalog().Page(query, category, page, pageSize))
}

// GetBlueprint handles GET /workflow/sessions/{id}/catalog/{productId}
func (c *WorkflowController) GetBlueprint(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "GetBlueprint")
	if !ok {
		return
	}
	productID, err := pathInt(r, "productId")
	if err != nil {
		writeError(w, "GetBlueprint", err)
		return
	}
	bp, found := session.Catalog().Get(productID)
	if !found {
		http.Error(w, "blueprint not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, bp)
}

// ToggleProduct handles POST /workflow/sessions/{id}/products/{productId}/toggle
func (c *WorkflowController) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "ToggleProduct")
	if !ok {
		return
	}
	productID, err := pathInt(r, "productId")
	if err != nil {
		writeError(w, "ToggleProduct", err)
		return
	}
	session.ToggleProduct(r.Context(), productID)
	writeJSON(w, http.StatusOK, session.View())
}

// ToggleVariant handles POST /workflow/sessions/{id}/products/{productId}/variants/{variantId}/toggle
func (c *WorkflowController) ToggleVariant(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "ToggleVariant")
	if !ok {
		return
	}
	productID, err := pathInt(r, "productId")
	if err != nil {
		writeError(w, "ToggleVariant", err)
		return
	}
	variantID, err := pathInt(r, "variantId")
	if err != nil {
		writeError(w, "ToggleVariant", err)
		return
	}
	session.ToggleVariant(r.Context(), productID, variantID)
	writeJSON(w, http.StatusOK, session.View())
}

// ListTemplates handles GET /workflow/sessions/{id}/templates
func (c *WorkflowController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "ListTemplates")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Templates())
}

// SaveTemplate handles POST /workflow/sessions/{id}/templates
func (c *WorkflowController) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "SaveTemplate")
	if !ok {
		return
	}
	var req models.SaveTemplateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "SaveTemplate", err)
		return
	}
	tmpl, err := session.SaveTemplate(r.Context(), req.Name)
	if err != nil {
		writeError(w, "SaveTemplate", err)
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

// ApplyTemplate handles POST /workflow/sessions/{id}/templates/{templateId}/apply
func (c *WorkflowController) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "ApplyTemplate")
	if !ok {
		return
	}
	templateID, err := pathInt(r, "templateId")
	if err != nil {
		writeError(w, "ApplyTemplate", err)
		return
	}
	if _, applied := session.ApplyTemplate(r.Context(), templateID); !applied {
		http.Error(w, "template not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

// UpdateListing handles PUT /workflow/sessions/{id}/listing
func (c *WorkflowController) UpdateListing(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "UpdateListing")
	if !ok {
		return
	}
	var form models.ListingForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, "UpdateListing", err)
		return
	}
	session.UpdateListing(form)
	writeJSON(w, http.StatusOK, session.Listing())
}

// SuggestNiches handles POST /workflow/sessions/{id}/niches/suggest
// The body is optional; without a product type the first selected blueprint's title is used
func (c *WorkflowController) SuggestNiches(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "SuggestNiches")
	if !ok {
		return
	}
	var req models.NicheSuggestRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, "SuggestNiches", err)
			return
		}
	}
	suggestions, err := session.SuggestNiches(r.Context(), strings.TrimSpace(req.ProductType))
	if err != nil {
		writeError(w, "SuggestNiches", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NicheSuggestResponse{Suggestions: suggestions})
}

// ChooseNiche handles PUT /workflow/sessions/{id}/listing/niche
func (c *WorkflowController) ChooseNiche(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "ChooseNiche")
	if !ok {
		return
	}
	var req models.ChooseNicheRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "ChooseNiche", err)
		return
	}
	session.ChooseNiche(strings.TrimSpace(req.Niche))
	writeJSON(w, http.StatusOK, session.Listing())
}

// Generate handles POST /workflow/sessions/{id}/generate
// Streams one NDJSON line per blueprint as soon as it completes, then a summary line.
// The run keeps going on the server if the client disconnects.
func (c *WorkflowController) Generate(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "Generate")
	if !ok {
		return
	}
	runID, items, err := session.Generate(r.Context())
	if err != nil {
		writeError(w, "Generate", err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	stream := newNDJSONWriter(w, "Generate run="+runID)

	result := models.NewGenerationResult(runID)
	for item := range items {
		result.Add(item)
		stream.Send(models.GenerationEvent{Type: models.EventItem, Item: &item})
	}
	stream.Send(models.GenerationEvent{Type: models.EventSummary, Result: &result})
}

// GetPreviews handles GET /workflow/sessions/{id}/previews
func (c *WorkflowController) GetPreviews(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r, "GetPreviews")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"previews": session.Previews()})
}
