package router

import (
	"net/http"

	"listing-studio/app/controller"
	"listing-studio/metrics"
)

type Controllers struct {
	Workflow   *controller.WorkflowController
	Preview    *controller.PreviewController
	Generation *controller.GenerationController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func SetupRoutes(mux *http.ServeMux, controllers *Controllers) {
	// Ping and metrics
	mux.HandleFunc("GET /ping", pingHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	// Workflow sessions
	mux.HandleFunc("POST /workflow/sessions", controllers.Workflow.CreateSession)
	mux.HandleFunc("GET /workflow/sessions/{id}", controllers.Workflow.GetSession)
	mux.HandleFunc("DELETE /workflow/sessions/{id}", controllers.Workflow.CloseSession)

	// Catalog
	mux.HandleFunc("GET /workflow/sessions/{id}/catalog", controllers.Workflow.GetCatalog)
	mux.HandleFunc("GET /workflow/sessions/{id}/catalog/{productId}", controllers.Workflow.GetBlueprint)

	// Selection
	mux.HandleFunc("POST /workflow/sessions/{id}/products/{productId}/toggle", controllers.Workflow.ToggleProduct)
	mux.HandleFunc("POST /workflow/sessions/{id}/products/{productId}/variants/{variantId}/toggle", controllers.Workflow.ToggleVariant)

	// Templates
	mux.HandleFunc("GET /workflow/sessions/{id}/templates", controllers.Workflow.ListTemplates)
	mux.HandleFunc("POST /workflow/sessions/{id}/templates", controllers.Workflow.SaveTemplate)
	mux.HandleFunc("POST /workflow/sessions/{id}/templates/{templateId}/apply", controllers.Workflow.ApplyTemplate)

	// Listing form and niches
	mux.HandleFunc("PUT /workflow/sessions/{id}/listing", controllers.Workflow.UpdateListing)
	mux.HandleFunc("PUT /workflow/sessions/{id}/listing/niche", controllers.Workflow.ChooseNiche)
	mux.HandleFunc("POST /workflow/sessions/{id}/niches/suggest", controllers.Workflow.SuggestNiches)

	// Generation and previews
	mux.HandleFunc("POST /workflow/sessions/{id}/generate", controllers.Workflow.Generate)
	mux.HandleFunc("GET /workflow/sessions/{id}/previews", controllers.Workflow.GetPreviews)
	mux.HandleFunc("GET /workflow/sessions/{id}/previews/thumb", controllers.Preview.GetThumbnail)
	mux.HandleFunc("POST /workflow/sessions/{id}/previews/archive", controllers.Preview.ArchivePreviews)

	// Proof sheet (HTML is also the chromedp render target)
	mux.HandleFunc("GET /workflow/sessions/{id}/proof", controllers.Preview.RenderProof)
	mux.HandleFunc("GET /workflow/sessions/{id}/proof.pdf", controllers.Preview.GenerateProofPDF)

	// Generation history
	mux.HandleFunc("GET /admin/generations", controllers.Generation.ListGenerations)
}
