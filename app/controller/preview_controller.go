package controller

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"listing-studio/service"
)

// PreviewController serves preview thumbnails, the preview archive and the proof sheet
type PreviewController struct {
	sessions *service.SessionRegistry
	images   *service.ImageCache
	archive  *service.PreviewArchiveService // nil when no archive store is configured
	proofs   *service.ProofSheetService
}

// NewPreviewController creates a new PreviewController
func NewPreviewController(sessions *service.SessionRegistry, images *service.ImageCache, archive *service.PreviewArchiveService, proofs *service.ProofSheetService) *PreviewController {
	return &PreviewController{
		sessions: sessions,
		images:   images,
		archive:  archive,
		proofs:   proofs,
	}
}

// GetThumbnail handles GET /workflow/sessions/{id}/previews/thumb?url=&size=thumb|medium
// Only previews currently displayed in the session are served
func (c *PreviewController) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	session, err := c.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, "GetThumbnail", err)
		return
	}

	previewURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if previewURL == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return
	}
	if !session.HasPreview(previewURL) {
		http.Error(w, "preview not found in session", http.StatusNotFound)
		return
	}

	data, err := c.images.Thumbnail(r.Context(), previewURL, r.URL.Query().Get("size"))
	if err != nil {
		log.Printf("❌ GetThumbnail: %v", err)
		http.Error(w, fmt.Sprintf("Failed to load preview: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("❌ GetThumbnail: Error writing image response: %v", err)
	}
}

// ArchivePreviews handles POST /workflow/sessions/{id}/previews/archive
func (c *PreviewController) ArchivePreviews(w http.ResponseWriter, r *http.Request) {
	if c.archive == nil {
		http.Error(w, "no preview archive store configured", http.StatusServiceUnavailable)
		return
	}
	session, err := c.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, "ArchivePreviews", err)
		return
	}

	previews := session.Previews()
	if len(previews) == 0 {
		http.Error(w, "no previews to archive", http.StatusBadRequest)
		return
	}

	prefix := session.ID
	if result, ok := session.LastResult(); ok && result.RunID != "" {
		prefix = result.RunID
	}
	writeJSON(w, http.StatusOK, c.archive.Archive(r.Context(), prefix, previews))
}

// RenderProof handles GET /workflow/sessions/{id}/proof
// Returns the HTML proof sheet (also used by chromedp for the PDF)
func (c *PreviewController) RenderProof(w http.ResponseWriter, r *http.Request) {
	session, err := c.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, "RenderProof", err)
		return
	}

	result, _ := session.LastResult()
	sheet := service.BuildProofSheet(session.ID, session.Listing(), result, session.Catalog())
	html, err := c.proofs.RenderHTML(sheet)
	if err != nil {
		log.Printf("❌ RenderProof: %v", err)
		http.Error(w, fmt.Sprintf("Failed to render proof sheet: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		log.Printf("❌ RenderProof: Error writing HTML response: %v", err)
	}
}

// GenerateProofPDF handles GET /workflow/sessions/{id}/proof.pdf
func (c *PreviewController) GenerateProofPDF(w http.ResponseWriter, r *http.Request) {
	session, err := c.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, "GenerateProofPDF", err)
		return
	}
	if _, ok := session.LastResult(); !ok {
		http.Error(w, "no generation run to print yet", http.StatusConflict)
		return
	}

	pdfData, err := c.proofs.GeneratePDF(r.Context(), session.ID)
	if err != nil {
		log.Printf("❌ GenerateProofPDF: Error generating PDF: %v", err)
		http.Error(w, fmt.Sprintf("Failed to generate PDF: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"proof_%s.pdf\"", session.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdfData); err != nil {
		log.Printf("❌ GenerateProofPDF: Error writing PDF response: %v", err)
	}
}
