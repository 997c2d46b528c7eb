package service

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"listing-studio/models"
	"listing-studio/utils"
)

//go:embed templates/proof_sheet.html
var proofSheetHTML string

var proofSheetTemplate = template.Must(template.New("proof_sheet").Parse(proofSheetHTML))

const pdfTimeout = 30 * time.Second

// ProofSheetService renders the review sheet of a generation run and prints it to PDF
type ProofSheetService struct {
	baseURL    string // public base URL of this service, e.g. "http://localhost:8080"
	chromePath string
}

// NewProofSheetService creates a new ProofSheetService
func NewProofSheetService(baseURL, chromePath string) *ProofSheetService {
	return &ProofSheetService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chromePath: chromePath,
	}
}

// detectChromePath returns the configured Chrome/Chromium executable, else the first
// common installation path that exists
func detectChromePath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// BuildProofSheet assembles the sheet of a session's last run
func BuildProofSheet(sessionID string, listing models.ListingForm, result models.GenerationResult, catalog *CatalogCache) models.ProofSheet {
	sheet := models.ProofSheet{
		SessionID: sessionID,
		RunID:     result.RunID,
		Listing:   listing,
		Keywords:  utils.SplitList(listing.Keywords),
		Tags:      utils.SplitList(listing.Tags),
		Items:     make([]models.ProofItem, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		proof := models.ProofItem{
			BlueprintID: item.BlueprintID,
			Title:       fmt.Sprintf("Blueprint %d", item.BlueprintID),
			ProductID:   item.CreatedProductID,
			Previews:    item.Previews,
			Error:       item.Error,
		}
		if bp, ok := catalog.Get(item.BlueprintID); ok {
			proof.Title = bp.Title
			proof.Brand = bp.Brand
			proof.Model = bp.Model
			proof.ImageURL = bp.ImageURL
		}
		sheet.Items = append(sheet.Items, proof)
	}
	return sheet
}

// RenderHTML renders the proof sheet page
func (s *ProofSheetService) RenderHTML(sheet models.ProofSheet) (string, error) {
	var buf bytes.Buffer
	if err := proofSheetTemplate.Execute(&buf, sheet); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GeneratePDF prints the proof sheet page of a session with headless Chrome
func (s *ProofSheetService) GeneratePDF(ctx context.Context, sessionID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
		chromedp.Flag("enable-print-preview", true),
	)
	if chromePath := detectChromePath(s.chromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	} else {
		log.Printf("⚠️  ProofSheet.GeneratePDF: no Chrome found, letting chromedp auto-detect")
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	renderURL := fmt.Sprintf("%s/workflow/sessions/%s/proof", s.baseURL, sessionID)
	log.Printf("🖨️  ProofSheet.GeneratePDF: printing %s", renderURL)

	var pdfBuf []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.EmulateViewport(794, 1123),
		chromedp.Navigate(renderURL),
		chromedp.WaitReady("body"),
		// Wait for fonts and preview images
		chromedp.Evaluate(`
			Promise.all([
				document.fonts.ready,
				Promise.all(Array.from(document.querySelectorAll('img')).map(img => new Promise((resolve) => {
					if (img.complete) { resolve(); return; }
					const timeout = setTimeout(resolve, 5000);
					img.onload = () => { clearTimeout(timeout); resolve(); };
					img.onerror = () => { clearTimeout(timeout); resolve(); };
				})))
			]);
		`, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	log.Printf("✅ ProofSheet.GeneratePDF: %d bytes", len(pdfBuf))
	return pdfBuf, nil
}
