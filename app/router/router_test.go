package router

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"listing-studio/app/controller"
	"listing-studio/models"
	"listing-studio/service"
)

// remoteBackend serves the backend contracts the service depends on
func remoteBackend(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	templates := []models.Template{{ID: 1, Name: "Tees", Products: []int{1}, Variants: map[int][]int{1: {11}}}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /catalog", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id": 1, "title": "Heavy Tee", "category": "Apparel"},
			{"id": 2, "title": "Mug", "category": "Home"},
			{"id": 2, "title": "Ceramic Mug", "category": "Home"}
		]`)
	})
	mux.HandleFunc("GET /catalog/{id}/variants", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"variants": [{"id": %s1, "title": "S"}, {"id": %s2, "title": "M"}]}`, r.PathValue("id"), r.PathValue("id"))
	})
	mux.HandleFunc("GET /templates", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		json.NewEncoder(w).Encode(templates)
	})
	mux.HandleFunc("POST /templates", func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateTemplateRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		defer mu.Unlock()
		tmpl := models.Template{ID: len(templates) + 1, Name: req.Name, Products: req.Products, Variants: req.Variants}
		templates = append(templates, tmpl)
		json.NewEncoder(w).Encode(tmpl)
	})
	mux.HandleFunc("POST /niches/suggest", func(w http.ResponseWriter, r *http.Request) {
		var req models.NicheSuggestRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ProductType == "Broken" {
			http.Error(w, "model unavailable", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"suggestions": ["cat lovers", "plant parents"]}`)
	})
	mux.HandleFunc("POST /products", func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateProductRequest
		json.NewDecoder(r.Body).Decode(&req)
		fmt.Fprintf(w, `{"id": %d}`, 1000+req.BlueprintID)
	})
	mux.HandleFunc("POST /designs/generate", func(w http.ResponseWriter, r *http.Request) {
		var req models.GenerateDesignRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ProductID == "1002" {
			http.Error(w, "generation failed", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"previews": ["https://cdn.example.com/%s.png"]}`, req.ProductID)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	backend, err := service.NewBackendClient(remoteBackend(t).URL, "", time.Second)
	require.NoError(t, err)

	sessions := service.NewSessionRegistry(service.WorkflowDeps{
		Catalog:   backend,
		Variants:  backend,
		Templates: backend,
		Niches:    backend,
		Pipeline:  service.NewGenerationPipeline(backend, backend, nil, time.Second),
	}, time.Hour)
	images := service.NewImageCache(t.TempDir(), time.Second)

	mux := http.NewServeMux()
	SetupRoutes(mux, &Controllers{
		Workflow:   controller.NewWorkflowController(sessions, 10),
		Preview:    controller.NewPreviewController(sessions, images, nil, service.NewProofSheetService("http://localhost", "")),
		Generation: controller.NewGenerationController(nil),
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// postView decodes each answer into a fresh view so maps never carry keys over between calls
func postView(t *testing.T, url string) service.SessionView {
	t.Helper()
	var view service.SessionView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, url, "", &view))
	return view
}

func createSession(t *testing.T, server *httptest.Server) service.SessionView {
	t.Helper()
	var view service.SessionView
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, server.URL+"/workflow/sessions", "", &view))
	require.NotEmpty(t, view.ID)
	return view
}

func TestPing(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	var body map[string]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, server.URL+"/ping", "", &body))
	require.Equal(t, "ok", body["status"])
}

func TestWorkflow_SessionCatalogAndSelection(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	view := createSession(t, server)
	require.Equal(t, 2, view.CatalogSize)
	require.Len(t, view.Templates, 1)
	base := server.URL + "/workflow/sessions/" + view.ID

	var page models.CatalogPage
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/catalog?q=mug", "", &page))
	require.Len(t, page.Items, 1)
	require.Equal(t, "Ceramic Mug", page.Items[0].Title)

	require.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, base+"/catalog?page=x", "", nil))

	toggled := postView(t, base+"/products/2/toggle")
	require.Equal(t, []int{2}, toggled.Selection.ProductIDs)
	require.Len(t, toggled.VariantOptions[2], 2)

	withVariant := postView(t, base+"/products/2/variants/21/toggle")
	require.Equal(t, map[int][]int{2: {21}}, withVariant.Selection.Variants)

	// applying a template replaces the selection, nothing of product 2 survives
	applied := postView(t, base+"/templates/1/apply")
	require.Equal(t, []int{1}, applied.Selection.ProductIDs)
	require.Equal(t, map[int][]int{1: {11}}, applied.Selection.Variants)
	require.NotContains(t, applied.VariantOptions, 2)
	require.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, base+"/templates/77/apply", "", nil))

	require.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, server.URL+"/workflow/sessions/nope", "", nil))
}

func TestWorkflow_TemplatesAndNiches(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	view := createSession(t, server)
	base := server.URL + "/workflow/sessions/" + view.ID

	require.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, base+"/templates", `{"name": " "}`, nil))

	doJSON(t, http.MethodPost, base+"/products/2/toggle", "", nil)
	var tmpl models.Template
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, base+"/templates", `{"name": "Mugs"}`, &tmpl))
	require.Equal(t, []int{2}, tmpl.Products)

	var templates []models.Template
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/templates", "", &templates))
	require.Len(t, templates, 2)

	var suggestions models.NicheSuggestResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/niches/suggest", "", &suggestions))
	require.Equal(t, []string{"cat lovers", "plant parents"}, suggestions.Suggestions)
	require.Equal(t, http.StatusBadGateway, doJSON(t, http.MethodPost, base+"/niches/suggest", `{"product_type": "Broken"}`, nil))

	var listing models.ListingForm
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, base+"/listing", `{"title": "Cat mug", "tags": "cat, mug"}`, &listing))
	require.Equal(t, "Cat mug", listing.Title)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, base+"/listing/niche", `{"niche": "cat lovers"}`, &listing))
	require.Equal(t, "cat lovers", listing.Niche)
	require.Equal(t, "Cat mug", listing.Title)
}

func TestWorkflow_GenerateStreamsNDJSON(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	view := createSession(t, server)
	base := server.URL + "/workflow/sessions/" + view.ID

	doJSON(t, http.MethodPost, base+"/products/1/toggle", "", nil)
	doJSON(t, http.MethodPost, base+"/products/2/toggle", "", nil)

	resp, err := http.Post(base+"/generate", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var events []models.GenerationEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var event models.GenerationEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, events, 3)

	require.Equal(t, models.EventItem, events[0].Type)
	require.Equal(t, 1, events[0].Item.BlueprintID)
	require.Equal(t, models.RecordID("1001"), events[0].Item.CreatedProductID)
	require.Equal(t, models.EventItem, events[1].Type)
	require.NotEmpty(t, events[1].Item.Error)

	summary := events[2]
	require.Equal(t, models.EventSummary, summary.Type)
	require.Equal(t, []string{"https://cdn.example.com/1001.png"}, summary.Result.Previews)
	require.Len(t, summary.Result.Errors, 1)

	var previews map[string][]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/previews", "", &previews))
	require.Equal(t, []string{"https://cdn.example.com/1001.png"}, previews["previews"])

	proof, err := http.Get(base + "/proof")
	require.NoError(t, err)
	defer proof.Body.Close()
	html, err := io.ReadAll(proof.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, proof.StatusCode)
	require.Contains(t, string(html), "Heavy Tee")
	require.Contains(t, string(html), "https://cdn.example.com/1001.png")
}

func TestPreviews_Guards(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	view := createSession(t, server)
	base := server.URL + "/workflow/sessions/" + view.ID

	require.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, base+"/previews/thumb", "", nil))
	require.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, base+"/previews/thumb?url=https://evil.example.com/x.png", "", nil))
	require.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodPost, base+"/previews/archive", "", nil))
	require.Equal(t, http.StatusConflict, doJSON(t, http.MethodGet, base+"/proof.pdf", "", nil))
	require.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodGet, server.URL+"/admin/generations", "", nil))
}

func TestWorkflow_CloseSession(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	view := createSession(t, server)
	base := server.URL + "/workflow/sessions/" + view.ID

	require.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, base, "", nil))
	require.Equal(t, http.StatusNotFound, doJSON(t, http.MethodDelete, base, "", nil))
	require.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, base, "", nil))
}
