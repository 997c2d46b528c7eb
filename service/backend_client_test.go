package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"listing-studio/models"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *BackendClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewBackendClient(server.URL+"/api", "secret", time.Second)
	require.NoError(t, err)
	return client
}

func TestNewBackendClient_RejectsBadURL(t *testing.T) {
	t.Parallel()
	_, err := NewBackendClient("", "", 0)
	require.Error(t, err)
	_, err = NewBackendClient("localhost:8000", "", 0)
	require.Error(t, err)
}

func TestBackendClient_ListBlueprintsShapes(t *testing.T) {
	t.Parallel()
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/catalog", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		io.WriteString(w, `{"products": [
			{"id": 1, "title": "Tee", "category": "Apparel", "image_url": "https://img/1.png"},
			{"id": 2, "title": "Mug", "image": "https://img/2.png", "brand": "Orca"},
			{"id": 3, "title": "Tote", "images": [{"src": "https://img/3.png"}]},
			{"id": 4, "title": "Hat", "images": ["https://img/4.png"], "category": "  "}
		]}`)
	})

	blueprints, err := client.ListBlueprints(context.Background())
	require.NoError(t, err)
	require.Len(t, blueprints, 4)
	require.Equal(t, "https://img/1.png", blueprints[0].ImageURL)
	require.Equal(t, "Apparel", blueprints[0].Category)
	require.Equal(t, "https://img/2.png", blueprints[1].ImageURL)
	require.Equal(t, "Orca", blueprints[1].Brand)
	require.Equal(t, models.DefaultCategory, blueprints[1].Category)
	require.Equal(t, "https://img/3.png", blueprints[2].ImageURL)
	require.Equal(t, "https://img/4.png", blueprints[3].ImageURL)
	require.Equal(t, models.DefaultCategory, blueprints[3].Category)
}

func TestBackendClient_ListVariantsBareArray(t *testing.T) {
	t.Parallel()
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/catalog/12/variants", r.URL.Path)
		io.WriteString(w, `[{"id": 5, "title": "S"}, {"id": 6, "title": "M"}]`)
	})

	variants, err := client.ListVariants(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, []models.Variant{{ID: 5, Title: "S"}, {ID: 6, Title: "M"}}, variants)
}

func TestBackendClient_TemplatesNotFound(t *testing.T) {
	t.Parallel()
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no templates", http.StatusNotFound)
	})

	_, err := client.ListTemplates(context.Background())
	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.True(t, fetchErr.NotFound())
	require.Equal(t, "templates", fetchErr.Resource)
}

func TestBackendClient_MalformedCatalog(t *testing.T) {
	t.Parallel()
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items": []}`)
	})

	_, err := client.ListBlueprints(context.Background())
	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Zero(t, fetchErr.StatusCode)
}

func TestBackendClient_CreateTemplateSendsSelection(t *testing.T) {
	t.Parallel()
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/templates", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Tees", body["name"])
		require.Equal(t, []any{float64(1)}, body["products"])
		require.Equal(t, map[string]any{"1": []any{float64(10)}}, body["variants"])
		io.WriteString(w, `{"id": 3, "name": "Tees", "products": [1], "variants": {"1": [10]}}`)
	})

	tmpl, err := client.CreateTemplate(context.Background(), models.CreateTemplateRequest{
		Name:     "Tees",
		Products: []int{1},
		Variants: map[int][]int{1: {10}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, tmpl.ID)
	require.Equal(t, map[int][]int{1: {10}}, tmpl.Variants)
}

func TestBackendClient_CreateProductAcceptsStringOrNumberID(t *testing.T) {
	t.Parallel()
	answers := []string{`{"id": 42}`, `{"id": "abc-1"}`, `{}`}
	call := 0
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products", r.URL.Path)
		var body models.CreateProductRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, 7, body.BlueprintID)
		io.WriteString(w, answers[call])
		call++
	})

	id, err := client.CreateProduct(context.Background(), models.CreateProductRequest{BlueprintID: 7})
	require.NoError(t, err)
	require.Equal(t, models.RecordID("42"), id)

	id, err = client.CreateProduct(context.Background(), models.CreateProductRequest{BlueprintID: 7})
	require.NoError(t, err)
	require.Equal(t, models.RecordID("abc-1"), id)

	_, err = client.CreateProduct(context.Background(), models.CreateProductRequest{BlueprintID: 7})
	require.Error(t, err)
}

func TestBackendClient_GenerateDesignSendsNumericProductID(t *testing.T) {
	t.Parallel()
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/designs/generate", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(42), body["product_id"])
		io.WriteString(w, `{"previews": ["https://cdn/a.png", "https://cdn/b.png"]}`)
	})

	previews, err := client.GenerateDesign(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn/a.png", "https://cdn/b.png"}, previews)
}

func TestBackendClient_StatusErrorCarriesBody(t *testing.T) {
	t.Parallel()
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.SuggestNiches(context.Background(), "Mug")
	var statusErr *models.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	require.Equal(t, "quota exceeded", statusErr.Body)
}

func TestBackendClient_CallTimeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	client, err := NewBackendClient(server.URL, "", 50*time.Millisecond)
	require.NoError(t, err)

	_, err = client.ListVariants(context.Background(), 1)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}
