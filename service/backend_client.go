package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"listing-studio/metrics"
	"listing-studio/models"
)

const (
	// DefaultCallTimeout bounds every remote backend call
	DefaultCallTimeout = 30 * time.Second
	maxResponseBytes   = 10 << 20
	maxErrorBodyBytes  = 512
)

// BackendClient talks to the remote print-on-demand backend over HTTP
// Implements CatalogSource, VariantSource, TemplateSource, NicheSource, ProductCreator and DesignGenerator
type BackendClient struct {
	baseURL    *url.URL
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewBackendClient creates a new BackendClient
// baseURL is the backend root (e.g. "http://localhost:8000"); apiKey is sent as a bearer token when set
func NewBackendClient(baseURL, apiKey string, timeout time.Duration) (*BackendClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q: scheme and host are required", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &BackendClient{
		baseURL:    u,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
	}, nil
}

// Ensure BackendClient implements every backend contract
var (
	_ CatalogSource   = (*BackendClient)(nil)
	_ VariantSource   = (*BackendClient)(nil)
	_ TemplateSource  = (*BackendClient)(nil)
	_ NicheSource     = (*BackendClient)(nil)
	_ ProductCreator  = (*BackendClient)(nil)
	_ DesignGenerator = (*BackendClient)(nil)
)

// blueprintRecord is the wire shape of a catalog entry; the image may come in several fields
type blueprintRecord struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Category    string            `json:"category"`
	ImageURL    string            `json:"image_url"`
	Image       string            `json:"image"`
	Images      []json.RawMessage `json:"images"`
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	Description string            `json:"description"`
}

func (r blueprintRecord) toModel() models.Blueprint {
	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	return models.Blueprint{
		ID:          r.ID,
		Title:       r.Title,
		Category:    category,
		ImageURL:    r.imageURL(),
		Brand:       r.Brand,
		Model:       r.Model,
		Description: r.Description,
	}
}

func (r blueprintRecord) imageURL() string {
	if r.ImageURL != "" {
		return r.ImageURL
	}
	if r.Image != "" {
		return r.Image
	}
	if len(r.Images) == 0 {
		return ""
	}
	first := r.Images[0]
	var s string
	if err := json.Unmarshal(first, &s); err == nil {
		return s
	}
	var obj struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal(first, &obj); err == nil {
		return obj.Src
	}
	return ""
}

// ListBlueprints handles GET catalog
func (c *BackendClient) ListBlueprints(ctx context.Context) ([]models.Blueprint, error) {
	data, err := c.call(ctx, "list_blueprints", http.MethodGet, nil, "catalog")
	if err != nil {
		return nil, &models.FetchError{Resource: "catalog", StatusCode: models.StatusCodeOf(err), Err: err}
	}
	records, err := decodeList[blueprintRecord](data, "products")
	if err != nil {
		return nil, &models.FetchError{Resource: "catalog", Err: fmt.Errorf("failed to decode catalog: %w", err)}
	}
	blueprints := make([]models.Blueprint, 0, len(records))
	for _, r := range records {
		blueprints = append(blueprints, r.toModel())
	}
	return blueprints, nil
}

// ListVariants handles GET catalog/{blueprintId}/variants
func (c *BackendClient) ListVariants(ctx context.Context, blueprintID int) ([]models.Variant, error) {
	resource := fmt.Sprintf("variants of blueprint %d", blueprintID)
	data, err := c.call(ctx, "list_variants", http.MethodGet, nil, "catalog", strconv.Itoa(blueprintID), "variants")
	if err != nil {
		return nil, &models.FetchError{Resource: resource, StatusCode: models.StatusCodeOf(err), Err: err}
	}
	variants, err := decodeList[models.Variant](data, "variants")
	if err != nil {
		return nil, &models.FetchError{Resource: resource, Err: fmt.Errorf("failed to decode variants: %w", err)}
	}
	return variants, nil
}

// ListTemplates handles GET templates
func (c *BackendClient) ListTemplates(ctx context.Context) ([]models.Template, error) {
	data, err := c.call(ctx, "list_templates", http.MethodGet, nil, "templates")
	if err != nil {
		return nil, &models.FetchError{Resource: "templates", StatusCode: models.StatusCodeOf(err), Err: err}
	}
	templates, err := decodeList[models.Template](data, "templates")
	if err != nil {
		return nil, &models.FetchError{Resource: "templates", Err: fmt.Errorf("failed to decode templates: %w", err)}
	}
	for i := range templates {
		normalizeTemplate(&templates[i])
	}
	return templates, nil
}

// CreateTemplate handles POST templates
func (c *BackendClient) CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.Template, error) {
	data, err := c.call(ctx, "create_template", http.MethodPost, req, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	var created models.Template
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to decode created template: %w", err)
	}
	normalizeTemplate(&created)
	return &created, nil
}

// SuggestNiches handles POST niches/suggest
func (c *BackendClient) SuggestNiches(ctx context.Context, productType string) ([]string, error) {
	data, err := c.call(ctx, "suggest_niches", http.MethodPost, models.NicheSuggestRequest{ProductType: productType}, "niches", "suggest")
	if err != nil {
		return nil, err
	}
	var resp models.NicheSuggestResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode niche suggestions: %w", err)
	}
	return resp.Suggestions, nil
}

// CreateProduct handles POST products
func (c *BackendClient) CreateProduct(ctx context.Context, req models.CreateProductRequest) (models.RecordID, error) {
	data, err := c.call(ctx, "create_product", http.MethodPost, req, "products")
	if err != nil {
		return "", err
	}
	var resp models.CreateProductResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode created product: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("backend returned no product id")
	}
	return resp.ID, nil
}

// GenerateDesign handles POST designs/generate
func (c *BackendClient) GenerateDesign(ctx context.Context, productID models.RecordID) ([]string, error) {
	data, err := c.call(ctx, "generate_design", http.MethodPost, models.GenerateDesignRequest{ProductID: productID}, "designs", "generate")
	if err != nil {
		return nil, err
	}
	var resp models.GenerateDesignResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode design previews: %w", err)
	}
	if resp.Previews == nil {
		resp.Previews = []string{}
	}
	return resp.Previews, nil
}

// call performs one request with its own timeout and returns the raw body of a 2xx answer
func (c *BackendClient) call(ctx context.Context, operation, method string, body any, path ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	data, err := c.do(ctx, method, c.baseURL.JoinPath(path...).String(), body)
	metrics.BackendLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequests.WithLabelValues(operation, metrics.OutcomeFailure).Inc()
		log.Printf("❌ %s: %s /%s failed: %v", operation, method, strings.Join(path, "/"), err)
		return nil, err
	}
	metrics.BackendRequests.WithLabelValues(operation, metrics.OutcomeSuccess).Inc()
	return data, nil
}

func (c *BackendClient) do(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		return nil, &models.StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return data, nil
}

// decodeList decodes either a bare JSON array or an object wrapping the array under key
func decodeList[T any](data []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		raw, ok := wrapped[key]
		if !ok {
			return nil, fmt.Errorf("response has no %q field", key)
		}
		trimmed = raw
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func normalizeTemplate(t *models.Template) {
	if t.Products == nil {
		t.Products = []int{}
	}
	if t.Variants == nil {
		t.Variants = map[int][]int{}
	}
}
