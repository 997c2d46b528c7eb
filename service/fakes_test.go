package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"listing-studio/models"
)

// fakeBackend implements every backend contract in memory and records the calls it receives
type fakeBackend struct {
	mu sync.Mutex

	blueprints    []models.Blueprint
	catalogErr    error
	variants      map[int][]models.Variant
	variantErr    map[int]error
	variantGate   map[int]chan struct{}
	templates     []models.Template
	templatesErr  error
	createTmplErr error
	nextTmplID    int
	niches        []string
	nicheErr      error
	createErr     map[int]error
	productGate   chan struct{}
	designErr     map[models.RecordID]error
	previews      map[models.RecordID][]string

	variantCalls   []int
	productCalls   []models.CreateProductRequest
	designCalls    []models.RecordID
	templateCreate []models.CreateTemplateRequest
	nicheCalls     []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		variants:    map[int][]models.Variant{},
		variantErr:  map[int]error{},
		variantGate: map[int]chan struct{}{},
		createErr:   map[int]error{},
		designErr:   map[models.RecordID]error{},
		previews:    map[models.RecordID][]string{},
		nextTmplID:  100,
	}
}

func (f *fakeBackend) ListBlueprints(ctx context.Context) ([]models.Blueprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return append([]models.Blueprint{}, f.blueprints...), nil
}

func (f *fakeBackend) ListVariants(ctx context.Context, blueprintID int) ([]models.Variant, error) {
	f.mu.Lock()
	f.variantCalls = append(f.variantCalls, blueprintID)
	gate := f.variantGate[blueprintID]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.variantErr[blueprintID]; err != nil {
		return nil, err
	}
	return append([]models.Variant{}, f.variants[blueprintID]...), nil
}

func (f *fakeBackend) ListTemplates(ctx context.Context) ([]models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.templatesErr != nil {
		return nil, f.templatesErr
	}
	return append([]models.Template{}, f.templates...), nil
}

func (f *fakeBackend) CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateCreate = append(f.templateCreate, req)
	if f.createTmplErr != nil {
		return nil, f.createTmplErr
	}
	f.nextTmplID++
	tmpl := models.Template{ID: f.nextTmplID, Name: req.Name, Products: req.Products, Variants: req.Variants}
	f.templates = append(f.templates, tmpl)
	return &tmpl, nil
}

func (f *fakeBackend) SuggestNiches(ctx context.Context, productType string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nicheCalls = append(f.nicheCalls, productType)
	if f.nicheErr != nil {
		return nil, f.nicheErr
	}
	return append([]string{}, f.niches...), nil
}

func (f *fakeBackend) CreateProduct(ctx context.Context, req models.CreateProductRequest) (models.RecordID, error) {
	f.mu.Lock()
	gate := f.productGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls = append(f.productCalls, req)
	if err := f.createErr[req.BlueprintID]; err != nil {
		return "", err
	}
	return models.RecordID(fmt.Sprintf("p%d", req.BlueprintID)), nil
}

func (f *fakeBackend) GenerateDesign(ctx context.Context, productID models.RecordID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.designCalls = append(f.designCalls, productID)
	if err := f.designErr[productID]; err != nil {
		return nil, err
	}
	if previews, ok := f.previews[productID]; ok {
		return append([]string{}, previews...), nil
	}
	return []string{fmt.Sprintf("https://cdn.example.com/%s.png", productID)}, nil
}

func (f *fakeBackend) variantCallsFor(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.variantCalls {
		if call == id {
			n++
		}
	}
	return n
}

func (f *fakeBackend) productCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.productCalls)
}

func (f *fakeBackend) designCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.designCalls)
}

func notFound(resource string) error {
	return &models.FetchError{
		Resource:   resource,
		StatusCode: http.StatusNotFound,
		Err:        &models.StatusError{StatusCode: http.StatusNotFound},
	}
}

// memoryRecorder collects pipeline records
type memoryRecorder struct {
	mu      sync.Mutex
	records []models.GenerationRecord
}

func (r *memoryRecorder) Record(ctx context.Context, rec models.GenerationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}
