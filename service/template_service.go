package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"listing-studio/models"
	"listing-studio/selection"
)

// TemplateStore holds the saved selection templates of a workflow session
type TemplateStore struct {
	source TemplateSource

	mu        sync.RWMutex
	templates []models.Template
	activeID  int
	hasActive bool
}

// NewTemplateStore creates a new TemplateStore
func NewTemplateStore(source TemplateSource) *TemplateStore {
	return &TemplateStore{
		source:    source,
		templates: []models.Template{},
	}
}

// LoadAll fetches the saved templates. It never fails: a 404, a malformed answer or a
// transport error all leave the store with an empty list.
func (s *TemplateStore) LoadAll(ctx context.Context) []models.Template {
	templates, err := s.source.ListTemplates(ctx)
	if err != nil {
		var fetchErr *models.FetchError
		if errors.As(err, &fetchErr) && fetchErr.NotFound() {
			log.Printf("📭 TemplateStore.LoadAll: no templates yet")
		} else {
			log.Printf("⚠️  TemplateStore.LoadAll: continuing without templates: %v", err)
		}
		templates = []models.Template{}
	}

	s.mu.Lock()
	s.templates = templates
	if s.hasActive && s.indexOf(s.activeID) < 0 {
		s.hasActive = false
	}
	s.mu.Unlock()

	log.Printf("✓ TemplateStore.LoadAll: %d templates", len(templates))
	return s.List()
}

// Save stores the selection under name; the new template is appended and becomes active.
// An empty name is rejected with a *models.ValidationError before any remote call.
func (s *TemplateStore) Save(ctx context.Context, name string, sel selection.State) (models.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Template{}, &models.ValidationError{Field: "name", Message: "cannot be empty"}
	}

	snapshot := sel.Clone()
	req := models.CreateTemplateRequest{
		Name:     name,
		Products: snapshot.ProductIDs,
		Variants: snapshot.Variants,
	}

	log.Printf("💾 TemplateStore.Save: saving template %q with %d products", name, len(req.Products))
	created, err := s.source.CreateTemplate(ctx, req)
	if err != nil {
		log.Printf("❌ TemplateStore.Save: %v", err)
		return models.Template{}, fmt.Errorf("failed to save template: %w", err)
	}

	tmpl := cloneTemplate(*created)
	if tmpl.Name == "" {
		tmpl.Name = name
	}
	if len(tmpl.Products) == 0 && len(req.Products) > 0 {
		tmpl.Products = slices.Clone(req.Products)
		tmpl.Variants = cloneVariants(req.Variants)
	}

	s.mu.Lock()
	s.templates = append(s.templates, tmpl)
	s.activeID = tmpl.ID
	s.hasActive = true
	s.mu.Unlock()

	log.Printf("✅ TemplateStore.Save: template id=%d saved", tmpl.ID)
	return cloneTemplate(tmpl), nil
}

// Lookup returns the template with the given id
func (s *TemplateStore) Lookup(id int) (models.Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Template{}, false
	}
	return cloneTemplate(s.templates[i]), true
}

// Activate marks the template as active and returns it; unknown ids are ignored
func (s *TemplateStore) Activate(id int) (models.Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Template{}, false
	}
	s.activeID = id
	s.hasActive = true
	return cloneTemplate(s.templates[i]), true
}

// Active returns the active template, if any
func (s *TemplateStore) Active() (models.Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasActive {
		return models.Template{}, false
	}
	i := s.indexOf(s.activeID)
	if i < 0 {
		return models.Template{}, false
	}
	return cloneTemplate(s.templates[i]), true
}

// List returns a copy of the loaded templates
func (s *TemplateStore) List() []models.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, cloneTemplate(t))
	}
	return out
}

// indexOf must be called with s.mu held
func (s *TemplateStore) indexOf(id int) int {
	return slices.IndexFunc(s.templates, func(t models.Template) bool { return t.ID == id })
}

func cloneTemplate(t models.Template) models.Template {
	t.Products = slices.Clone(t.Products)
	if t.Products == nil {
		t.Products = []int{}
	}
	t.Variants = cloneVariants(t.Variants)
	return t
}

func cloneVariants(v map[int][]int) map[int][]int {
	out := make(map[int][]int, len(v))
	for id, ids := range v {
		out[id] = slices.Clone(ids)
	}
	return out
}
