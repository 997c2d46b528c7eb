package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"listing-studio/metrics"
	"listing-studio/models"
	"listing-studio/selection"
)

var (
	// ErrGenerationRunning is returned when a session already has a pipeline run in progress
	ErrGenerationRunning = errors.New("a generation run is already in progress for this session")
	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("workflow session not found")
)

// WorkflowDeps are the collaborators shared by every session
type WorkflowDeps struct {
	Catalog   CatalogSource
	Variants  VariantSource
	Templates TemplateSource
	Niches    NicheSource
	Pipeline  *GenerationPipeline
}

// WorkflowSession is one operator's pass through the listing workflow.
// It owns the selection value; every change goes through selection.Reduce under mu.
type WorkflowSession struct {
	ID        string
	CreatedAt time.Time

	catalog   *CatalogCache
	templates *TemplateStore
	variants  *VariantResolver
	niches    *NicheService
	pipeline  *GenerationPipeline

	mu          sync.Mutex
	state       selection.State
	listing     models.ListingForm
	suggestions []string
	previews    []string
	lastResult  *models.GenerationResult
	generating  bool
	lastSeen    time.Time
}

// SessionView is the JSON snapshot of a session handed to the presentation layer
type SessionView struct {
	ID               string                   `json:"id"`
	Selection        selection.State          `json:"selection"`
	VariantOptions   map[int][]models.Variant `json:"variantOptions"`
	VariantsReady    bool                     `json:"variantsReady"`
	Listing          models.ListingForm       `json:"listing"`
	NicheSuggestions []string                 `json:"nicheSuggestions"`
	ActiveTemplateID *int                     `json:"activeTemplateId,omitempty"`
	Previews         []string                 `json:"previews"`
	Generating       bool                     `json:"generating"`
	LastResult       *models.GenerationResult `json:"lastResult,omitempty"`
	CatalogSize      int                      `json:"catalogSize"`
	Templates        []models.Template        `json:"templates"`
}

// NewWorkflowSession creates a new WorkflowSession with empty caches
func NewWorkflowSession(deps WorkflowDeps) *WorkflowSession {
	now := time.Now()
	return &WorkflowSession{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		catalog:     NewCatalogCache(deps.Catalog),
		templates:   NewTemplateStore(deps.Templates),
		variants:    NewVariantResolver(deps.Variants),
		niches:      NewNicheService(deps.Niches),
		pipeline:    deps.Pipeline,
		state:       selection.New(),
		suggestions: []string{},
		previews:    []string{},
		lastSeen:    now,
	}
}

// Enter loads the catalog and the templates concurrently. Neither load can block the
// workflow: failures leave the corresponding list empty.
func (s *WorkflowSession) Enter(ctx context.Context) {
	log.Printf("🚪 WorkflowSession.Enter: session=%s", s.ID)
	var g errgroup.Group
	g.Go(func() error {
		if _, err := s.catalog.Load(ctx); err != nil {
			log.Printf("⚠️  WorkflowSession.Enter: session=%s continuing with an empty catalog: %v", s.ID, err)
		}
		return nil
	})
	g.Go(func() error {
		s.templates.LoadAll(ctx)
		return nil
	})
	_ = g.Wait()
}

// Catalog returns the session catalog cache
func (s *WorkflowSession) Catalog() *CatalogCache {
	return s.catalog
}

// Selection returns a copy of the current selection
func (s *WorkflowSession) Selection() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// dispatch applies action and, when the product set changed, resyncs the variant resolver
func (s *WorkflowSession) dispatch(ctx context.Context, action selection.Action) selection.State {
	s.mu.Lock()
	prev := s.state
	next := selection.Reduce(prev, action)
	s.state = next
	s.mu.Unlock()

	if next.Version != prev.Version {
		s.variants.Sync(ctx, next.Version, next.ProductIDs)
	}
	return next.Clone()
}

// ToggleProduct selects or deselects a blueprint
func (s *WorkflowSession) ToggleProduct(ctx context.Context, productID int) selection.State {
	return s.dispatch(ctx, selection.ToggleProduct{ID: productID})
}

// ToggleVariant selects or deselects a variant of a selected blueprint
func (s *WorkflowSession) ToggleVariant(ctx context.Context, productID, variantID int) selection.State {
	return s.dispatch(ctx, selection.ToggleVariant{ProductID: productID, VariantID: variantID})
}

// ApplyTemplate replaces the selection with the template's. Unknown ids are a no-op and
// report false (the template may have been deleted since the list was loaded).
func (s *WorkflowSession) ApplyTemplate(ctx context.Context, templateID int) (selection.State, bool) {
	tmpl, ok := s.templates.Activate(templateID)
	if !ok {
		log.Printf("⏭️  WorkflowSession.ApplyTemplate: session=%s template %d not found, selection unchanged", s.ID, templateID)
		return s.Selection(), false
	}
	log.Printf("📋 WorkflowSession.ApplyTemplate: session=%s applying template %d (%s)", s.ID, tmpl.ID, tmpl.Name)
	return s.dispatch(ctx, selection.FromTemplate(tmpl)), true
}

// SaveTemplate saves the current selection as a named template
func (s *WorkflowSession) SaveTemplate(ctx context.Context, name string) (models.Template, error) {
	return s.templates.Save(ctx, name, s.Selection())
}

// Templates returns the loaded templates
func (s *WorkflowSession) Templates() []models.Template {
	return s.templates.List()
}

// UpdateListing replaces the listing form
func (s *WorkflowSession) UpdateListing(form models.ListingForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listing = form
}

// Listing returns the listing form
func (s *WorkflowSession) Listing() models.ListingForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listing
}

// SuggestNiches asks for niche ideas. An empty productType defaults to the title of the
// first selected blueprint.
func (s *WorkflowSession) SuggestNiches(ctx context.Context, productType string) ([]string, error) {
	if productType == "" {
		sel := s.Selection()
		if len(sel.ProductIDs) > 0 {
			if bp, ok := s.catalog.Get(sel.ProductIDs[0]); ok {
				productType = bp.Title
			}
		}
	}
	suggestions, err := s.niches.Suggest(ctx, productType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.suggestions = slices.Clone(suggestions)
	s.mu.Unlock()
	return suggestions, nil
}

// ChooseNiche sets the listing niche and clears the suggestion list
func (s *WorkflowSession) ChooseNiche(niche string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listing.Niche = niche
	s.suggestions = []string{}
}

// VariantOptions returns the fetched variants of the selected blueprints
func (s *WorkflowSession) VariantOptions() map[int][]models.Variant {
	return s.variants.Snapshot()
}

// Generate starts a pipeline run over the current selection and streams its items.
// The displayed previews are replaced by the run's previews when its first item arrives.
// An empty selection starts nothing and returns a closed channel.
func (s *WorkflowSession) Generate(ctx context.Context) (string, <-chan models.GenerationItemResult, error) {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return "", nil, ErrGenerationRunning
	}
	if len(s.state.ProductIDs) == 0 {
		s.mu.Unlock()
		log.Printf("⏭️  WorkflowSession.Generate: session=%s nothing selected", s.ID)
		ch := make(chan models.GenerationItemResult)
		close(ch)
		return "", ch, nil
	}
	snapshot := s.state.Clone()
	req := models.GenerationRequest{
		Listing:    s.listing,
		ProductIDs: snapshot.ProductIDs,
		Variants:   snapshot.Variants,
	}
	s.generating = true
	s.mu.Unlock()

	runID, items := s.pipeline.Run(ctx, req)
	out := make(chan models.GenerationItemResult, len(req.ProductIDs))
	go func() {
		result := models.NewGenerationResult(runID)
		first := true
		for item := range items {
			result.Add(item)

			s.mu.Lock()
			if first {
				s.previews = []string{}
				first = false
			}
			s.previews = append(s.previews, item.Previews...)
			s.mu.Unlock()

			out <- item
		}

		s.mu.Lock()
		s.generating = false
		s.lastResult = &result
		s.mu.Unlock()
		close(out)
	}()
	return runID, out, nil
}

// GenerateAndWait runs the pipeline and returns the collected result
func (s *WorkflowSession) GenerateAndWait(ctx context.Context) (models.GenerationResult, error) {
	runID, items, err := s.Generate(ctx)
	if err != nil {
		return models.GenerationResult{}, err
	}
	result := models.NewGenerationResult(runID)
	for item := range items {
		result.Add(item)
	}
	return result, nil
}

// Previews returns the displayed preview URLs
func (s *WorkflowSession) Previews() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.previews)
}

// HasPreview reports whether url is one of the displayed previews
func (s *WorkflowSession) HasPreview(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.previews, url)
}

// LastResult returns the result of the last completed run
func (s *WorkflowSession) LastResult() (models.GenerationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return models.GenerationResult{}, false
	}
	return *s.lastResult, true
}

// View returns a snapshot of the session for the presentation layer
func (s *WorkflowSession) View() SessionView {
	s.mu.Lock()
	view := SessionView{
		ID:               s.ID,
		Selection:        s.state.Clone(),
		Listing:          s.listing,
		NicheSuggestions: slices.Clone(s.suggestions),
		Previews:         slices.Clone(s.previews),
		Generating:       s.generating,
		LastResult:       s.lastResult,
	}
	s.mu.Unlock()

	view.VariantOptions = s.variants.Snapshot()
	view.VariantsReady = s.variants.Ready()
	view.CatalogSize = s.catalog.Len()
	view.Templates = s.templates.List()
	if tmpl, ok := s.templates.Active(); ok {
		id := tmpl.ID
		view.ActiveTemplateID = &id
	}
	return view
}

func (s *WorkflowSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *WorkflowSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionRegistry keeps the open workflow sessions of the process
type SessionRegistry struct {
	deps WorkflowDeps
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*WorkflowSession
}

// NewSessionRegistry creates a new SessionRegistry; sessions idle for longer than ttl are pruned
func NewSessionRegistry(deps WorkflowDeps, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		deps:     deps,
		ttl:      ttl,
		sessions: map[string]*WorkflowSession{},
	}
}

// Create opens a session and enters the workflow (catalog and templates are loaded)
func (r *SessionRegistry) Create(ctx context.Context) *WorkflowSession {
	session := NewWorkflowSession(r.deps)
	session.Enter(ctx)

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	metrics.ActiveSessions.Inc()

	log.Printf("✅ SessionRegistry.Create: session=%s opened (%d blueprints)", session.ID, session.catalog.Len())
	return session
}

// Get returns an open session
func (r *SessionRegistry) Get(id string) (*WorkflowSession, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	session.touch(time.Now())
	return session, nil
}

// Close removes a session
func (r *SessionRegistry) Close(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		metrics.ActiveSessions.Dec()
	}
	return ok
}

// Prune removes sessions idle since before now-ttl and returns how many were removed
func (r *SessionRegistry) Prune(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if session.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.ActiveSessions.Sub(float64(removed))
		log.Printf("🧹 SessionRegistry.Prune: removed %d idle sessions", removed)
	}
	return removed
}

// StartJanitor prunes idle sessions every interval until ctx is done
func (r *SessionRegistry) StartJanitor(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.Prune(now)
			}
		}
	}()
}
