package service

import (
	"context"
	"iter"
	"log"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"listing-studio/models"
	"listing-studio/utils"
)

// DefaultPageSize is the catalog page size when none is requested
const DefaultPageSize = 10

// CatalogCache holds the blueprints fetched for one workflow session
type CatalogCache struct {
	source CatalogSource

	mu    sync.RWMutex
	items []models.Blueprint
	index map[int]int
}

// NewCatalogCache creates a new CatalogCache
func NewCatalogCache(source CatalogSource) *CatalogCache {
	return &CatalogCache{
		source: source,
		items:  []models.Blueprint{},
		index:  map[int]int{},
	}
}

// Load fetches the catalog and replaces the cached items.
// On failure the cache is left empty and the *models.FetchError is returned.
func (c *CatalogCache) Load(ctx context.Context) ([]models.Blueprint, error) {
	log.Printf("📚 CatalogCache.Load: fetching catalog")

	raw, err := c.source.ListBlueprints(ctx)
	if err != nil {
		c.replace(nil)
		log.Printf("❌ CatalogCache.Load: %v", err)
		return nil, err
	}

	items := DedupeBlueprints(raw)
	c.replace(items)
	log.Printf("✓ CatalogCache.Load: %d blueprints cached (%d received)", len(items), len(raw))
	return slices.Clone(items), nil
}

func (c *CatalogCache) replace(items []models.Blueprint) {
	index := make(map[int]int, len(items))
	for i, item := range items {
		index[item.ID] = i
	}
	if items == nil {
		items = []models.Blueprint{}
	}

	c.mu.Lock()
	c.items = items
	c.index = index
	c.mu.Unlock()
}

// DedupeBlueprints removes repeated ids. The last record for an id wins; it takes the
// position where the id first appeared.
func DedupeBlueprints(raw []models.Blueprint) []models.Blueprint {
	out := make([]models.Blueprint, 0, len(raw))
	position := make(map[int]int, len(raw))
	for _, item := range raw {
		if i, ok := position[item.ID]; ok {
			out[i] = item
			continue
		}
		position[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

// Items returns a copy of the cached blueprints
func (c *CatalogCache) Items() []models.Blueprint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of cached blueprints
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the blueprint with the given id
func (c *CatalogCache) Get(id int) (models.Blueprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return models.Blueprint{}, false
	}
	return c.items[i], true
}

// Filter yields the blueprints whose title contains query (case-insensitive) and, when
// category is non-empty, whose category equals it
func (c *CatalogCache) Filter(query, category string) iter.Seq[models.Blueprint] {
	c.mu.RLock()
	items := c.items
	c.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	return func(yield func(models.Blueprint) bool) {
		for _, item := range items {
			if category != "" && item.Category != category {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(item.Title), needle) {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Categories returns the distinct categories in load order
func (c *CatalogCache) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string]bool{}
	categories := []string{}
	for _, item := range c.items {
		if seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		categories = append(categories, item.Category)
	}
	return categories
}

// Page filters the catalog and slices one page of it
func (c *CatalogCache) Page(query, category string, page, pageSize int) models.CatalogPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	matches := slices.Collect(c.Filter(query, category))
	totalPages := utils.TotalPages(len(matches), pageSize)
	page = utils.ClampPage(page, totalPages)

	result := models.CatalogPage{
		Items:       utils.Paginate(matches, pageSize, page),
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  len(matches),
		TotalPages:  totalPages,
		PageNumbers: utils.PageNumbers(page, totalPages),
		Categories:  c.Categories(),
	}
	if result.Items == nil {
		result.Items = []models.Blueprint{}
	}
	if len(matches) == 0 && strings.TrimSpace(query) != "" {
		result.DidYouMean = c.Closest(query, 3)
	}
	return result
}

// Closest returns up to n titles nearest to query by edit distance.
// Each title is scored by its closest word so that short queries can match long titles.
func (c *CatalogCache) Closest(query string, n int) []string {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || n <= 0 {
		return nil
	}
	maxDistance := max(2, len(needle)/3)

	type scored struct {
		title    string
		distance int
	}
	var candidates []scored
	seen := map[string]bool{}
	for _, item := range c.Items() {
		if seen[item.Title] {
			continue
		}
		seen[item.Title] = true

		title := strings.ToLower(item.Title)
		best := levenshtein.ComputeDistance(needle, title)
		for _, word := range strings.Fields(title) {
			if d := levenshtein.ComputeDistance(needle, word); d < best {
				best = d
			}
		}
		if best <= maxDistance {
			candidates = append(candidates, scored{title: item.Title, distance: best})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].title < candidates[j].title
	})

	titles := make([]string, 0, min(n, len(candidates)))
	for _, cand := range candidates {
		if len(titles) == n {
			break
		}
		titles = append(titles, cand.title)
	}
	return titles
}
