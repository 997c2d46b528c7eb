// Package selection holds the product/variant selection of a listing workflow.
//
// The selection is an immutable State value; every change goes through Reduce, which returns a
// new State. Reduce keeps the variant map keyed by exactly the selected products, so a product
// can never carry variant ids once it has left the selection.
package selection

import (
	"fmt"
	"slices"

	"listing-studio/models"
)

// State is the selected products (in selection order) and, per product, the selected variant ids
type State struct {
	ProductIDs []int         `json:"productIds"`
	Variants   map[int][]int `json:"variants"`
	// Version increases every time the product set changes. Variant fetches started under an
	// older version are discarded on arrival unless the product is still selected.
	Version uint64 `json:"version"`
}

// Action is a state transition
type Action interface {
	apply(s State) State
}

// ToggleProduct selects an unselected product (appended, empty variant set) or deselects a
// selected one (its variant set is discarded)
type ToggleProduct struct {
	ID int
}

// ToggleVariant flips one variant id of a selected product.
// It is ignored when the product is not selected.
type ToggleVariant struct {
	ProductID int
	VariantID int
}

// ReplaceAll swaps the whole selection, as when a template is applied
type ReplaceAll struct {
	ProductIDs []int
	Variants   map[int][]int
}

// New returns an empty selection
func New() State {
	return State{ProductIDs: []int{}, Variants: map[int][]int{}}
}

// FromTemplate returns the action that replaces the selection with a template's selection
func FromTemplate(t models.Template) ReplaceAll {
	return ReplaceAll{ProductIDs: t.Products, Variants: t.Variants}
}

// Reduce applies action to s and returns the resulting state; s itself is never modified
func Reduce(s State, action Action) State {
	next := s.Clone()
	if action == nil {
		return next
	}
	return action.apply(next)
}

func (a ToggleProduct) apply(s State) State {
	if idx := slices.Index(s.ProductIDs, a.ID); idx >= 0 {
		s.ProductIDs = slices.Delete(s.ProductIDs, idx, idx+1)
		delete(s.Variants, a.ID)
	} else {
		s.ProductIDs = append(s.ProductIDs, a.ID)
		s.Variants[a.ID] = []int{}
	}
	s.Version++
	return s
}

func (a ToggleVariant) apply(s State) State {
	if !slices.Contains(s.ProductIDs, a.ProductID) {
		return s
	}
	current, ok := s.Variants[a.ProductID]
	if !ok {
		current = []int{}
	}
	if idx := slices.Index(current, a.VariantID); idx >= 0 {
		current = slices.Delete(current, idx, idx+1)
	} else {
		current = append(current, a.VariantID)
	}
	s.Variants[a.ProductID] = current
	return s
}

func (a ReplaceAll) apply(s State) State {
	products := make([]int, 0, len(a.ProductIDs))
	variants := make(map[int][]int, len(a.ProductIDs))
	for _, id := range a.ProductIDs {
		if _, seen := variants[id]; seen {
			continue
		}
		products = append(products, id)
		variants[id] = dedupe(a.Variants[id])
	}
	s.ProductIDs = products
	s.Variants = variants
	s.Version++
	return s
}

// Clone returns a deep copy of s
func (s State) Clone() State {
	out := State{
		ProductIDs: make([]int, len(s.ProductIDs)),
		Variants:   make(map[int][]int, len(s.Variants)),
		Version:    s.Version,
	}
	copy(out.ProductIDs, s.ProductIDs)
	for id, variants := range s.Variants {
		out.Variants[id] = slices.Clone(variants)
		if out.Variants[id] == nil {
			out.Variants[id] = []int{}
		}
	}
	return out
}

// IsSelected reports whether the product is selected
func (s State) IsSelected(id int) bool {
	return slices.Contains(s.ProductIDs, id)
}

// SelectedCount returns the number of selected products
func (s State) SelectedCount() int {
	return len(s.ProductIDs)
}

// VariantsFor returns a copy of the variant ids selected for a product (empty when none)
func (s State) VariantsFor(id int) []int {
	v := slices.Clone(s.Variants[id])
	if v == nil {
		return []int{}
	}
	return v
}

// Check verifies that the variant map is keyed by exactly the selected products
func (s State) Check() error {
	if len(s.Variants) != len(s.ProductIDs) {
		return fmt.Errorf("selection has %d products but %d variant sets", len(s.ProductIDs), len(s.Variants))
	}
	for _, id := range s.ProductIDs {
		if _, ok := s.Variants[id]; !ok {
			return fmt.Errorf("product %d has no variant set", id)
		}
	}
	return nil
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
