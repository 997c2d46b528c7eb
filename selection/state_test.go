package selection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"listing-studio/models"
)

func TestRandomTogglesKeepVariantKeysInSync(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	s := New()
	for i := 0; i < 2000; i++ {
		var action Action
		switch rng.Intn(3) {
		case 0:
			action = ToggleProduct{ID: rng.Intn(8)}
		case 1, 2:
			action = ToggleVariant{ProductID: rng.Intn(8), VariantID: rng.Intn(5)}
		}
		s = Reduce(s, action)
		require.NoError(t, s.Check(), "step %d after %#v", i, action)

		keys := make([]int, 0, len(s.Variants))
		for id := range s.Variants {
			keys = append(keys, id)
		}
		require.ElementsMatch(t, s.ProductIDs, keys, "step %d", i)
	}
}

func TestToggleProductAppendsAndRemoves(t *testing.T) {
	t.Parallel()

	s := New()
	s = Reduce(s, ToggleProduct{ID: 3})
	s = Reduce(s, ToggleProduct{ID: 1})
	s = Reduce(s, ToggleProduct{ID: 7})
	require.Equal(t, []int{3, 1, 7}, s.ProductIDs)
	require.Equal(t, []int{}, s.Variants[7])

	s = Reduce(s, ToggleProduct{ID: 1})
	require.Equal(t, []int{3, 7}, s.ProductIDs)
	require.False(t, s.IsSelected(1))
	require.Equal(t, 2, s.SelectedCount())
}

func TestDeselectDiscardsVariantsAndReselectStartsEmpty(t *testing.T) {
	t.Parallel()

	s := Reduce(New(), ToggleProduct{ID: 5})
	s = Reduce(s, ToggleVariant{ProductID: 5, VariantID: 100})
	s = Reduce(s, ToggleVariant{ProductID: 5, VariantID: 101})
	require.Equal(t, []int{100, 101}, s.VariantsFor(5))

	s = Reduce(s, ToggleProduct{ID: 5})
	_, ok := s.Variants[5]
	require.False(t, ok)

	s = Reduce(s, ToggleProduct{ID: 5})
	require.Equal(t, []int{}, s.VariantsFor(5))
}

func TestToggleVariantFlips(t *testing.T) {
	t.Parallel()

	s := Reduce(New(), ToggleProduct{ID: 1})
	s = Reduce(s, ToggleVariant{ProductID: 1, VariantID: 9})
	require.Equal(t, []int{9}, s.Variants[1])
	s = Reduce(s, ToggleVariant{ProductID: 1, VariantID: 9})
	require.Equal(t, []int{}, s.Variants[1])
}

func TestToggleVariantOnUnselectedProductIsIgnored(t *testing.T) {
	t.Parallel()

	s := Reduce(New(), ToggleProduct{ID: 1})
	next := Reduce(s, ToggleVariant{ProductID: 2, VariantID: 9})
	require.Equal(t, s, next)
	require.NoError(t, next.Check())
}

func TestToggleVariantInitializesMissingEntry(t *testing.T) {
	t.Parallel()

	// Built by hand: a selected product without an entry cannot come out of Reduce.
	s := State{ProductIDs: []int{4}, Variants: map[int][]int{}}
	s = Reduce(s, ToggleVariant{ProductID: 4, VariantID: 12})
	require.Equal(t, []int{12}, s.Variants[4])
}

func TestApplyTemplateReplacesRegardlessOfPriorState(t *testing.T) {
	t.Parallel()

	tmpl := models.Template{
		ID:       1,
		Name:     "tees",
		Products: []int{10, 20},
		Variants: map[int][]int{10: {1, 2}, 20: {3}},
	}

	priors := []State{
		New(),
		Reduce(Reduce(New(), ToggleProduct{ID: 10}), ToggleVariant{ProductID: 10, VariantID: 99}),
		Reduce(Reduce(New(), ToggleProduct{ID: 30}), ToggleProduct{ID: 40}),
	}
	for _, prior := range priors {
		s := Reduce(prior, FromTemplate(tmpl))
		require.Equal(t, tmpl.Products, s.ProductIDs)
		require.Equal(t, tmpl.Variants, s.Variants)
		require.Greater(t, s.Version, prior.Version)
	}
}

func TestReplaceAllRepairsInconsistentInput(t *testing.T) {
	t.Parallel()

	s := Reduce(New(), ReplaceAll{
		ProductIDs: []int{1, 2, 1},
		Variants:   map[int][]int{1: {5, 5, 6}, 9: {7}},
	})
	require.Equal(t, []int{1, 2}, s.ProductIDs)
	require.Equal(t, map[int][]int{1: {5, 6}, 2: {}}, s.Variants)
	require.NoError(t, s.Check())
}

func TestReduceDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	s := Reduce(New(), ToggleProduct{ID: 1})
	s = Reduce(s, ToggleVariant{ProductID: 1, VariantID: 2})
	before := s.Clone()

	_ = Reduce(s, ToggleVariant{ProductID: 1, VariantID: 3})
	_ = Reduce(s, ToggleProduct{ID: 1})
	_ = Reduce(s, ReplaceAll{})
	require.Equal(t, before, s)
}

func TestVersionTracksProductSetChanges(t *testing.T) {
	t.Parallel()

	s := New()
	s = Reduce(s, ToggleProduct{ID: 1})
	require.Equal(t, uint64(1), s.Version)
	s = Reduce(s, ToggleVariant{ProductID: 1, VariantID: 2})
	require.Equal(t, uint64(1), s.Version)
	s = Reduce(s, ToggleProduct{ID: 1})
	require.Equal(t, uint64(2), s.Version)
	s = Reduce(s, ReplaceAll{ProductIDs: []int{4}})
	require.Equal(t, uint64(3), s.Version)
}
