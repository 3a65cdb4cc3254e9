package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinedeck/models"
)

func sampleItems() []models.CatalogItem {
	return []models.CatalogItem{
		{ID: "1", Kind: models.KindMovie, Title: "Amélie", ReleaseDate: "2001-04-25", GenreIDs: []int{35, 18}},
		{ID: "2", Kind: models.KindMovie, Title: "Dune", ReleaseDate: "2021-09-15", GenreIDs: []int{878, 12}},
		{ID: "3", Kind: models.KindTV, Title: "Dark", ReleaseDate: "2017-12-01", GenreIDs: []int{18, 9648}},
		{ID: "4", Kind: models.KindMovie, Title: "Undated", GenreIDs: []int{35}},
	}
}

func ids(items []models.CatalogItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestApplyZeroCriteriaCopiesInput(t *testing.T) {
	items := sampleItems()
	got := Apply(items, models.FilterCriteria{}, nil)

	assert.Equal(t, ids(items), ids(got))
	// The result must be a copy, not an alias of the input slice.
	got[0].Title = "mutated"
	assert.Equal(t, "Amélie", items[0].Title)
}

func TestApplyPreservesOrder(t *testing.T) {
	got := Apply(sampleItems(), models.FilterCriteria{GenreIDs: []int{18, 35}}, nil)
	assert.Equal(t, []string{"1", "3", "4"}, ids(got))
}

func TestApplyIsIdempotent(t *testing.T) {
	criteria := models.FilterCriteria{GenreIDs: []int{18}}
	once := Apply(sampleItems(), criteria, nil)
	twice := Apply(once, criteria, nil)
	assert.Equal(t, ids(once), ids(twice))
}

func TestApplyGenresMatchAnySelected(t *testing.T) {
	items := []models.CatalogItem{
		{ID: "ab", GenreIDs: []int{1, 2}},
		{ID: "bc", GenreIDs: []int{2, 3}},
		{ID: "cd", GenreIDs: []int{3, 4}},
	}
	got := Apply(items, models.FilterCriteria{GenreIDs: []int{1, 2}}, nil)
	assert.Equal(t, []string{"ab", "bc"}, ids(got))
}

func TestApplyReleaseRangeBoundsAreInclusive(t *testing.T) {
	cases := []struct {
		name     string
		criteria models.FilterCriteria
		want     []string
	}{
		{"from only", models.FilterCriteria{ReleaseFrom: "2017-12-01"}, []string{"2", "3"}},
		{"to only", models.FilterCriteria{ReleaseTo: "2001-04-25"}, []string{"1"}},
		{"both", models.FilterCriteria{ReleaseFrom: "2001-04-25", ReleaseTo: "2017-12-01"}, []string{"1", "3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(sampleItems(), tc.criteria, nil)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApplyExcludesUndatedItemsWhenBoundSet(t *testing.T) {
	got := Apply(sampleItems(), models.FilterCriteria{ReleaseFrom: "1900-01-01"}, nil)
	assert.NotContains(t, ids(got), "4")

	// Without bounds the undated item passes through.
	got = Apply(sampleItems(), models.FilterCriteria{GenreIDs: []int{35}}, nil)
	assert.Contains(t, ids(got), "4")
}

func TestApplyWatchStatus(t *testing.T) {
	watched := func(key string) bool { return key == "movie:1" || key == "tv:3" }

	seen := Apply(sampleItems(), models.FilterCriteria{WatchStatus: models.WatchSeen}, watched)
	assert.Equal(t, []string{"1", "3"}, ids(seen))

	unseen := Apply(sampleItems(), models.FilterCriteria{WatchStatus: models.WatchUnseen}, watched)
	assert.Equal(t, []string{"2", "4"}, ids(unseen))
}

func TestApplyWatchStatusWithoutMembershipSource(t *testing.T) {
	// No membership source means nothing counts as seen.
	seen := Apply(sampleItems(), models.FilterCriteria{WatchStatus: models.WatchSeen}, nil)
	assert.Empty(t, seen)

	unseen := Apply(sampleItems(), models.FilterCriteria{WatchStatus: models.WatchUnseen}, nil)
	assert.Len(t, unseen, 4)
}

func TestApplyFreeTextFoldsAccentsAndCase(t *testing.T) {
	got := Apply(sampleItems(), models.FilterCriteria{FreeText: "amelie"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Amélie", got[0].Title)

	got = Apply(sampleItems(), models.FilterCriteria{FreeText: "  DUNE  "}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestApplyDimensionsCombineWithAnd(t *testing.T) {
	criteria := models.FilterCriteria{
		GenreIDs:    []int{18},
		ReleaseFrom: "2010-01-01",
		FreeText:    "dark",
	}
	got := Apply(sampleItems(), criteria, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}
