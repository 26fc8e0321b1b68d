package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectActiveLocations(t *testing.T) {
	ds := SampleData()
	got := SelectActiveLocations(ds.Locations, 0)
	names := make([]string, 0, len(got))
	for _, l := range got {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Coast", "Kisumu", "Mombasa", "Nairobi"}, names)

	assert.Len(t, SelectActiveLocations(ds.Locations, 2), 2)
	assert.Len(t, SelectActiveLocations(ds.Locations, -1), 4)
	assert.Empty(t, SelectActiveLocations(nil, 5))
}

func TestSelectActiveCategoriesOrder(t *testing.T) {
	cats := []Category{
		{ID: 3, SortOrder: 2, IsActive: true},
		{ID: 1, SortOrder: 2, IsActive: true},
		{ID: 2, SortOrder: 1, IsActive: true},
		{ID: 4, SortOrder: 0, IsActive: false},
	}
	got := SelectActiveCategories(cats, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 1, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})
	// Input order is untouched.
	assert.Equal(t, int64(3), cats[0].ID)
}

func TestFindCategoryBySlug(t *testing.T) {
	ds := SampleData()

	c, err := FindCategoryBySlug(ds.Categories, "  Home-Garden ")
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)

	padded := append(ds.Categories, Category{ID: 10, Slug: " Te\u0301le\u0301phones ", IsActive: true})
	c, err = FindCategoryBySlug(padded, "t\u00e9l\u00e9phones")
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.ID)

	_, err = FindCategoryBySlug(ds.Categories, "legacy")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = FindCategoryBySlug(ds.Categories, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectActiveConditionsAndUsers(t *testing.T) {
	ds := SampleData()
	assert.Len(t, SelectActiveConditions(ds.Conditions), 3)

	users := SelectActiveUsers(ds.Users, 0)
	require.Len(t, users, 3)
	for _, u := range users {
		assert.Equal(t, UserStatusActive, u.Status)
	}
	assert.Equal(t, int64(4), users[2].ID)
	assert.Len(t, SelectActiveUsers(ds.Users, 1), 1)
}
