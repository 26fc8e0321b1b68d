package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/marketplace/storage"
)

func TestMemoryCatalog(t *testing.T) {
	ctx := t.Context()
	c := NewSeededCatalog(storage.SampleData())

	t.Run("ActiveLocations", func(t *testing.T) {
		locs, err := c.ActiveLocations(ctx, 0)
		require.NoError(t, err)
		names := make([]string, len(locs))
		for i, l := range locs {
			names[i] = l.Name
		}
		assert.Equal(t, []string{"Coast", "Kisumu", "Mombasa", "Nairobi"}, names)

		locs, err = c.ActiveLocations(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, locs, 2)
	})

	t.Run("ActiveCategories", func(t *testing.T) {
		cats, err := c.ActiveCategories(ctx, 5)
		require.NoError(t, err)
		require.Len(t, cats, 4)
		assert.Equal(t, "electronics", cats[0].Slug)
		for _, cat := range cats {
			assert.True(t, cat.IsActive)
		}
	})

	t.Run("CategoryBySlug", func(t *testing.T) {
		cat, err := c.CategoryBySlug(ctx, " Vehicles ")
		require.NoError(t, err)
		assert.Equal(t, int64(2), cat.ID)

		_, err = c.CategoryBySlug(ctx, "legacy")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = c.CategoryBySlug(ctx, "")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ActiveConditions", func(t *testing.T) {
		conds, err := c.ActiveConditions(ctx)
		require.NoError(t, err)
		require.Len(t, conds, 3)
		assert.Equal(t, "New", conds[0].Name)
		assert.Equal(t, "Used", conds[2].Name)
	})

	t.Run("ActiveUsers", func(t *testing.T) {
		users, err := c.ActiveUsers(ctx, 3)
		require.NoError(t, err)
		require.Len(t, users, 3)
		for _, u := range users {
			assert.Equal(t, storage.UserStatusActive, u.Status)
		}
		assert.Equal(t, int64(4), users[2].ID)
	})

	t.Run("UserByID", func(t *testing.T) {
		u, err := c.UserByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "amina", u.Username)

		_, err = c.UserByID(ctx, 404)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestMemoryCatalogIsolation(t *testing.T) {
	ds := storage.SampleData()
	c := NewSeededCatalog(ds)
	ds.Users[0].Username = "mutated"

	u, err := c.UserByID(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, "amina", u.Username)

	u.Username = "changed"
	again, err := c.UserByID(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, "amina", again.Username)
}

func TestMemoryCatalogSeed(t *testing.T) {
	c := NewCatalog()
	locs, err := c.ActiveLocations(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, locs)

	require.NoError(t, c.Seed(t.Context(), storage.SampleData()))
	locs, err = c.ActiveLocations(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, locs, 4)

	assert.Error(t, c.Seed(t.Context(), nil))
}

func TestMemoryCatalogCancelledContext(t *testing.T) {
	c := NewSeededCatalog(storage.SampleData())
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := c.ActiveLocations(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.Ping(ctx), context.Canceled)
}
