// Package memory provides a thread-safe in-memory implementation of storage.Catalog.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jmcleod/marketplace/storage"
)

// Catalog is a thread-safe in-memory implementation of storage.Catalog.
// Suitable for testing, demos, and single-process use cases.
type Catalog struct {
	mu         sync.RWMutex
	locations  []storage.Location
	categories []storage.Category
	conditions []storage.Condition
	users      []storage.User
}

var (
	_ storage.Catalog = (*Catalog)(nil)
	_ storage.Seeder  = (*Catalog)(nil)
)

// NewCatalog creates a new empty in-memory Catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// NewSeededCatalog creates a Catalog holding a copy of ds.
func NewSeededCatalog(ds *storage.Dataset) *Catalog {
	c := NewCatalog()
	c.replace(ds)
	return c
}

// Seed replaces the catalog contents with a copy of ds.
func (c *Catalog) Seed(ctx context.Context, ds *storage.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ds == nil {
		return fmt.Errorf("seeding memory catalog: nil dataset")
	}
	c.replace(ds)
	return nil
}

func (c *Catalog) replace(ds *storage.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ds == nil {
		c.locations, c.categories, c.conditions, c.users = nil, nil, nil, nil
		return
	}
	c.locations = slices.Clone(ds.Locations)
	c.categories = slices.Clone(ds.Categories)
	c.conditions = slices.Clone(ds.Conditions)
	c.users = slices.Clone(ds.Users)
}

func (c *Catalog) ActiveLocations(ctx context.Context, limit int) ([]storage.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return storage.SelectActiveLocations(c.locations, limit), nil
}

func (c *Catalog) ActiveCategories(ctx context.Context, limit int) ([]storage.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return storage.SelectActiveCategories(c.categories, limit), nil
}

func (c *Catalog) CategoryBySlug(ctx context.Context, slug string) (*storage.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, err := storage.FindCategoryBySlug(c.categories, slug)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", slug, err)
	}
	return cat, nil
}

func (c *Catalog) ActiveConditions(ctx context.Context) ([]storage.Condition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return storage.SelectActiveConditions(c.conditions), nil
}

func (c *Catalog) ActiveUsers(ctx context.Context, limit int) ([]storage.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return storage.SelectActiveUsers(c.users, limit), nil
}

func (c *Catalog) UserByID(ctx context.Context, id int64) (*storage.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
}

// Ping always succeeds unless ctx is done.
func (c *Catalog) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (c *Catalog) Close() error {
	return nil
}
