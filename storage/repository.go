// Package storage provides the read-only data access layer for marketplace
// catalog entities: locations, categories, item conditions and users.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a single-entity lookup has no match.
var ErrNotFound = errors.New("not found")

// Catalog defines the queries downstream handlers run against the store.
// A limit <= 0 means no limit.
type Catalog interface {
	ActiveLocations(ctx context.Context, limit int) ([]Location, error)
	ActiveCategories(ctx context.Context, limit int) ([]Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*Category, error)
	ActiveConditions(ctx context.Context) ([]Condition, error)
	ActiveUsers(ctx context.Context, limit int) ([]User, error)
	UserByID(ctx context.Context, id int64) (*User, error)
	Ping(ctx context.Context) error
	Close() error
}

// Seeder is implemented by backends that can be populated in-process.
type Seeder interface {
	Seed(ctx context.Context, ds *Dataset) error
}

// Dataset is a full set of catalog rows, used to seed embedded backends.
type Dataset struct {
	Locations  []Location  `json:"locations"`
	Categories []Category  `json:"categories"`
	Conditions []Condition `json:"conditions"`
	Users      []User      `json:"users"`
}
