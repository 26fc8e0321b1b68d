// Package bbolt provides a BBolt-backed catalog store for single-node
// deployments and local development.
package bbolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/marketplace/storage"
)

var (
	bucketLocations  = []byte("locations")
	bucketCategories = []byte("categories")
	bucketConditions = []byte("conditions")
	bucketUsers      = []byte("users")
)

var allBuckets = [][]byte{bucketLocations, bucketCategories, bucketConditions, bucketUsers}

// Store implements storage.Catalog backed by a BBolt database. Each entity
// lives in its own bucket keyed by big-endian id, with JSON values.
type Store struct {
	db *bbolt.DB
}

var (
	_ storage.Catalog = (*Store)(nil)
	_ storage.Seeder  = (*Store)(nil)
)

// NewCatalog returns a Catalog backed by the given BBolt database, creating
// the entity buckets if needed.
func NewCatalog(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// NewCatalogFromFile opens a BBolt database at the given path and returns a new Catalog.
func NewCatalogFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	s, err := NewCatalog(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func idKey(id int64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(id))
	return k[:]
}

// Seed replaces every bucket's contents with ds in one transaction.
func (s *Store) Seed(ctx context.Context, ds *storage.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ds == nil {
		return fmt.Errorf("seeding bbolt catalog: nil dataset")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		for _, l := range ds.Locations {
			if err := putJSON(tx, bucketLocations, l.ID, l); err != nil {
				return err
			}
		}
		for _, c := range ds.Categories {
			if err := putJSON(tx, bucketCategories, c.ID, c); err != nil {
				return err
			}
		}
		for _, c := range ds.Conditions {
			if err := putJSON(tx, bucketConditions, c.ID, c); err != nil {
				return err
			}
		}
		for _, u := range ds.Users {
			if err := putJSON(tx, bucketUsers, u.ID, u); err != nil {
				return err
			}
		}
		return nil
	})
}

func putJSON(tx *bbolt.Tx, bucket []byte, id int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put(idKey(id), data)
}

// loadAll decodes every value of bucket into a []T.
func loadAll[T any](s *Store, ctx context.Context, bucket []byte) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []T
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("%s/%x: %w", bucket, k, err)
			}
			out = append(out, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ActiveLocations(ctx context.Context, limit int) ([]storage.Location, error) {
	all, err := loadAll[storage.Location](s, ctx, bucketLocations)
	if err != nil {
		return nil, err
	}
	return storage.SelectActiveLocations(all, limit), nil
}

func (s *Store) ActiveCategories(ctx context.Context, limit int) ([]storage.Category, error) {
	all, err := loadAll[storage.Category](s, ctx, bucketCategories)
	if err != nil {
		return nil, err
	}
	return storage.SelectActiveCategories(all, limit), nil
}

func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*storage.Category, error) {
	all, err := loadAll[storage.Category](s, ctx, bucketCategories)
	if err != nil {
		return nil, err
	}
	cat, err := storage.FindCategoryBySlug(all, slug)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", slug, err)
	}
	return cat, nil
}

func (s *Store) ActiveConditions(ctx context.Context) ([]storage.Condition, error) {
	all, err := loadAll[storage.Condition](s, ctx, bucketConditions)
	if err != nil {
		return nil, err
	}
	return storage.SelectActiveConditions(all), nil
}

func (s *Store) ActiveUsers(ctx context.Context, limit int) ([]storage.User, error) {
	all, err := loadAll[storage.User](s, ctx, bucketUsers)
	if err != nil {
		return nil, err
	}
	return storage.SelectActiveUsers(all, limit), nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*storage.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var u storage.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get(idKey(id))
		if data == nil {
			return fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
		}
		return json.Unmarshal(data, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Ping verifies the database is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketUsers) == nil {
			return fmt.Errorf("bucket %s missing", bucketUsers)
		}
		return nil
	})
}
