// Package postgres implements storage.Catalog backed by PostgreSQL.
//
// All queries are read-only and run through a pgx connection pool. Each
// query is bounded by the store's query timeout on top of the caller's
// context. Nullable text columns are coalesced to empty strings so the
// storage models stay free of pointer fields. Slug lookups normalise the
// stored column the same way util.NormalizeSlug normalises the argument
// (NFC, trimmed, lower-cased), which needs PostgreSQL 13 or later.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmcleod/marketplace/internal/util"
	"github.com/jmcleod/marketplace/storage"
)

//go:embed schema.sql
var schemaSQL string

// DefaultQueryTimeout bounds a single catalog query.
const DefaultQueryTimeout = 5 * time.Second

// EnsureSchema creates the catalog tables and indexes if they do not exist.
// It is safe to call on every startup (all statements use IF NOT EXISTS).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Store implements storage.Catalog backed by PostgreSQL.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

var _ storage.Catalog = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithQueryTimeout overrides DefaultQueryTimeout. Non-positive values
// disable the per-query bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.queryTimeout = d
	}
}

// NewCatalog returns a Catalog backed by the given pgx connection pool.
func NewCatalog(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, queryTimeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCatalogFromDSN creates a connection pool from a DSN string, optionally
// ensures the schema exists, and returns a new Catalog.
func NewCatalogFromDSN(ctx context.Context, dsn string, maxConns int32, ensureSchema bool, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if ensureSchema {
		if err := EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return NewCatalog(pool, opts...), nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks that a connection can be acquired and used.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// limitArg maps "no limit" onto SQL NULL, which LIMIT treats as unbounded.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

// ---------------------------------------------------------------------------
// Catalog queries
// ---------------------------------------------------------------------------

func (s *Store) ActiveLocations(ctx context.Context, limit int) ([]storage.Location, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, type, latitude, longitude, is_active
		 FROM locations
		 WHERE is_active = TRUE
		 ORDER BY name ASC, id ASC
		 LIMIT $1`, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.Location, error) {
		var l storage.Location
		err := row.Scan(&l.ID, &l.Name, &l.Type, &l.Latitude, &l.Longitude, &l.IsActive)
		return l, err
	})
}

const categoryColumns = `id, name, slug, COALESCE(description, ''), COALESCE(icon, ''), sort_order, is_active`

func scanCategory(row pgx.CollectableRow) (storage.Category, error) {
	var c storage.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.SortOrder, &c.IsActive)
	return c, err
}

func (s *Store) ActiveCategories(ctx context.Context, limit int) ([]storage.Category, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx,
		`SELECT `+categoryColumns+`
		 FROM categories
		 WHERE is_active = TRUE
		 ORDER BY sort_order ASC, id ASC
		 LIMIT $1`, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*storage.Category, error) {
	want := util.NormalizeSlug(slug)
	if want == "" {
		return nil, fmt.Errorf("category %q: %w", slug, storage.ErrNotFound)
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx,
		`SELECT `+categoryColumns+`
		 FROM categories
		 WHERE is_active = TRUE AND lower(btrim(normalize(slug, NFC))) = $1
		 LIMIT 1`, want)
	if err != nil {
		return nil, fmt.Errorf("querying category: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", slug, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ActiveConditions(ctx context.Context) ([]storage.Condition, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), sort_order, is_active
		 FROM conditions
		 WHERE is_active = TRUE
		 ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying conditions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.Condition, error) {
		var c storage.Condition
		err := row.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.IsActive)
		return c, err
	})
}

const userColumns = `id, username, email,
	COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(phone, ''),
	COALESCE(location, ''), COALESCE(bio, ''), COALESCE(avatar_url, ''),
	email_verified, status, created_at`

func scanUser(row pgx.CollectableRow) (storage.User, error) {
	var u storage.User
	err := row.Scan(&u.ID, &u.Username, &u.Email,
		&u.FirstName, &u.LastName, &u.Phone,
		&u.Location, &u.Bio, &u.AvatarURL,
		&u.EmailVerified, &u.Status, &u.CreatedAt)
	return u, err
}

func (s *Store) ActiveUsers(ctx context.Context, limit int) ([]storage.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE status = $1
		 ORDER BY id ASC
		 LIMIT $2`, storage.UserStatusActive, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*storage.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
