package storage

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jmcleod/marketplace/internal/util"
)

// The helpers below implement the catalog queries over in-process slices
// for the embedded backends. They return fresh slices and never alias the
// input.

func capLimit[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// SelectActiveLocations returns active locations ordered by name.
func SelectActiveLocations(all []Location, limit int) []Location {
	out := make([]Location, 0, len(all))
	for _, l := range all {
		if l.IsActive {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b Location) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return capLimit(out, limit)
}

// SelectActiveCategories returns active categories ordered by sort order.
func SelectActiveCategories(all []Category, limit int) []Category {
	out := make([]Category, 0, len(all))
	for _, c := range all {
		if c.IsActive {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Category) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), cmp.Compare(a.ID, b.ID))
	})
	return capLimit(out, limit)
}

// FindCategoryBySlug matches slugs after normalisation. Inactive categories
// are not returned.
func FindCategoryBySlug(all []Category, slug string) (*Category, error) {
	want := util.NormalizeSlug(slug)
	if want == "" {
		return nil, ErrNotFound
	}
	for _, c := range all {
		if c.IsActive && util.NormalizeSlug(c.Slug) == want {
			found := c
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// SelectActiveConditions returns active conditions ordered by sort order.
func SelectActiveConditions(all []Condition) []Condition {
	out := make([]Condition, 0, len(all))
	for _, c := range all {
		if c.IsActive {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b Condition) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// SelectActiveUsers returns users with status "active" ordered by id.
func SelectActiveUsers(all []User, limit int) []User {
	out := make([]User, 0, len(all))
	for _, u := range all {
		if u.Status == UserStatusActive {
			out = append(out, u)
		}
	}
	slices.SortStableFunc(out, func(a, b User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return capLimit(out, limit)
}
