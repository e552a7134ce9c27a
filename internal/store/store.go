// Package store defines the persistence contract for listings. Backends
// live in the jsonfile and sqlstore subpackages.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arsarazi/realty/internal/property"
)

// ErrNotFound is returned (wrapped) when an id does not exist.
var ErrNotFound = errors.New("not found")

// Properties persists listings. List returns every record in insertion
// order; the query engine runs over that slice.
type Properties interface {
	List(ctx context.Context) ([]property.Property, error)
	Get(ctx context.Context, id int64) (*property.Property, error)
	Insert(ctx context.Context, p *property.Property) (*property.Property, error)
	Update(ctx context.Context, id int64, p *property.Property) (*property.Property, error)
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
}

// Now is the clock used for record timestamps. Timestamps are kept at
// microsecond precision so every backend round-trips them unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// PrepareInsert fills the fields a backend owns on insert. Timestamps and
// counters already set by the caller are kept, so imports round-trip.
func PrepareInsert(p *property.Property, now time.Time) {
	p.ApplyDefaults()
	if p.Slug == "" {
		p.Slug = property.Slugify(p.Title)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
}

// ApplyUpdate returns existing with the editable fields of in. The id,
// slug, creation time and view counter of existing are preserved.
func ApplyUpdate(existing property.Property, in *property.Property, now time.Time) property.Property {
	out := in.Clone()
	out.ApplyDefaults()
	out.ID = existing.ID
	out.CreatedAt = existing.CreatedAt
	out.ViewCount = existing.ViewCount
	out.UpdatedAt = now
	out.Slug = existing.Slug
	return out
}

// UniqueSlug returns base, or the first of base-2, base-3, ... that taken
// reports as free.
func UniqueSlug(base string, taken func(slug string) bool) string {
	if base == "" {
		base = "listing"
	}
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		if s := fmt.Sprintf("%s-%d", base, n); !taken(s) {
			return s
		}
	}
}
