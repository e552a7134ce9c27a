// Package storetest holds the behaviour every store.Properties backend must
// share. Backend tests call Run with a constructor.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/store"
)

// Sample returns a valid listing. Tests adjust fields as needed.
func Sample(title string) *property.Property {
	return &property.Property{
		Title:               title,
		Location:            "Izmir, Urla",
		Address:             "Zeytinalani Mah. 12",
		Description:         "Olive grove with sea view",
		Type:                property.TypeAgricultural,
		Area:                2000,
		Price:               450000,
		InvestmentPotential: property.InvestmentHigh,
		Features:            []string{"sea view", "road access"},
		Images:              []string{"/uploads/a.jpg"},
		Zoning:              "agricultural",
		ContactPerson:       "Mehmet",
		ContactPhone:        "+90 555 000 00 00",
	}
}

// Run exercises a backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Properties) {
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		s := newStore(t)

		saved, err := s.Insert(ctx, Sample("Urla olive grove"))
		require.NoError(t, err)
		assert.NotZero(t, saved.ID)
		assert.Equal(t, "urla-olive-grove", saved.Slug)
		assert.Equal(t, property.StatusListed, saved.Status)
		assert.False(t, saved.CreatedAt.IsZero())

		got, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "Urla olive grove", got.Title)
		assert.Equal(t, []string{"sea view", "road access"}, got.Features)
		assert.Equal(t, []string{"/uploads/a.jpg"}, got.Images)
		assert.Equal(t, property.InvestmentHigh, got.InvestmentPotential)
		assert.Equal(t, "Mehmet", got.ContactPerson)
		assert.Equal(t, 225.0, got.PricePerArea())
		assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("slugs are unique", func(t *testing.T) {
		s := newStore(t)

		var slugs []string
		for i := 0; i < 3; i++ {
			p, err := s.Insert(ctx, Sample("Urla olive grove"))
			require.NoError(t, err)
			slugs = append(slugs, p.Slug)
		}
		assert.Equal(t, []string{"urla-olive-grove", "urla-olive-grove-2", "urla-olive-grove-3"}, slugs)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(ctx, 9999)
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		s := newStore(t)

		empty, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		var want []int64
		for _, title := range []string{"First listing", "Second listing", "Third listing"} {
			p, err := s.Insert(ctx, Sample(title))
			require.NoError(t, err)
			want = append(want, p.ID)
		}

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, p := range all {
			assert.Equal(t, want[i], p.ID)
			assert.NotNil(t, p.Features)
		}
	})

	t.Run("insert keeps supplied timestamps and counters", func(t *testing.T) {
		s := newStore(t)

		in := Sample("Imported listing")
		in.CreatedAt = time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
		in.ViewCount = 17
		in.IsFeatured = true
		in.Status = property.StatusSold

		saved, err := s.Insert(ctx, in)
		require.NoError(t, err)

		got, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.True(t, got.CreatedAt.Equal(in.CreatedAt), "created_at = %v", got.CreatedAt)
		assert.Equal(t, int64(17), got.ViewCount)
		assert.True(t, got.IsFeatured)
		assert.Equal(t, property.StatusSold, got.Status)
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)

		saved, err := s.Insert(ctx, Sample("Before update"))
		require.NoError(t, err)
		require.NoError(t, s.IncrementViews(ctx, saved.ID))

		change := Sample("After update")
		change.Price = 900000
		change.Features = []string{"pool"}
		change.Status = property.StatusReserved

		updated, err := s.Update(ctx, saved.ID, change)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, updated.ID)
		assert.Equal(t, "before-update", updated.Slug, "update keeps the slug")

		got, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "After update", got.Title)
		assert.Equal(t, 900000.0, got.Price)
		assert.Equal(t, 450.0, got.PricePerArea())
		assert.Equal(t, []string{"pool"}, got.Features)
		assert.Equal(t, property.StatusReserved, got.Status)
		assert.Equal(t, int64(1), got.ViewCount, "update keeps the view counter")
		assert.True(t, saved.CreatedAt.Equal(got.CreatedAt), "update keeps created_at")
		assert.False(t, got.UpdatedAt.Before(saved.UpdatedAt))
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Update(ctx, 9999, Sample("Nothing here"))
		assert.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)

		a, err := s.Insert(ctx, Sample("Keep this one"))
		require.NoError(t, err)
		b, err := s.Insert(ctx, Sample("Delete this one"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, b.ID))

		_, err = s.Get(ctx, b.ID)
		assert.True(t, errors.Is(err, store.ErrNotFound))

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, a.ID, all[0].ID)

		err = s.Delete(ctx, b.ID)
		assert.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("ids are not reused", func(t *testing.T) {
		s := newStore(t)

		a, err := s.Insert(ctx, Sample("Listing one"))
		require.NoError(t, err)
		b, err := s.Insert(ctx, Sample("Listing two"))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, b.ID))

		c, err := s.Insert(ctx, Sample("Listing three"))
		require.NoError(t, err)
		assert.Greater(t, c.ID, b.ID)
		assert.Greater(t, b.ID, a.ID)
	})

	t.Run("increment views", func(t *testing.T) {
		s := newStore(t)

		p, err := s.Insert(ctx, Sample("Popular listing"))
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.IncrementViews(ctx, p.ID))
		}

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ViewCount)

		assert.True(t, errors.Is(s.IncrementViews(ctx, 9999), store.ErrNotFound))
	})

	t.Run("empty slices survive", func(t *testing.T) {
		s := newStore(t)

		in := Sample("No extras listing")
		in.Features = nil
		in.Images = nil

		saved, err := s.Insert(ctx, in)
		require.NoError(t, err)

		got, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.Features)
		assert.Empty(t, got.Features)
		assert.NotNil(t, got.Images)
	})
}
