// Package query implements the property search pipeline: filtering,
// ordering, page-window computation and statistics over a snapshot of
// listings. Everything here is pure; callers fetch the snapshot first.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/arsarazi/realty/internal/property"
)

// Paging limits.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// SortKey selects the ordering of a result set.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price_low"
	SortPriceHigh SortKey = "price_high"
	SortAreaLarge SortKey = "area_large"
	SortAreaSmall SortKey = "area_small"
)

// SortKeys is the closed set of orderings.
var SortKeys = []SortKey{SortNewest, SortPriceLow, SortPriceHigh, SortAreaLarge, SortAreaSmall}

// ParseSortKey accepts both underscore and dash forms.
func ParseSortKey(s string) (SortKey, bool) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, k := range SortKeys {
		if string(k) == n {
			return k, true
		}
	}
	return "", false
}

// Spec describes one search. The zero value lists the first page of
// listed properties, newest first.
type Spec struct {
	Text       string
	Type       property.Type
	MinArea    *float64
	MaxPrice   *float64
	Investment property.Investment
	Location   string
	Status     property.Status // empty means listed

	Sort SortKey
	// FeaturedFirst ranks featured listings ahead of the rest; Sort then
	// orders records within each group.
	FeaturedFirst bool

	Page     int
	PageSize int
}

// withDefaults returns a copy with every unset field resolved.
func (s Spec) withDefaults() Spec {
	if s.Status == "" {
		s.Status = property.StatusListed
	}
	if s.Sort == "" {
		s.Sort = SortNewest
	}
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	if s.PageSize > MaxPageSize {
		s.PageSize = MaxPageSize
	}
	return s
}

// Unfiltered reports whether s narrows nothing beyond status,
// ordering and paging; this is the "all listings" view.
func (s Spec) Unfiltered() bool {
	return strings.TrimSpace(s.Text) == "" &&
		s.Type == "" &&
		s.MinArea == nil &&
		s.MaxPrice == nil &&
		s.Investment == "" &&
		strings.TrimSpace(s.Location) == ""
}

// Values encodes s as query parameters understood by Parse.
// Defaults are omitted.
func (s Spec) Values() url.Values {
	v := url.Values{}
	if t := strings.TrimSpace(s.Text); t != "" {
		v.Set("search", t)
	}
	if s.Type != "" {
		v.Set("type", string(s.Type))
	}
	if s.MinArea != nil {
		v.Set("min_area", strconv.FormatFloat(*s.MinArea, 'f', -1, 64))
	}
	if s.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*s.MaxPrice, 'f', -1, 64))
	}
	if s.Investment != "" {
		v.Set("investment_potential", string(s.Investment))
	}
	if l := strings.TrimSpace(s.Location); l != "" {
		v.Set("location", l)
	}
	if s.Status != "" && s.Status != property.StatusListed {
		v.Set("status", string(s.Status))
	}
	if s.Sort != "" && s.Sort != SortNewest {
		v.Set("sort", string(s.Sort))
	}
	if s.FeaturedFirst {
		v.Set("featured_first", "true")
	}
	if s.Page > 1 {
		v.Set("page", strconv.Itoa(s.Page))
	}
	if s.PageSize > 0 && s.PageSize != DefaultPageSize {
		v.Set("limit", strconv.Itoa(s.PageSize))
	}
	return v
}

// Key is a canonical string for s after defaults are applied.
// Two specs that select the same page of the same results share a key.
func (s Spec) Key() string {
	d := s.withDefaults()
	v := d.Values()
	v.Set("status", string(d.Status))
	v.Set("sort", string(d.Sort))
	v.Set("page", strconv.Itoa(d.Page))
	v.Set("limit", strconv.Itoa(d.PageSize))
	return v.Encode()
}
