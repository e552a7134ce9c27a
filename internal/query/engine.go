package query

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/arsarazi/realty/internal/property"
)

// Result is one page of a search.
type Result struct {
	Items      []property.Property `json:"items"`
	TotalItems int                 `json:"total_items"`
	TotalPages int                 `json:"total_pages"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	HasNext    bool                `json:"has_next"`
	HasPrev    bool                `json:"has_prev"`
}

// predicate reports whether a record passes one constraint.
type predicate func(p *property.Property) bool

// matcher holds the compiled constraints of a spec. A cases.Caser is not
// safe for concurrent use, so each matcher owns one.
type matcher struct {
	fold  cases.Caser
	preds []predicate
}

func compile(s Spec) *matcher {
	m := &matcher{fold: cases.Fold()}

	status := s.Status
	m.preds = append(m.preds, func(p *property.Property) bool { return p.Status == status })

	if text := strings.TrimSpace(s.Text); text != "" {
		needle := m.fold.String(text)
		m.preds = append(m.preds, func(p *property.Property) bool {
			if m.contains(p.Title, needle) || m.contains(p.Location, needle) || m.contains(p.Description, needle) {
				return true
			}
			for _, f := range p.Features {
				if m.contains(f, needle) {
					return true
				}
			}
			return false
		})
	}
	if s.Type != "" {
		typ := s.Type
		m.preds = append(m.preds, func(p *property.Property) bool { return p.Type == typ })
	}
	if s.MinArea != nil {
		floor := *s.MinArea
		m.preds = append(m.preds, func(p *property.Property) bool { return p.Area >= floor })
	}
	if s.MaxPrice != nil {
		ceiling := *s.MaxPrice
		m.preds = append(m.preds, func(p *property.Property) bool { return p.Price <= ceiling })
	}
	if s.Investment != "" {
		inv := s.Investment
		m.preds = append(m.preds, func(p *property.Property) bool { return p.InvestmentPotential == inv })
	}
	if loc := strings.TrimSpace(s.Location); loc != "" {
		needle := m.fold.String(loc)
		m.preds = append(m.preds, func(p *property.Property) bool { return m.contains(p.Location, needle) })
	}

	return m
}

func (m *matcher) contains(haystack, needle string) bool {
	return strings.Contains(m.fold.String(haystack), needle)
}

func (m *matcher) match(p *property.Property) bool {
	for _, pred := range m.preds {
		if !pred(p) {
			return false
		}
	}
	return true
}

// Filter returns the records of snapshot that satisfy the status, text and
// attribute constraints of s, in snapshot order. Paging and sorting are
// ignored. The returned records are copies.
func Filter(snapshot []property.Property, s Spec) []property.Property {
	s = s.withDefaults()
	m := compile(s)

	out := make([]property.Property, 0, len(snapshot))
	for i := range snapshot {
		if m.match(&snapshot[i]) {
			out = append(out, snapshot[i].Clone())
		}
	}
	return out
}

// Run evaluates s against snapshot. snapshot is treated as read-only and is
// expected in insertion order; that order breaks ties between equal keys.
func Run(snapshot []property.Property, s Spec) Result {
	s = s.withDefaults()

	matched := Filter(snapshot, s)
	Sort(matched, s.Sort, s.FeaturedFirst)

	total := len(matched)
	pages := (total + s.PageSize - 1) / s.PageSize
	if pages < 1 {
		pages = 1
	}

	items := []property.Property{}
	if start := (s.Page - 1) * s.PageSize; start < total {
		end := start + s.PageSize
		if end > total {
			end = total
		}
		items = matched[start:end:end]
	}

	return Result{
		Items:      items,
		TotalItems: total,
		TotalPages: pages,
		Page:       s.Page,
		PageSize:   s.PageSize,
		HasNext:    s.Page < pages,
		HasPrev:    s.Page > 1,
	}
}

// Sort orders props in place by key. The sort is stable, so records with
// equal keys keep their relative order. With featuredFirst, featured
// records precede the rest and key orders each group.
func Sort(props []property.Property, key SortKey, featuredFirst bool) {
	less := lessFunc(key)
	sort.SliceStable(props, func(i, j int) bool {
		a, b := &props[i], &props[j]
		if featuredFirst && a.IsFeatured != b.IsFeatured {
			return a.IsFeatured
		}
		return less(a, b)
	})
}

func lessFunc(key SortKey) func(a, b *property.Property) bool {
	switch key {
	case SortPriceLow:
		return func(a, b *property.Property) bool { return a.Price < b.Price }
	case SortPriceHigh:
		return func(a, b *property.Property) bool { return a.Price > b.Price }
	case SortAreaLarge:
		return func(a, b *property.Property) bool { return a.Area > b.Area }
	case SortAreaSmall:
		return func(a, b *property.Property) bool { return a.Area < b.Area }
	default:
		return func(a, b *property.Property) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
}
