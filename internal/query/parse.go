package query

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/arsarazi/realty/internal/property"
)

// Parse builds a Spec from request parameters. Every rejected parameter is
// reported in the returned *property.ValidationError; nothing is coerced.
func Parse(v url.Values) (Spec, error) {
	var s Spec
	var verr property.ValidationError

	if text := v.Get("search"); text != "" {
		if utf8.RuneCountInString(text) > 255 {
			verr.Add("search", "must be at most 255 characters")
		}
		s.Text = text
	}

	if raw := v.Get("type"); raw != "" {
		t, ok := property.ParseType(raw)
		if !ok {
			verr.Add("type", "unknown type %q", raw)
		}
		s.Type = t
	}

	if raw := v.Get("min_area"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			verr.Add("min_area", "must be a positive number")
		} else {
			s.MinArea = &f
		}
	}

	if raw := v.Get("max_price"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			verr.Add("max_price", "must be a positive number")
		} else {
			s.MaxPrice = &f
		}
	}

	if raw := v.Get("investment_potential"); raw != "" {
		inv, ok := property.ParseInvestment(raw)
		if !ok {
			verr.Add("investment_potential", "unknown rating %q", raw)
		}
		s.Investment = inv
	}

	if loc := v.Get("location"); loc != "" {
		if utf8.RuneCountInString(loc) > 255 {
			verr.Add("location", "must be at most 255 characters")
		}
		s.Location = loc
	}

	if raw := v.Get("status"); raw != "" {
		st, ok := property.ParseStatus(raw)
		if !ok {
			verr.Add("status", "unknown status %q", raw)
		}
		s.Status = st
	}

	if raw := v.Get("sort"); raw != "" {
		k, ok := ParseSortKey(raw)
		if !ok {
			verr.Add("sort", "unknown sort %q", raw)
		}
		s.Sort = k
	}

	if raw := v.Get("featured_first"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("featured_first", "must be true or false")
		}
		s.FeaturedFirst = b
	}

	if raw := v.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr.Add("page", "must be a positive integer")
		}
		s.Page = n
	}

	limit := v.Get("limit")
	if limit == "" {
		limit = v.Get("page_size")
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > MaxPageSize {
			verr.Add("limit", "must be between 1 and %d", MaxPageSize)
		}
		s.PageSize = n
	}

	if err := verr.Err(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// HasFeaturedFirst reports whether the caller chose the featured ranking
// explicitly.
func HasFeaturedFirst(v url.Values) bool {
	return strings.TrimSpace(v.Get("featured_first")) != ""
}
