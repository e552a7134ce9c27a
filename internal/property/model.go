// Package property provides the property domain model shared by the stores,
// the query engine and the HTTP API.
package property

import (
	"encoding/json"
	"math"
	"time"
)

// Property represents a brokerage listing.
type Property struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	Slug                string     `json:"slug"`
	Location            string     `json:"location"`
	Address             string     `json:"address,omitempty"`
	Description         string     `json:"description,omitempty"`
	Type                Type       `json:"type"`
	Status              Status     `json:"status"`
	Area                float64    `json:"area"`
	Price               float64    `json:"price"`
	InvestmentPotential Investment `json:"investment_potential,omitempty"`
	Features            []string   `json:"features"`
	Images              []string   `json:"images"`
	Zoning              string     `json:"zoning,omitempty"`
	ContactPerson       string     `json:"contact_person,omitempty"`
	ContactPhone        string     `json:"contact_phone,omitempty"`
	IsFeatured          bool       `json:"is_featured"`
	ViewCount           int64      `json:"view_count"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// PricePerArea returns price divided by area, or 0 when area is not positive.
// It is always computed from the current fields and never stored.
func (p Property) PricePerArea() float64 {
	if p.Area <= 0 {
		return 0
	}
	return p.Price / p.Area
}

// alias drops the methods of Property so MarshalJSON does not recurse.
type alias Property

// MarshalJSON adds the derived price_per_area field.
func (p Property) MarshalJSON() ([]byte, error) {
	out := struct {
		alias
		PricePerArea float64 `json:"price_per_area"`
	}{
		alias:        alias(p.normalized()),
		PricePerArea: math.Round(p.PricePerArea()*100) / 100,
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a property, ignoring any supplied price_per_area.
func (p *Property) UnmarshalJSON(data []byte) error {
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Property(a)
	return nil
}

// normalized returns a copy with nil slices replaced by empty ones.
func (p Property) normalized() Property {
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}

// ApplyDefaults fills in the values a freshly created listing gets when the
// caller leaves them empty.
func (p *Property) ApplyDefaults() {
	if p.Status == "" {
		p.Status = StatusListed
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
}

// Clone returns a deep copy, so callers can hand out records without
// sharing the backing arrays of Features and Images.
func (p Property) Clone() Property {
	c := p
	if p.Features != nil {
		c.Features = append([]string(nil), p.Features...)
	}
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	return c
}
