package query

import (
	"strings"

	"github.com/arsarazi/realty/internal/property"
)

// UnknownRegion groups records whose location is empty.
const UnknownRegion = "unknown"

// Stats summarizes a set of listings.
type Stats struct {
	Count        int            `json:"count"`
	TotalArea    float64        `json:"total_area"`
	TotalValue   float64        `json:"total_value"`
	AveragePrice float64        `json:"average_price"`
	ByType       map[string]int `json:"by_type"`
	ByRegion     map[string]int `json:"by_region"`
	ByStatus     map[string]int `json:"by_status"`
}

// Summarize reduces props to aggregate figures.
func Summarize(props []property.Property) Stats {
	st := Stats{
		ByType:   map[string]int{},
		ByRegion: map[string]int{},
		ByStatus: map[string]int{},
	}

	for i := range props {
		p := &props[i]
		st.Count++
		st.TotalArea += p.Area
		st.TotalValue += p.Price
		st.ByType[string(p.Type)]++
		st.ByRegion[Region(p.Location)]++
		st.ByStatus[string(p.Status)]++
	}

	if st.Count > 0 {
		st.AveragePrice = st.TotalValue / float64(st.Count)
	}
	return st
}

// SummarizeSpec computes statistics over every record matching s.
// Paging fields of s are ignored.
func SummarizeSpec(snapshot []property.Property, s Spec) Stats {
	return Summarize(Filter(snapshot, s))
}

// Region is the first token of a free-text location, e.g. the province in
// "Izmir, Urla, Zeytinalani".
func Region(location string) string {
	fields := strings.FieldsFunc(location, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '/'
	})
	if len(fields) == 0 {
		return UnknownRegion
	}
	return fields[0]
}
