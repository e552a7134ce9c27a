package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arsarazi/realty/internal/property"
)

func TestSummarize(t *testing.T) {
	props := []property.Property{
		{Type: property.TypeVilla, Status: property.StatusListed, Location: "Mugla, Bodrum", Area: 300, Price: 900000},
		{Type: property.TypeVilla, Status: property.StatusSold, Location: "Mugla Fethiye", Area: 200, Price: 600000},
		{Type: property.TypeAgricultural, Status: property.StatusListed, Location: "Izmir/Urla", Area: 5000, Price: 300000},
		{Type: property.TypeResidential, Status: property.StatusListed, Location: "", Area: 500, Price: 200000},
	}

	st := Summarize(props)

	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 6000.0, st.TotalArea)
	assert.Equal(t, 2000000.0, st.TotalValue)
	assert.Equal(t, 500000.0, st.AveragePrice)
	assert.Equal(t, map[string]int{"villa": 2, "agricultural": 1, "residential": 1}, st.ByType)
	assert.Equal(t, map[string]int{"Mugla": 2, "Izmir": 1, UnknownRegion: 1}, st.ByRegion)
	assert.Equal(t, map[string]int{"listed": 3, "sold": 1}, st.ByStatus)
}

func TestSummarizeEmpty(t *testing.T) {
	st := Summarize(nil)

	assert.Equal(t, 0, st.Count)
	assert.Equal(t, 0.0, st.AveragePrice)
	assert.NotNil(t, st.ByType)
	assert.NotNil(t, st.ByRegion)
	assert.NotNil(t, st.ByStatus)
}

func TestSummarizeSpecIgnoresPaging(t *testing.T) {
	snapshot := mixed()

	st := SummarizeSpec(snapshot, Spec{Type: property.TypeResidential, Page: 5, PageSize: 1})

	assert.Equal(t, 14, st.Count)
	assert.Equal(t, map[string]int{"listed": 14}, st.ByStatus)
}

func TestRegion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Izmir, Urla, Zeytinalani", "Izmir"},
		{"  Antalya Kas", "Antalya"},
		{"Aydin/Didim", "Aydin"},
		{"", UnknownRegion},
		{" , / ", UnknownRegion},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Region(tt.in))
		})
	}
}
