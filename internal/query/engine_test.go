package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsarazi/realty/internal/property"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	typ      property.Type
	status   property.Status
	price    float64
	area     float64
	age      int // days before epoch
	featured bool
}

func build(fs ...fixture) []property.Property {
	out := make([]property.Property, len(fs))
	for i, f := range fs {
		out[i] = property.Property{
			ID:         int64(i + 1),
			Title:      fmt.Sprintf("Listing %d", i+1),
			Location:   "Izmir Urla",
			Type:       f.typ,
			Status:     f.status,
			Price:      f.price,
			Area:       f.area,
			IsFeatured: f.featured,
			CreatedAt:  epoch.AddDate(0, 0, -f.age),
		}
	}
	return out
}

func ids(props []property.Property) []int64 {
	out := make([]int64, len(props))
	for i, p := range props {
		out[i] = p.ID
	}
	return out
}

func ptr(f float64) *float64 { return &f }

// mixed returns 20 records: 14 listed residential, 6 in other states.
func mixed() []property.Property {
	var fs []fixture
	for i := 0; i < 14; i++ {
		fs = append(fs, fixture{typ: property.TypeResidential, status: property.StatusListed, price: float64(100000 + i*10000), area: float64(300 + i*25), age: i})
	}
	others := []property.Status{property.StatusSold, property.StatusReserved, property.StatusInactive}
	for i := 0; i < 6; i++ {
		fs = append(fs, fixture{typ: property.TypeResidential, status: others[i%3], price: 50000, area: 100, age: 30 + i})
	}
	return build(fs...)
}

func TestRunBoundaryScenario(t *testing.T) {
	res := Run(mixed(), Spec{Type: property.TypeResidential, Page: 2, PageSize: 10})

	assert.Equal(t, 14, res.TotalItems)
	assert.Equal(t, 2, res.TotalPages)
	assert.Len(t, res.Items, 4)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 10, res.PageSize)
}

func TestRunDefaultsToListed(t *testing.T) {
	res := Run(mixed(), Spec{PageSize: 100})

	require.Equal(t, 14, res.TotalItems)
	for _, p := range res.Items {
		assert.Equal(t, property.StatusListed, p.Status)
	}
}

func TestRunExplicitStatus(t *testing.T) {
	res := Run(mixed(), Spec{Status: property.StatusSold})

	assert.Equal(t, 2, res.TotalItems)
	for _, p := range res.Items {
		assert.Equal(t, property.StatusSold, p.Status)
	}
}

func TestRunFilterConjunction(t *testing.T) {
	snapshot := build(
		fixture{typ: property.TypeVilla, status: property.StatusListed, price: 400000, area: 300},
		fixture{typ: property.TypeVilla, status: property.StatusListed, price: 600000, area: 300},
		fixture{typ: property.TypeResidential, status: property.StatusListed, price: 300000, area: 300},
		fixture{typ: property.TypeVilla, status: property.StatusListed, price: 500000, area: 300},
		fixture{typ: property.TypeVilla, status: property.StatusSold, price: 100000, area: 300},
	)

	res := Run(snapshot, Spec{Type: property.TypeVilla, MaxPrice: ptr(500000)})

	assert.ElementsMatch(t, []int64{1, 4}, ids(res.Items))
	for _, p := range res.Items {
		assert.Equal(t, property.TypeVilla, p.Type)
		assert.LessOrEqual(t, p.Price, 500000.0)
	}
}

func TestRunAttributeFilters(t *testing.T) {
	snapshot := build(
		fixture{typ: property.TypeCommercial, status: property.StatusListed, price: 1, area: 99},
		fixture{typ: property.TypeCommercial, status: property.StatusListed, price: 1, area: 100},
		fixture{typ: property.TypeCommercial, status: property.StatusListed, price: 1, area: 250},
	)
	snapshot[1].InvestmentPotential = property.InvestmentHigh
	snapshot[2].InvestmentPotential = property.InvestmentHigh
	snapshot[2].Location = "Mugla Bodrum"

	res := Run(snapshot, Spec{MinArea: ptr(100)})
	assert.ElementsMatch(t, []int64{2, 3}, ids(res.Items), "min_area is inclusive")

	res = Run(snapshot, Spec{Investment: property.InvestmentHigh})
	assert.ElementsMatch(t, []int64{2, 3}, ids(res.Items))

	res = Run(snapshot, Spec{Location: "bodrum"})
	assert.Equal(t, []int64{3}, ids(res.Items))
}

func TestRunTextSearch(t *testing.T) {
	snapshot := build(
		fixture{typ: property.TypeVilla, status: property.StatusListed, price: 1, area: 1},
		fixture{typ: property.TypeVilla, status: property.StatusListed, price: 1, area: 1},
		fixture{typ: property.TypeVilla, status: property.StatusListed, price: 1, area: 1},
		fixture{typ: property.TypeVilla, status: property.StatusListed, price: 1, area: 1},
	)
	snapshot[0].Title = "Villa with SEA view"
	snapshot[1].Description = "Quiet street, sea breeze"
	snapshot[2].Features = []string{"Pool", "Seaside"}
	snapshot[3].Title = "Mountain cabin"

	res := Run(snapshot, Spec{Text: "Sea"})
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids(res.Items))

	res = Run(snapshot, Spec{Text: "urla"})
	assert.Equal(t, 4, res.TotalItems, "location is searched")
}

func TestRunEmptySearchIsNoConstraint(t *testing.T) {
	snapshot := mixed()

	absent := Run(snapshot, Spec{PageSize: 5})
	empty := Run(snapshot, Spec{Text: "", PageSize: 5})
	blank := Run(snapshot, Spec{Text: "   ", PageSize: 5})

	assert.Equal(t, absent, empty)
	assert.Equal(t, absent, blank)
}

func TestRunIdempotent(t *testing.T) {
	snapshot := mixed()
	spec := Spec{Sort: SortPriceHigh, Page: 2, PageSize: 3, FeaturedFirst: true}

	assert.Equal(t, Run(snapshot, spec), Run(snapshot, spec))
}

func TestRunDoesNotMutateInput(t *testing.T) {
	snapshot := mixed()
	snapshot[3].Features = []string{"garden"}
	before := ids(snapshot)

	res := Run(snapshot, Spec{Sort: SortPriceHigh, PageSize: 100})
	require.NotEmpty(t, res.Items)
	for i := range res.Items {
		if res.Items[i].ID == 4 {
			res.Items[i].Features[0] = "changed"
		}
	}

	assert.Equal(t, before, ids(snapshot))
	assert.Equal(t, "garden", snapshot[3].Features[0])
}

func TestRunPaginationCoverage(t *testing.T) {
	snapshot := mixed()
	for i := range snapshot {
		snapshot[i].IsFeatured = i%4 == 0
	}

	for _, key := range SortKeys {
		for _, size := range []int{1, 3, 5, 14, 20} {
			t.Run(fmt.Sprintf("%s/%d", key, size), func(t *testing.T) {
				full := Run(snapshot, Spec{Sort: key, FeaturedFirst: true, PageSize: 100})

				var joined []int64
				first := Run(snapshot, Spec{Sort: key, FeaturedFirst: true, PageSize: size})
				for page := 1; page <= first.TotalPages; page++ {
					res := Run(snapshot, Spec{Sort: key, FeaturedFirst: true, Page: page, PageSize: size})
					joined = append(joined, ids(res.Items)...)
				}

				assert.Equal(t, ids(full.Items), joined)
			})
		}
	}
}

func TestRunSortOrders(t *testing.T) {
	snapshot := build(
		fixture{status: property.StatusListed, price: 300, area: 20, age: 5},
		fixture{status: property.StatusListed, price: 100, area: 40, age: 1},
		fixture{status: property.StatusListed, price: 200, area: 10, age: 9},
		fixture{status: property.StatusListed, price: 100, area: 30, age: 3},
	)

	tests := []struct {
		key  SortKey
		want []int64
	}{
		{SortNewest, []int64{2, 4, 1, 3}},
		{SortPriceLow, []int64{2, 4, 3, 1}},
		{SortPriceHigh, []int64{1, 3, 2, 4}},
		{SortAreaLarge, []int64{2, 4, 1, 3}},
		{SortAreaSmall, []int64{3, 1, 4, 2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			res := Run(snapshot, Spec{Sort: tt.key})
			assert.Equal(t, tt.want, ids(res.Items))
		})
	}
}

func TestRunPriceLowIsMonotonic(t *testing.T) {
	res := Run(mixed(), Spec{Sort: SortPriceLow, PageSize: 100})

	for i := 1; i < len(res.Items); i++ {
		assert.LessOrEqual(t, res.Items[i-1].Price, res.Items[i].Price)
	}
}

func TestRunNewestTiesKeepInsertionOrder(t *testing.T) {
	snapshot := build(
		fixture{status: property.StatusListed, age: 2},
		fixture{status: property.StatusListed, age: 1},
		fixture{status: property.StatusListed, age: 2},
		fixture{status: property.StatusListed, age: 1},
	)

	res := Run(snapshot, Spec{})
	assert.Equal(t, []int64{2, 4, 1, 3}, ids(res.Items))
}

func TestRunFeaturedFirst(t *testing.T) {
	snapshot := build(
		fixture{status: property.StatusListed, price: 100, age: 1},
		fixture{status: property.StatusListed, price: 500, age: 2, featured: true},
		fixture{status: property.StatusListed, price: 50, age: 3},
		fixture{status: property.StatusListed, price: 900, age: 4, featured: true},
	)

	res := Run(snapshot, Spec{Sort: SortPriceLow, FeaturedFirst: true})
	assert.Equal(t, []int64{2, 4, 3, 1}, ids(res.Items))

	seenPlain := false
	for _, p := range res.Items {
		if !p.IsFeatured {
			seenPlain = true
		}
		assert.False(t, seenPlain && p.IsFeatured, "featured record after a non-featured one")
	}

	res = Run(snapshot, Spec{Sort: SortPriceLow})
	assert.Equal(t, []int64{3, 1, 2, 4}, ids(res.Items), "no boost unless requested")
}

func TestRunEmptyResult(t *testing.T) {
	res := Run(mixed(), Spec{Type: property.TypeIndustrial})

	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalItems)
	assert.Equal(t, 1, res.TotalPages)
	assert.False(t, res.HasNext)
	assert.False(t, res.HasPrev)

	res = Run(nil, Spec{})
	assert.Equal(t, 1, res.TotalPages)
}

func TestRunOutOfRangePage(t *testing.T) {
	res := Run(mixed(), Spec{Page: 9, PageSize: 10})

	assert.Empty(t, res.Items)
	assert.Equal(t, 14, res.TotalItems)
	assert.Equal(t, 2, res.TotalPages)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)
}

func TestRunPageSizeDefaultsAndCap(t *testing.T) {
	var many []fixture
	for i := 0; i < 150; i++ {
		many = append(many, fixture{status: property.StatusListed, price: 1, area: 1})
	}
	snapshot := build(many...)

	res := Run(snapshot, Spec{})
	assert.Equal(t, DefaultPageSize, res.PageSize)
	assert.Len(t, res.Items, DefaultPageSize)

	res = Run(snapshot, Spec{PageSize: 1000})
	assert.Equal(t, MaxPageSize, res.PageSize)
	assert.Len(t, res.Items, MaxPageSize)
}

func TestSpecKeyCanonical(t *testing.T) {
	a := Spec{}
	b := Spec{Status: property.StatusListed, Sort: SortNewest, Page: 1, PageSize: DefaultPageSize}
	assert.Equal(t, a.Key(), b.Key())

	c := Spec{Page: 2}
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestSpecUnfiltered(t *testing.T) {
	assert.True(t, Spec{Sort: SortPriceLow, Page: 3}.Unfiltered())
	assert.True(t, Spec{Text: "  "}.Unfiltered())
	assert.False(t, Spec{Type: property.TypeVilla}.Unfiltered())
	assert.False(t, Spec{MaxPrice: ptr(1)}.Unfiltered())
}
