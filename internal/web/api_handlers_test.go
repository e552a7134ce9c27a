package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsarazi/realty/internal/blog"
	"github.com/arsarazi/realty/internal/catalog"
	"github.com/arsarazi/realty/internal/contact"
	"github.com/arsarazi/realty/internal/customer"
	"github.com/arsarazi/realty/internal/db"
	"github.com/arsarazi/realty/internal/logging"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/store/sqlstore"
)

type recordingNotifier struct {
	sent []*contact.Submission
}

func (n *recordingNotifier) NotifyContact(_ context.Context, s *contact.Submission) error {
	n.sent = append(n.sent, s)
	return nil
}

type testEnv struct {
	srv       *Server
	catalog   *catalog.Catalog
	customers *customer.Repository
	notifier  *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.New(sqlstore.NewRepository(d), catalog.WithLogger(logger))
	customers := customer.NewRepository(d)
	notifier := &recordingNotifier{}
	contacts := contact.NewService(contact.NewRepository(d),
		contact.WithCustomers(customers),
		contact.WithNotifier(notifier),
		contact.WithLogger(logger),
	)

	srv, err := NewServer(Deps{
		Catalog:   cat,
		Customers: customers,
		Contacts:  contacts,
		Blog:      blog.NewRepository(d),
		Logger:    logger,
	})
	require.NoError(t, err)

	return &testEnv{srv: srv, catalog: cat, customers: customers, notifier: notifier}
}

func apiRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := &bytes.Buffer{}
	if body != nil {
		require.NoError(t, json.NewEncoder(reqBody).Encode(body))
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

func listing(title string, typ property.Type, status property.Status, created time.Time) *property.Property {
	return &property.Property{
		Title:     title,
		Location:  "Izmir, Urla",
		Type:      typ,
		Status:    status,
		Area:      2000,
		Price:     450000,
		CreatedAt: created,
	}
}

// seed stores 20 listings: 14 listed residential, 3 sold residential and
// 3 listed villas.
func seed(t *testing.T, cat *catalog.Catalog) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		typ, status := property.TypeResidential, property.StatusListed
		switch {
		case i >= 17:
			typ = property.TypeVilla
		case i >= 14:
			status = property.StatusSold
		}
		p := listing(fmt.Sprintf("Listing number %02d", i), typ, status, base.Add(time.Duration(i)*time.Hour))
		_, err := cat.Create(context.Background(), p)
		require.NoError(t, err)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	w := apiRequest(t, env.srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logging.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	apiRequest(t, env.srv, http.MethodGet, "/api/properties", nil)

	w := apiRequest(t, env.srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "realty_http_requests_total")
}

func TestListPropertiesPagination(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.catalog)

	w := apiRequest(t, env.srv, http.MethodGet, "/api/properties?type=residential&page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Items      []map[string]interface{} `json:"items"`
		TotalItems int                      `json:"total_items"`
		TotalPages int                      `json:"total_pages"`
		HasNext    bool                     `json:"has_next"`
		HasPrev    bool                     `json:"has_prev"`
	}
	decode(t, w, &res)
	assert.Equal(t, 14, res.TotalItems)
	assert.Equal(t, 2, res.TotalPages)
	assert.Len(t, res.Items, 4)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrev)
	assert.Equal(t, 225.0, res.Items[0]["price_per_area"])
}

func TestListPropertiesFeaturedFirstByDefault(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.catalog)

	old := listing("Old featured listing", property.TypeVilla, property.StatusListed, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	old.IsFeatured = true
	_, err := env.catalog.Create(context.Background(), old)
	require.NoError(t, err)

	var res struct {
		Items []property.Property `json:"items"`
	}

	w := apiRequest(t, env.srv, http.MethodGet, "/api/properties", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.Equal(t, "Old featured listing", res.Items[0].Title)

	w = apiRequest(t, env.srv, http.MethodGet, "/api/properties?featured_first=false", nil)
	decode(t, w, &res)
	assert.Equal(t, "Listing number 19", res.Items[0].Title)

	w = apiRequest(t, env.srv, http.MethodGet, "/api/properties?type=villa", nil)
	decode(t, w, &res)
	assert.Equal(t, "Listing number 19", res.Items[0].Title, "filtered searches rank by sort only")
}

func TestListPropertiesValidation(t *testing.T) {
	env := newTestEnv(t)

	w := apiRequest(t, env.srv, http.MethodGet, "/api/properties?type=castle&limit=500&sort=cheapest", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error  string                `json:"error"`
		Fields []property.FieldError `json:"fields"`
	}
	decode(t, w, &body)
	assert.Equal(t, "validation failed", body.Error)
	var fields []string
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"type", "limit", "sort"}, fields)
}

func TestPropertyStats(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.catalog)

	w := apiRequest(t, env.srv, http.MethodGet, "/api/properties/stats?page=2&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var st struct {
		Count  int            `json:"count"`
		ByType map[string]int `json:"by_type"`
	}
	decode(t, w, &st)
	assert.Equal(t, 17, st.Count, "stats ignore paging")
	assert.Equal(t, 14, st.ByType["residential"])
	assert.Equal(t, 3, st.ByType["villa"])
}

func TestCreateAndGetProperty(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.catalog)

	w := apiRequest(t, env.srv, http.MethodPost, "/api/properties", map[string]interface{}{
		"title":                "Urla olive grove",
		"location":             "Izmir, Urla",
		"type":                 "Tarım",
		"status":               "Satılık",
		"investment_potential": "Yüksek",
		"area":                 2000,
		"price":                450000,
		"features":             []string{"olive trees"},
		"price_per_area":       1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created property.Property
	decode(t, w, &created)
	assert.Equal(t, property.TypeAgricultural, created.Type)
	assert.Equal(t, property.StatusListed, created.Status)
	assert.Equal(t, property.InvestmentHigh, created.InvestmentPotential)
	assert.Equal(t, "urla-olive-grove", created.Slug)

	path := fmt.Sprintf("/api/properties/%d", created.ID)
	w = apiRequest(t, env.srv, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Property map[string]interface{} `json:"property"`
		Related  []property.Property    `json:"related_properties"`
	}
	decode(t, w, &detail)
	assert.Equal(t, 225.0, detail.Property["price_per_area"])
	assert.Equal(t, 1.0, detail.Property["view_count"])
	assert.Len(t, detail.Related, 3)
	for _, r := range detail.Related {
		assert.NotEqual(t, created.ID, r.ID)
		assert.Equal(t, property.StatusListed, r.Status)
	}

	w = apiRequest(t, env.srv, http.MethodGet, path+"/similar?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var similar []property.Property
	decode(t, w, &similar)
	assert.Len(t, similar, 2)
}

func TestCreatePropertyValidation(t *testing.T) {
	env := newTestEnv(t)

	w := apiRequest(t, env.srv, http.MethodPost, "/api/properties", map[string]interface{}{
		"title": "Tiny",
		"type":  "castle",
		"area":  -1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"fields"`)

	r := httptest.NewRequest(http.MethodPost, "/api/properties", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteProperty(t *testing.T) {
	env := newTestEnv(t)

	saved, err := env.catalog.Create(context.Background(),
		listing("Bodrum sea view villa", property.TypeVilla, property.StatusListed, time.Time{}))
	require.NoError(t, err)
	path := fmt.Sprintf("/api/properties/%d", saved.ID)

	change := *saved
	change.Price = 900000
	change.Status = "Rezerve"
	w := apiRequest(t, env.srv, http.MethodPut, path, change)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated property.Property
	decode(t, w, &updated)
	assert.Equal(t, 900000.0, updated.Price)
	assert.Equal(t, property.StatusReserved, updated.Status)

	w = apiRequest(t, env.srv, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = apiRequest(t, env.srv, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = apiRequest(t, env.srv, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = apiRequest(t, env.srv, http.MethodPut, path, change)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeaturedProperties(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.catalog)

	for i := 0; i < 3; i++ {
		p := listing(fmt.Sprintf("Featured listing %d", i), property.TypeVilla, property.StatusListed, time.Time{})
		p.IsFeatured = true
		_, err := env.catalog.Create(context.Background(), p)
		require.NoError(t, err)
	}

	w := apiRequest(t, env.srv, http.MethodGet, "/api/properties/featured?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var props []property.Property
	decode(t, w, &props)
	require.Len(t, props, 2)
	for _, p := range props {
		assert.True(t, p.IsFeatured)
	}
}

func TestPropertyRouting(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/properties/abc", http.StatusBadRequest},
		{http.MethodGet, "/api/properties/0", http.StatusBadRequest},
		{http.MethodPatch, "/api/properties", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/properties/featured", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/properties/1", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/properties/1/photos", http.StatusNotFound},
		{http.MethodGet, "/api/properties/999", http.StatusNotFound},
		{http.MethodGet, "/api/properties/featured?limit=zero", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := apiRequest(t, env.srv, tt.method, tt.path, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestNewServerRequiresCatalog(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
}
