package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "root"},
		{"/health", "health"},
		{"/api/properties", "api_properties"},
		{"/api/properties/42", "api_properties_:id"},
		{"/api/contact/7/status", "api_contact_:id_status"},
		{"/a/b/c/d/e/f", "a_b_c_d"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, pathLabel(tt.in))
		})
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	counter := RequestTotal.WithLabelValues(http.MethodGet, "api_properties_:id", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties/12", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestObserveQuery(t *testing.T) {
	before := testutil.ToFloat64(QueryTotal.WithLabelValues("search"))

	ObserveQuery("search", 14)

	assert.Equal(t, before+1, testutil.ToFloat64(QueryTotal.WithLabelValues("search")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveQuery("stats", 3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "realty_query_runs_total"))
}
