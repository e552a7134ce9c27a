package web

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsarazi/realty/internal/catalog"
	"github.com/arsarazi/realty/internal/store/jsonfile"
)

func TestClientLimiterRefills(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newClientLimiter(3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("10.0.0.1"), "request %d within the burst", i+1)
	}
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "clients have separate budgets")

	now = now.Add(5 * time.Minute)
	assert.True(t, l.allow("10.0.0.1"), "one request refills every 5 minutes")
	assert.False(t, l.allow("10.0.0.1"))
}

func TestClientLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newClientLimiter(10)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	l.allow("10.0.0.2")
	require.Len(t, l.clients, 2)

	now = now.Add(rateWindow + time.Minute)
	l.allow("10.0.0.3")
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "10.0.0.3")
}

func TestServerRateLimitsAPI(t *testing.T) {
	props, err := jsonfile.Open(filepath.Join(t.TempDir(), "properties.json"))
	require.NoError(t, err)
	srv, err := NewServer(Deps{Catalog: catalog.New(props), RateLimit: 2})
	require.NoError(t, err)

	get := func(path, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, get("/api/properties", "192.0.2.1:5000").Code)
	assert.Equal(t, http.StatusOK, get("/api/properties/featured", "192.0.2.1:5001").Code)

	w := get("/api/properties", "192.0.2.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "451", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "too many requests")

	assert.Equal(t, http.StatusOK, get("/health", "192.0.2.1:5003").Code)
	assert.Equal(t, http.StatusOK, get("/api/properties", "192.0.2.9:5000").Code)
}
