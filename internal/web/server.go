// Package web provides the HTTP server and JSON API handlers.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arsarazi/realty/internal/blog"
	"github.com/arsarazi/realty/internal/catalog"
	"github.com/arsarazi/realty/internal/contact"
	"github.com/arsarazi/realty/internal/customer"
	"github.com/arsarazi/realty/internal/logging"
	"github.com/arsarazi/realty/internal/metrics"
)

// Deps are the services the API serves. Catalog is required; the API for
// any other nil dependency answers 503.
type Deps struct {
	Catalog   *catalog.Catalog
	Customers *customer.Repository
	Contacts  *contact.Service
	Blog      *blog.Repository
	Logger    *slog.Logger
	// RateLimit caps API requests per client address per 15 minutes.
	// Zero disables limiting.
	RateLimit int
}

// Server is the API HTTP server.
type Server struct {
	catalog   *catalog.Catalog
	customers *customer.Repository
	contacts  *contact.Service
	blog      *blog.Repository
	logger    *slog.Logger
	mux       *http.ServeMux
	handler   http.Handler
}

// NewServer creates a server over deps.
func NewServer(deps Deps) (*Server, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		catalog:   deps.Catalog,
		customers: deps.Customers,
		contacts:  deps.Contacts,
		blog:      deps.Blog,
		logger:    deps.Logger,
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.HandleFunc("/api/properties", s.handleAPIProperties)
	s.mux.HandleFunc("/api/properties/", s.handleAPIProperties)
	s.mux.HandleFunc("/api/customers", s.handleAPICustomers)
	s.mux.HandleFunc("/api/customers/", s.handleAPICustomers)
	s.mux.HandleFunc("/api/contact", s.handleAPIContact)
	s.mux.HandleFunc("/api/contact/", s.handleAPIContact)
	s.mux.HandleFunc("/api/blog", s.handleAPIBlog)
	s.mux.HandleFunc("/api/blog/", s.handleAPIBlog)

	var h http.Handler = s.mux
	if deps.RateLimit > 0 {
		h = newClientLimiter(deps.RateLimit).middleware(h)
	}
	s.handler = logging.RequestID(logging.RequestLogger(metrics.Middleware(h)))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
