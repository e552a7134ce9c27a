package web

import (
	"net/http"

	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/query"
)

// handleAPIProperties routes /api/properties requests.
func (s *Server) handleAPIProperties(w http.ResponseWriter, r *http.Request) {
	idStr, sub := splitPath(r, "/api/properties")

	// /api/properties: search or create
	if idStr == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListProperties(w, r)
		case http.MethodPost:
			s.apiCreateProperty(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if sub == "" && (idStr == "featured" || idStr == "stats") {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if idStr == "featured" {
			s.apiFeatured(w, r)
		} else {
			s.apiStats(w, r)
		}
		return
	}

	id, ok := parseID(w, idStr, "property")
	if !ok {
		return
	}

	switch sub {
	case "":
	case "similar":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.apiSimilar(w, r, id)
		return
	default:
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	// /api/properties/{id}
	switch r.Method {
	case http.MethodGet:
		s.apiGetProperty(w, r, id)
	case http.MethodPut:
		s.apiUpdateProperty(w, r, id)
	case http.MethodDelete:
		s.apiDeleteProperty(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

// apiListProperties runs a search. An unfiltered listing ranks featured
// properties first unless featured_first is given explicitly.
func (s *Server) apiListProperties(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	spec, err := query.Parse(params)
	if err != nil {
		s.apiFail(w, r, "parsing search", err)
		return
	}
	if !query.HasFeaturedFirst(params) && spec.Unfiltered() {
		spec.FeaturedFirst = true
	}

	res, err := s.catalog.Search(r.Context(), spec)
	if err != nil {
		s.apiFail(w, r, "searching properties", err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

// apiStats summarizes the listings matching the filter parameters.
func (s *Server) apiStats(w http.ResponseWriter, r *http.Request) {
	spec, err := query.Parse(r.URL.Query())
	if err != nil {
		s.apiFail(w, r, "parsing search", err)
		return
	}

	st, err := s.catalog.Stats(r.Context(), spec)
	if err != nil {
		s.apiFail(w, r, "computing stats", err)
		return
	}
	apiJSON(w, st, http.StatusOK)
}

func (s *Server) apiFeatured(w http.ResponseWriter, r *http.Request) {
	n, ok := limitParam(w, r)
	if !ok {
		return
	}

	props, err := s.catalog.Featured(r.Context(), n)
	if err != nil {
		s.apiFail(w, r, "listing featured properties", err)
		return
	}
	apiJSON(w, props, http.StatusOK)
}

func (s *Server) apiSimilar(w http.ResponseWriter, r *http.Request, id int64) {
	n, ok := limitParam(w, r)
	if !ok {
		return
	}

	props, err := s.catalog.Similar(r.Context(), id, n)
	if err != nil {
		s.apiFail(w, r, "listing similar properties", err)
		return
	}
	apiJSON(w, props, http.StatusOK)
}

// apiGetProperty returns a property with related listings and counts the view.
func (s *Server) apiGetProperty(w http.ResponseWriter, r *http.Request, id int64) {
	d, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.apiFail(w, r, "loading property", err)
		return
	}
	apiJSON(w, d, http.StatusOK)
}

func (s *Server) apiCreateProperty(w http.ResponseWriter, r *http.Request) {
	var p property.Property
	if !decodeJSON(w, r, &p) {
		return
	}
	p.NormalizeLabels()

	saved, err := s.catalog.Create(r.Context(), &p)
	if err != nil {
		s.apiFail(w, r, "creating property", err)
		return
	}
	apiJSON(w, saved, http.StatusCreated)
}

func (s *Server) apiUpdateProperty(w http.ResponseWriter, r *http.Request, id int64) {
	var p property.Property
	if !decodeJSON(w, r, &p) {
		return
	}
	p.NormalizeLabels()

	saved, err := s.catalog.Update(r.Context(), id, &p)
	if err != nil {
		s.apiFail(w, r, "updating property", err)
		return
	}
	apiJSON(w, saved, http.StatusOK)
}

func (s *Server) apiDeleteProperty(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.apiFail(w, r, "deleting property", err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// limitParam reads ?limit=, capped at query.MaxPageSize. Zero means the
// caller's default.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, ok := intParam(w, r, "limit")
	if !ok {
		return 0, false
	}
	if n > query.MaxPageSize {
		n = query.MaxPageSize
	}
	return n, true
}
