package web

import (
	"net/http"

	"github.com/arsarazi/realty/internal/blog"
	"github.com/arsarazi/realty/internal/contact"
	"github.com/arsarazi/realty/internal/customer"
)

// handleAPICustomers routes /api/customers requests.
func (s *Server) handleAPICustomers(w http.ResponseWriter, r *http.Request) {
	if s.customers == nil {
		unavailable(w, "customers")
		return
	}

	idStr, sub := splitPath(r, "/api/customers")
	if idStr == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListCustomers(w, r)
		case http.MethodPost:
			s.apiCreateCustomer(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}
	if sub != "" {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	id, ok := parseID(w, idStr, "customer")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		c, err := s.customers.Get(r.Context(), id)
		if err != nil {
			s.apiFail(w, r, "loading customer", err)
			return
		}
		apiJSON(w, c, http.StatusOK)
	case http.MethodPut:
		var c customer.Customer
		if !decodeJSON(w, r, &c) {
			return
		}
		saved, err := s.customers.Update(r.Context(), id, &c)
		if err != nil {
			s.apiFail(w, r, "updating customer", err)
			return
		}
		apiJSON(w, saved, http.StatusOK)
	case http.MethodDelete:
		if err := s.customers.Delete(r.Context(), id); err != nil {
			s.apiFail(w, r, "deleting customer", err)
			return
		}
		apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) apiListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := customer.ListOptions{Search: q.Get("search")}

	if raw := q.Get("type"); raw != "" {
		opts.Type = customer.Type(raw)
		if !opts.Type.IsValid() {
			apiError(w, "unknown customer type", http.StatusBadRequest)
			return
		}
	}
	if raw := q.Get("status"); raw != "" {
		opts.Status = customer.Status(raw)
		if !opts.Status.IsValid() {
			apiError(w, "unknown customer status", http.StatusBadRequest)
			return
		}
	}

	var ok bool
	if opts.Page, ok = intParam(w, r, "page"); !ok {
		return
	}
	if opts.Limit, ok = limitParam(w, r); !ok {
		return
	}

	page, err := s.customers.List(r.Context(), opts)
	if err != nil {
		s.apiFail(w, r, "listing customers", err)
		return
	}
	apiJSON(w, page, http.StatusOK)
}

func (s *Server) apiCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c customer.Customer
	if !decodeJSON(w, r, &c) {
		return
	}
	saved, err := s.customers.Insert(r.Context(), &c)
	if err != nil {
		s.apiFail(w, r, "creating customer", err)
		return
	}
	apiJSON(w, saved, http.StatusCreated)
}

// handleAPIContact routes /api/contact requests. Only POST on the
// collection is public in a deployment; the rest is for office staff.
func (s *Server) handleAPIContact(w http.ResponseWriter, r *http.Request) {
	if s.contacts == nil {
		unavailable(w, "contact form")
		return
	}
	repo := s.contacts.Repository()

	idStr, sub := splitPath(r, "/api/contact")
	switch {
	case idStr == "":
		switch r.Method {
		case http.MethodGet:
			s.apiListContacts(w, r)
		case http.MethodPost:
			var in contact.Submission
			if !decodeJSON(w, r, &in) {
				return
			}
			saved, err := s.contacts.Submit(r.Context(), &in)
			if err != nil {
				s.apiFail(w, r, "submitting contact form", err)
				return
			}
			apiJSON(w, saved, http.StatusCreated)
		default:
			methodNotAllowed(w)
		}
		return

	case idStr == "stats" && sub == "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		st, err := repo.Stats(r.Context())
		if err != nil {
			s.apiFail(w, r, "computing contact stats", err)
			return
		}
		apiJSON(w, st, http.StatusOK)
		return
	}

	id, ok := parseID(w, idStr, "submission")
	if !ok {
		return
	}

	switch {
	case sub == "status":
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req struct {
			Status contact.Status `json:"status"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if !req.Status.IsValid() {
			apiError(w, "status must be new, responded or closed", http.StatusBadRequest)
			return
		}
		saved, err := repo.UpdateStatus(r.Context(), id, req.Status)
		if err != nil {
			s.apiFail(w, r, "updating submission status", err)
			return
		}
		apiJSON(w, saved, http.StatusOK)

	case sub != "":
		apiError(w, "not found", http.StatusNotFound)

	case r.Method == http.MethodGet:
		got, err := repo.Get(r.Context(), id)
		if err != nil {
			s.apiFail(w, r, "loading submission", err)
			return
		}
		apiJSON(w, got, http.StatusOK)

	case r.Method == http.MethodDelete:
		if err := repo.Delete(r.Context(), id); err != nil {
			s.apiFail(w, r, "deleting submission", err)
			return
		}
		apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) apiListContacts(w http.ResponseWriter, r *http.Request) {
	opts := contact.ListOptions{Status: contact.Status(r.URL.Query().Get("status"))}
	if opts.Status != "" && opts.Status != "all" && !opts.Status.IsValid() {
		apiError(w, "status must be all, new, responded or closed", http.StatusBadRequest)
		return
	}

	var ok bool
	if opts.Page, ok = intParam(w, r, "page"); !ok {
		return
	}
	if opts.Limit, ok = limitParam(w, r); !ok {
		return
	}

	page, err := s.contacts.Repository().List(r.Context(), opts)
	if err != nil {
		s.apiFail(w, r, "listing submissions", err)
		return
	}
	apiJSON(w, page, http.StatusOK)
}

// handleAPIBlog routes /api/blog requests.
func (s *Server) handleAPIBlog(w http.ResponseWriter, r *http.Request) {
	if s.blog == nil {
		unavailable(w, "blog")
		return
	}

	idStr, sub := splitPath(r, "/api/blog")
	if idStr == "" {
		switch r.Method {
		case http.MethodGet:
			opts := blog.ListOptions{Category: r.URL.Query().Get("category")}
			var ok bool
			if opts.Page, ok = intParam(w, r, "page"); !ok {
				return
			}
			if opts.Limit, ok = limitParam(w, r); !ok {
				return
			}
			page, err := s.blog.List(r.Context(), opts)
			if err != nil {
				s.apiFail(w, r, "listing posts", err)
				return
			}
			apiJSON(w, page, http.StatusOK)
		case http.MethodPost:
			var p blog.Post
			if !decodeJSON(w, r, &p) {
				return
			}
			saved, err := s.blog.Create(r.Context(), &p)
			if err != nil {
				s.apiFail(w, r, "creating post", err)
				return
			}
			apiJSON(w, saved, http.StatusCreated)
		default:
			methodNotAllowed(w)
		}
		return
	}
	if sub != "" {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	id, ok := parseID(w, idStr, "post")
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	d, err := s.blog.Get(r.Context(), id)
	if err != nil {
		s.apiFail(w, r, "loading post", err)
		return
	}
	apiJSON(w, d, http.StatusOK)
}
