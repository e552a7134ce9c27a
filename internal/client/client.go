// Package client provides an HTTP client for the realty REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arsarazi/realty/internal/catalog"
	"github.com/arsarazi/realty/internal/contact"
	"github.com/arsarazi/realty/internal/customer"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/query"
)

// Client is an HTTP client for the realty API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []property.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// ListProperties runs a search. The featured ranking is always sent, so
// the server default for unfiltered listings does not apply.
func (c *Client) ListProperties(ctx context.Context, s query.Spec) (*query.Result, error) {
	v := s.Values()
	v.Set("featured_first", strconv.FormatBool(s.FeaturedFirst))

	var res query.Result
	if err := c.do(ctx, http.MethodGet, withQuery("/api/properties", v), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stats summarizes the listings matching s.
func (c *Client) Stats(ctx context.Context, s query.Spec) (*query.Stats, error) {
	var st query.Stats
	if err := c.do(ctx, http.MethodGet, withQuery("/api/properties/stats", s.Values()), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Featured returns up to n featured listings; 0 means the server default.
func (c *Client) Featured(ctx context.Context, n int) ([]property.Property, error) {
	var props []property.Property
	if err := c.do(ctx, http.MethodGet, withQuery("/api/properties/featured", limitValues(n)), nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// GetProperty returns a listing with related suggestions.
func (c *Client) GetProperty(ctx context.Context, id int64) (*catalog.Detail, error) {
	var d catalog.Detail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/properties/%d", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Similar returns up to n listings resembling listing id.
func (c *Client) Similar(ctx context.Context, id int64, n int) ([]property.Property, error) {
	var props []property.Property
	path := withQuery(fmt.Sprintf("/api/properties/%d/similar", id), limitValues(n))
	if err := c.do(ctx, http.MethodGet, path, nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// CreateProperty adds a listing.
func (c *Client) CreateProperty(ctx context.Context, p *property.Property) (*property.Property, error) {
	var saved property.Property
	if err := c.do(ctx, http.MethodPost, "/api/properties", p, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateProperty replaces the editable fields of listing id.
func (c *Client) UpdateProperty(ctx context.Context, id int64, p *property.Property) (*property.Property, error) {
	var saved property.Property
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/properties/%d", id), p, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteProperty removes a listing.
func (c *Client) DeleteProperty(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/properties/%d", id), nil, nil)
}

// SubmitContact posts a contact form.
func (c *Client) SubmitContact(ctx context.Context, s *contact.Submission) (*contact.Submission, error) {
	var saved contact.Submission
	if err := c.do(ctx, http.MethodPost, "/api/contact", s, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListContacts returns one page of submissions; status "" lists all.
func (c *Client) ListContacts(ctx context.Context, opts contact.ListOptions) (*contact.Page, error) {
	v := url.Values{}
	if opts.Status != "" {
		v.Set("status", string(opts.Status))
	}
	pageValues(v, opts.Page, opts.Limit)

	var page contact.Page
	if err := c.do(ctx, http.MethodGet, withQuery("/api/contact", v), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetContactStatus moves submission id to status.
func (c *Client) SetContactStatus(ctx context.Context, id int64, status contact.Status) (*contact.Submission, error) {
	body := map[string]contact.Status{"status": status}
	var saved contact.Submission
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/contact/%d/status", id), body, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ContactStats returns the contact form counters.
func (c *Client) ContactStats(ctx context.Context) (*contact.Stats, error) {
	var st contact.Stats
	if err := c.do(ctx, http.MethodGet, "/api/contact/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListCustomers returns one page of customers.
func (c *Client) ListCustomers(ctx context.Context, opts customer.ListOptions) (*customer.Page, error) {
	v := url.Values{}
	if opts.Search != "" {
		v.Set("search", opts.Search)
	}
	if opts.Type != "" {
		v.Set("type", string(opts.Type))
	}
	if opts.Status != "" {
		v.Set("status", string(opts.Status))
	}
	pageValues(v, opts.Page, opts.Limit)

	var page customer.Page
	if err := c.do(ctx, http.MethodGet, withQuery("/api/customers", v), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func limitValues(n int) url.Values {
	v := url.Values{}
	if n > 0 {
		v.Set("limit", strconv.Itoa(n))
	}
	return v
}

func pageValues(v url.Values, page, limit int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}

// do sends a request with an optional JSON body and decodes the response
// into result. Error answers become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error  string                `json:"error"`
			Fields []property.FieldError `json:"fields"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Fields = errResp.Fields
		} else {
			apiErr.Message = "server error: " + http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
