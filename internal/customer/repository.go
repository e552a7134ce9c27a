package customer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arsarazi/realty/internal/db"
	"github.com/arsarazi/realty/internal/store"
)

// DefaultPageSize is the page size of List when none is given.
const DefaultPageSize = 20

// Repository provides CRUD operations for customers.
type Repository struct {
	db  *db.DB
	now func() time.Time
}

// NewRepository creates a customer repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d, now: store.Now}
}

const selectColumns = `id, name, email, phone, type, status, interests, budget_min, budget_max, notes, source, created_at, updated_at`

// Insert adds a new customer and returns it with its generated ID.
func (r *Repository) Insert(ctx context.Context, c *Customer) (*Customer, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	interests, err := json.Marshal(c.Interests)
	if err != nil {
		return nil, fmt.Errorf("encoding interests: %w", err)
	}

	now := r.now()
	id, err := r.db.InsertID(ctx,
		`INSERT INTO customers (name, email, phone, type, status, interests, budget_min, budget_max, notes, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(c.Name), c.Email, strings.TrimSpace(c.Phone), string(c.Type), string(c.Status),
		string(interests), c.BudgetMin, c.BudgetMax, c.Notes, c.Source, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting customer: %w", err)
	}

	return r.Get(ctx, id)
}

// Get returns a customer by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT "+selectColumns+" FROM customers WHERE id = ?"), id)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying customer %d: %w", id, err)
	}
	return c, nil
}

// FindByPhone returns the customer with the given phone number.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*Customer, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT "+selectColumns+" FROM customers WHERE phone = ? ORDER BY id LIMIT 1"),
		strings.TrimSpace(phone))

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer with phone %s: %w", phone, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying customer by phone: %w", err)
	}
	return c, nil
}

// ListOptions controls filtering and paging for List.
type ListOptions struct {
	Search string // substring of name, email or phone
	Type   Type
	Status Status
	Page   int
	Limit  int
}

// Page is one page of customers.
type Page struct {
	Items      []*Customer `json:"items"`
	Total      int         `json:"total_items"`
	Page       int         `json:"page"`
	Limit      int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// List returns customers matching opts, newest first.
func (r *Repository) List(ctx context.Context, opts ListOptions) (_ *Page, err error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultPageSize
	}

	var conditions []string
	var args []interface{}

	if s := strings.TrimSpace(opts.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		conditions = append(conditions, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)")
		args = append(args, like, like, like)
	}
	if opts.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, string(opts.Type))
	}
	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(opts.Status))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM customers"+where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting customers: %w", err)
	}

	query := "SELECT " + selectColumns + " FROM customers" + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), append(args, opts.Limit, (opts.Page-1)*opts.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	items := []*Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customers: %w", err)
	}

	pages := (total + opts.Limit - 1) / opts.Limit
	if pages < 1 {
		pages = 1
	}
	return &Page{Items: items, Total: total, Page: opts.Page, Limit: opts.Limit, TotalPages: pages}, nil
}

// Update replaces the editable fields of a customer.
func (r *Repository) Update(ctx context.Context, id int64, c *Customer) (*Customer, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	interests, err := json.Marshal(c.Interests)
	if err != nil {
		return nil, fmt.Errorf("encoding interests: %w", err)
	}

	n, err := r.db.ExecAffected(ctx,
		`UPDATE customers SET name = ?, email = ?, phone = ?, type = ?, status = ?, interests = ?,
		budget_min = ?, budget_max = ?, notes = ?, source = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(c.Name), c.Email, strings.TrimSpace(c.Phone), string(c.Type), string(c.Status), string(interests),
		c.BudgetMin, c.BudgetMax, c.Notes, c.Source, r.now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating customer: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}

	return r.Get(ctx, id)
}

// Delete removes a customer by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	n, err := r.db.ExecAffected(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(s scanner) (*Customer, error) {
	var c Customer
	var typ, status, interests string
	var budgetMin, budgetMax sql.NullFloat64

	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &typ, &status, &interests,
		&budgetMin, &budgetMax, &c.Notes, &c.Source, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Type = Type(typ)
	c.Status = Status(status)
	if budgetMin.Valid {
		c.BudgetMin = &budgetMin.Float64
	}
	if budgetMax.Valid {
		c.BudgetMax = &budgetMax.Float64
	}
	c.Interests = []string{}
	if interests != "" {
		if err := json.Unmarshal([]byte(interests), &c.Interests); err != nil || c.Interests == nil {
			c.Interests = []string{}
		}
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
