// Package sqlstore is a store.Properties backed by SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arsarazi/realty/internal/db"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/store"
)

// slugAttempts bounds how often Insert picks a new slug after losing a race.
const slugAttempts = 5

// Repository provides CRUD operations for properties.
type Repository struct {
	db  *db.DB
	now func() time.Time
}

var _ store.Properties = (*Repository)(nil)

// NewRepository creates a property repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d, now: store.Now}
}

const insertSQL = `INSERT INTO properties
	(title, slug, location, address, description, type, status, area, price, investment_potential,
	 features, images, zoning, contact_person, contact_phone, is_featured, view_count, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateSQL = `UPDATE properties SET
	title = ?, slug = ?, location = ?, address = ?, description = ?, type = ?, status = ?, area = ?, price = ?,
	investment_potential = ?, features = ?, images = ?, zoning = ?, contact_person = ?, contact_phone = ?,
	is_featured = ?, updated_at = ?
	WHERE id = ?`

const selectColumns = `id, title, slug, location, address, description, type, status, area, price, investment_potential,
	features, images, zoning, contact_person, contact_phone, is_featured, view_count, created_at, updated_at`

// List returns every property in insertion order.
func (r *Repository) List(ctx context.Context) (_ []property.Property, err error) {
	query := fmt.Sprintf("SELECT %s FROM properties ORDER BY id", selectColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	properties := []property.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// Get returns a property by its ID.
func (r *Repository) Get(ctx context.Context, id int64) (*property.Property, error) {
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM properties WHERE id = ?", selectColumns))
	row := r.db.QueryRowContext(ctx, query, id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}

	return p, nil
}

// Insert adds a new property and returns it with its generated ID.
func (r *Repository) Insert(ctx context.Context, p *property.Property) (*property.Property, error) {
	rec := p.Clone()
	store.PrepareInsert(&rec, r.now())
	base := rec.Slug

	features, images, err := encodeLists(&rec)
	if err != nil {
		return nil, err
	}

	// A concurrent insert can claim the chosen slug first; the unique index
	// rejects ours and the next free suffix is tried.
	for attempt := 1; ; attempt++ {
		rec.Slug, err = r.uniqueSlug(ctx, base)
		if err != nil {
			return nil, err
		}

		id, err := r.db.InsertID(ctx, insertSQL,
			rec.Title, rec.Slug, rec.Location, rec.Address, rec.Description,
			string(rec.Type), string(rec.Status), rec.Area, rec.Price, string(rec.InvestmentPotential),
			features, images, rec.Zoning, rec.ContactPerson, rec.ContactPhone,
			rec.IsFeatured, rec.ViewCount, rec.CreatedAt, rec.UpdatedAt,
		)
		if err == nil {
			return r.Get(ctx, id)
		}
		if !db.IsUniqueViolation(err) || attempt == slugAttempts {
			return nil, fmt.Errorf("inserting property: %w", err)
		}
		slog.Debug("slug taken, retrying", "slug", rec.Slug, "attempt", attempt)
	}
}

// Update replaces the editable fields of a property.
func (r *Repository) Update(ctx context.Context, id int64, p *property.Property) (*property.Property, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := store.ApplyUpdate(*existing, p, r.now())
	features, images, err := encodeLists(&rec)
	if err != nil {
		return nil, err
	}

	n, err := r.db.ExecAffected(ctx, updateSQL,
		rec.Title, rec.Slug, rec.Location, rec.Address, rec.Description,
		string(rec.Type), string(rec.Status), rec.Area, rec.Price, string(rec.InvestmentPotential),
		features, images, rec.Zoning, rec.ContactPerson, rec.ContactPhone,
		rec.IsFeatured, rec.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating property %d: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("property %d: %w", id, store.ErrNotFound)
	}

	return r.Get(ctx, id)
}

// Delete removes a property by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	n, err := r.db.ExecAffected(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("property %d: %w", id, store.ErrNotFound)
	}

	return nil
}

// IncrementViews adds one to the view counter.
func (r *Repository) IncrementViews(ctx context.Context, id int64) error {
	n, err := r.db.ExecAffected(ctx, "UPDATE properties SET view_count = view_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("counting view of property %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("property %d: %w", id, store.ErrNotFound)
	}

	return nil
}

func (r *Repository) uniqueSlug(ctx context.Context, base string) (_ string, err error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind("SELECT slug FROM properties WHERE slug = ? OR slug LIKE ?"), base, base+"-%")
	if err != nil {
		return "", fmt.Errorf("checking slug %q: %w", base, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	taken := map[string]bool{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return "", fmt.Errorf("scanning slug: %w", err)
		}
		taken[slug] = true
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating slugs: %w", err)
	}

	return store.UniqueSlug(base, func(s string) bool { return taken[s] }), nil
}

func encodeLists(p *property.Property) (string, string, error) {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return "", "", fmt.Errorf("encoding features: %w", err)
	}
	images, err := json.Marshal(p.Images)
	if err != nil {
		return "", "", fmt.Errorf("encoding images: %w", err)
	}
	return string(features), string(images), nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(s scanner) (*property.Property, error) {
	var p property.Property
	var typ, status, investment, features, images string

	err := s.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Location, &p.Address, &p.Description,
		&typ, &status, &p.Area, &p.Price, &investment,
		&features, &images, &p.Zoning, &p.ContactPerson, &p.ContactPhone,
		&p.IsFeatured, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = property.Type(typ)
	p.Status = property.Status(status)
	p.InvestmentPotential = property.Investment(investment)
	p.Features = decodeList(p.ID, "features", features)
	p.Images = decodeList(p.ID, "images", images)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}

// decodeList tolerates hand-edited rows: a malformed list reads as empty.
func decodeList(id int64, column, raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("malformed list column", "property_id", id, "column", column, "error", err)
		return []string{}
	}
	if out == nil {
		return []string{}
	}
	return out
}
