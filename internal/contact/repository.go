package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arsarazi/realty/internal/db"
	"github.com/arsarazi/realty/internal/store"
)

// DefaultPageSize is the page size of List when none is given.
const DefaultPageSize = 20

// RecentWindow is the span counted as recent by Stats.
const RecentWindow = 7 * 24 * time.Hour

// Repository provides data access for contact submissions.
type Repository struct {
	db  *db.DB
	now func() time.Time
}

// NewRepository creates a contact repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d, now: store.Now}
}

const selectColumns = `cs.id, cs.name, cs.email, cs.phone, cs.subject, cs.message, cs.property_id,
	COALESCE(p.title, ''), cs.status, cs.created_at
	FROM contact_submissions cs LEFT JOIN properties p ON cs.property_id = p.id`

// Insert stores a validated submission with status new.
func (r *Repository) Insert(ctx context.Context, s *Submission) (*Submission, error) {
	id, err := r.db.InsertID(ctx,
		`INSERT INTO contact_submissions (name, email, phone, subject, message, property_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(s.Name), s.Email, strings.TrimSpace(s.Phone), string(s.Subject),
		strings.TrimSpace(s.Message), s.PropertyID, string(New), r.now(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting submission: %w", err)
	}
	return r.Get(ctx, id)
}

// Get returns a submission by ID, with the title of the property it refers to.
func (r *Repository) Get(ctx context.Context, id int64) (*Submission, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT "+selectColumns+" WHERE cs.id = ?"), id)

	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying submission %d: %w", id, err)
	}
	return s, nil
}

// ListOptions filters and pages List. An empty Status or "all" lists every
// submission.
type ListOptions struct {
	Status Status
	Page   int
	Limit  int
}

// Page is one page of submissions plus the count per status.
type Page struct {
	Items      []*Submission  `json:"items"`
	Total      int            `json:"total_items"`
	Page       int            `json:"page"`
	Limit      int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	HasNext    bool           `json:"has_next"`
	HasPrev    bool           `json:"has_prev"`
	Counts     map[Status]int `json:"counts"`
}

// List returns submissions newest first.
func (r *Repository) List(ctx context.Context, opts ListOptions) (_ *Page, err error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultPageSize
	}

	where := ""
	var args []interface{}
	if opts.Status != "" && opts.Status != "all" {
		where = " WHERE cs.status = ?"
		args = append(args, string(opts.Status))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM contact_submissions cs" + where
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(countQuery), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting submissions: %w", err)
	}

	query := "SELECT " + selectColumns + where + " ORDER BY cs.created_at DESC, cs.id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), append(args, opts.Limit, (opts.Page-1)*opts.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	items := []*Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating submissions: %w", err)
	}

	counts, err := r.countBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	byStatus := make(map[Status]int, len(ValidStatuses))
	for _, st := range ValidStatuses {
		byStatus[st] = counts[string(st)]
	}

	pages := (total + opts.Limit - 1) / opts.Limit
	if pages < 1 {
		pages = 1
	}
	return &Page{
		Items:      items,
		Total:      total,
		Page:       opts.Page,
		Limit:      opts.Limit,
		TotalPages: pages,
		HasNext:    opts.Page < pages,
		HasPrev:    opts.Page > 1,
		Counts:     byStatus,
	}, nil
}

// UpdateStatus moves a submission to a new status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) (*Submission, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status %q: must be new, responded or closed", status)
	}
	n, err := r.db.ExecAffected(ctx, "UPDATE contact_submissions SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return nil, fmt.Errorf("updating submission status: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("submission %d: %w", id, store.ErrNotFound)
	}
	return r.Get(ctx, id)
}

// Delete removes a submission by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	n, err := r.db.ExecAffected(ctx, "DELETE FROM contact_submissions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting submission: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("submission %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// Stats counts submissions by status and subject, plus those received
// within RecentWindow.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: map[Status]int{}, BySubject: map[Subject]int{}}

	statuses, err := r.countBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	for k, n := range statuses {
		stats.ByStatus[Status(k)] = n
		stats.Total += n
	}

	subjects, err := r.countBy(ctx, "subject")
	if err != nil {
		return nil, err
	}
	for k, n := range subjects {
		stats.BySubject[Subject(k)] = n
	}

	since := r.now().Add(-RecentWindow)
	err = r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT COUNT(*) FROM contact_submissions WHERE created_at >= ?"), since,
	).Scan(&stats.Recent)
	if err != nil {
		return nil, fmt.Errorf("counting recent submissions: %w", err)
	}

	return stats, nil
}

// countBy groups on one of the fixed column names status or subject.
func (r *Repository) countBy(ctx context.Context, column string) (_ map[string]int, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM contact_submissions GROUP BY "+column)
	if err != nil {
		return nil, fmt.Errorf("counting submissions by %s: %w", column, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scanning %s count: %w", column, err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(s scanner) (*Submission, error) {
	var sub Submission
	var subject, status string
	var propertyID sql.NullInt64

	err := s.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Phone, &subject, &sub.Message,
		&propertyID, &sub.PropertyTitle, &status, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}

	sub.Subject = Subject(subject)
	sub.Status = Status(status)
	if propertyID.Valid {
		sub.PropertyID = &propertyID.Int64
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return &sub, nil
}
