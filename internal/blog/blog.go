// Package blog stores the office's blog posts.
package blog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arsarazi/realty/internal/db"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/store"
)

const (
	// DefaultPageSize is the page size of List when none is given.
	DefaultPageSize = 10
	// RelatedLimit caps the related posts returned by Get.
	RelatedLimit = 3
)

// Post is one blog article.
type Post struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Summary     string     `json:"summary,omitempty"`
	Content     string     `json:"content,omitempty"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	IsPublished bool       `json:"is_published"`
	ViewCount   int64      `json:"view_count"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks a post before it is written.
func (p *Post) Validate() error {
	var verr property.ValidationError

	if n := utf8.RuneCountInString(strings.TrimSpace(p.Title)); n < 5 || n > 255 {
		verr.Add("title", "must be 5-255 characters")
	}
	if strings.TrimSpace(p.Content) == "" {
		verr.Add("content", "is required")
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(p.Category)); n < 2 || n > 100 {
		verr.Add("category", "must be 2-100 characters")
	}
	if utf8.RuneCountInString(p.Summary) > 500 {
		verr.Add("summary", "must be at most 500 characters")
	}

	return verr.Err()
}

// Detail is a post with others from the same category.
type Detail struct {
	*Post
	Related []*Post `json:"related_posts"`
}

// Repository provides data access for blog posts.
type Repository struct {
	db  *db.DB
	now func() time.Time
}

// NewRepository creates a blog repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d, now: store.Now}
}

const selectColumns = `id, title, slug, summary, content, category, tags, is_published, view_count,
	published_at, created_at, updated_at`

// Create stores a new post. The slug is derived from the title and made
// unique; published posts without a date are stamped with the current time.
func (r *Repository) Create(ctx context.Context, p *Post) (*Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	base := p.Slug
	if base == "" {
		base = property.Slugify(p.Title)
	}
	slug, err := r.uniqueSlug(ctx, base)
	if err != nil {
		return nil, err
	}

	now := r.now()
	publishedAt := p.PublishedAt
	if p.IsPublished && publishedAt == nil {
		publishedAt = &now
	}

	id, err := r.db.InsertID(ctx,
		`INSERT INTO blog_posts (title, slug, summary, content, category, tags, is_published, view_count, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		strings.TrimSpace(p.Title), slug, p.Summary, p.Content, strings.TrimSpace(p.Category), string(tags),
		p.IsPublished, publishedAt, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}

	return r.get(ctx, id, false)
}

func (r *Repository) uniqueSlug(ctx context.Context, base string) (string, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind("SELECT slug FROM blog_posts WHERE slug = ? OR slug LIKE ?"), base, base+"-%")
	if err != nil {
		return "", fmt.Errorf("checking slug %q: %w", base, err)
	}
	defer rows.Close()

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

// Get returns a published post with up to RelatedLimit posts from the same
// category, newest first. Each call counts as one view.
func (r *Repository) Get(ctx context.Context, id int64) (*Detail, error) {
	if _, err := r.db.ExecAffected(ctx,
		"UPDATE blog_posts SET view_count = view_count + 1 WHERE id = ? AND is_published = ?", id, true); err != nil {
		return nil, fmt.Errorf("counting view of post %d: %w", id, err)
	}

	post, err := r.get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	related, err := r.query(ctx,
		"WHERE id != ? AND category = ? AND is_published = ? ORDER BY published_at DESC, id DESC LIMIT ?",
		id, post.Category, true, RelatedLimit)
	if err != nil {
		return nil, fmt.Errorf("listing related posts: %w", err)
	}

	return &Detail{Post: post, Related: related}, nil
}

func (r *Repository) get(ctx context.Context, id int64, publishedOnly bool) (*Post, error) {
	q := "SELECT " + selectColumns + " FROM blog_posts WHERE id = ?"
	args := []interface{}{id}
	if publishedOnly {
		q += " AND is_published = ?"
		args = append(args, true)
	}

	p, err := scanPost(r.db.QueryRowContext(ctx, r.db.Rebind(q), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying post %d: %w", id, err)
	}
	return p, nil
}

// ListOptions filters and pages List.
type ListOptions struct {
	Category string
	Page     int
	Limit    int
}

// Page is one page of published posts.
type Page struct {
	Items      []*Post `json:"items"`
	Total      int     `json:"total_items"`
	Page       int     `json:"page"`
	Limit      int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// List returns published posts, most recently published first.
func (r *Repository) List(ctx context.Context, opts ListOptions) (*Page, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultPageSize
	}

	where := "WHERE is_published = ?"
	args := []interface{}{true}
	if c := strings.TrimSpace(opts.Category); c != "" {
		where += " AND category = ?"
		args = append(args, c)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM blog_posts "+where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}

	items, err := r.query(ctx, where+" ORDER BY published_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, opts.Limit, (opts.Page-1)*opts.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	pages := (total + opts.Limit - 1) / opts.Limit
	if pages < 1 {
		pages = 1
	}
	return &Page{Items: items, Total: total, Page: opts.Page, Limit: opts.Limit, TotalPages: pages}, nil
}

func (r *Repository) query(ctx context.Context, clause string, args ...interface{}) (_ []*Post, err error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind("SELECT "+selectColumns+" FROM blog_posts "+clause), args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	posts := []*Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(s scanner) (*Post, error) {
	var p Post
	var tags string
	var publishedAt sql.NullTime

	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Summary, &p.Content, &p.Category, &tags,
		&p.IsPublished, &p.ViewCount, &publishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil || p.Tags == nil {
			p.Tags = []string{}
		}
	}
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		p.PublishedAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
