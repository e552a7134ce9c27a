// Package jsonfile stores listings in a single JSON document on disk.
// Every write replaces the file atomically.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/store"
)

// document is the on-disk layout.
type document struct {
	NextID     int64               `json:"next_id"`
	Properties []property.Property `json:"properties"`
}

// Store is a store.Properties backed by one JSON file.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

var _ store.Properties = (*Store)(nil)

// Open returns a store for path, creating the file and its directory if
// they do not exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
	}

	s := &Store{path: path, now: store.Now}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.save(&document{NextID: 1, Properties: []property.Property{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking store file: %w", err)
	}

	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding store file %s: %w", s.path, err)
	}

	// Repair a missing or stale counter so ids are never reused.
	for _, p := range doc.Properties {
		if p.ID >= doc.NextID {
			doc.NextID = p.ID + 1
		}
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	return &doc, nil
}

// save writes doc to a temporary file in the same directory and renames
// it over the store file.
func (s *Store) save(doc *document) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".realty-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}

func indexOf(doc *document, id int64) int {
	for i := range doc.Properties {
		if doc.Properties[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns every listing in insertion order.
func (s *Store) List(ctx context.Context) ([]property.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]property.Property, len(doc.Properties))
	for i, p := range doc.Properties {
		p.ApplyDefaults()
		out[i] = p
	}
	return out, nil
}

// Get returns a listing by id.
func (s *Store) Get(ctx context.Context, id int64) (*property.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	i := indexOf(doc, id)
	if i < 0 {
		return nil, fmt.Errorf("property %d: %w", id, store.ErrNotFound)
	}
	p := doc.Properties[i]
	p.ApplyDefaults()
	return &p, nil
}

// Insert assigns the next id and appends p.
func (s *Store) Insert(ctx context.Context, p *property.Property) (*property.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	rec := p.Clone()
	store.PrepareInsert(&rec, s.now())
	rec.Slug = store.UniqueSlug(rec.Slug, func(slug string) bool {
		for _, existing := range doc.Properties {
			if existing.Slug == slug {
				return true
			}
		}
		return false
	})
	rec.ID = doc.NextID
	doc.NextID++
	doc.Properties = append(doc.Properties, rec)

	if err := s.save(doc); err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}
	return &rec, nil
}

// Update replaces the editable fields of listing id.
func (s *Store) Update(ctx context.Context, id int64, p *property.Property) (*property.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	i := indexOf(doc, id)
	if i < 0 {
		return nil, fmt.Errorf("property %d: %w", id, store.ErrNotFound)
	}
	rec := store.ApplyUpdate(doc.Properties[i], p, s.now())
	doc.Properties[i] = rec

	if err := s.save(doc); err != nil {
		return nil, fmt.Errorf("updating property %d: %w", id, err)
	}
	return &rec, nil
}

// Delete removes listing id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	i := indexOf(doc, id)
	if i < 0 {
		return fmt.Errorf("property %d: %w", id, store.ErrNotFound)
	}
	doc.Properties = append(doc.Properties[:i], doc.Properties[i+1:]...)

	if err := s.save(doc); err != nil {
		return fmt.Errorf("deleting property %d: %w", id, err)
	}
	return nil
}

// IncrementViews adds one to the view counter of listing id.
func (s *Store) IncrementViews(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	i := indexOf(doc, id)
	if i < 0 {
		return fmt.Errorf("property %d: %w", id, store.ErrNotFound)
	}
	doc.Properties[i].ViewCount++

	if err := s.save(doc); err != nil {
		return fmt.Errorf("counting view of property %d: %w", id, err)
	}
	return nil
}
