// Package backup writes JSON backups of the listing store, on demand or on
// a cron schedule.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arsarazi/realty/internal/metrics"
	"github.com/arsarazi/realty/internal/property"
)

// FormatVersion is written into every backup document.
const FormatVersion = 1

const (
	filePrefix = "realty-"
	fileSuffix = ".json"
	fileStamp  = "20060102T150405Z"
)

// Lister is the read side of a listing store.
type Lister interface {
	List(ctx context.Context) ([]property.Property, error)
}

// Document is the on-disk backup format.
type Document struct {
	Version    int                 `json:"version"`
	ExportedAt time.Time           `json:"exported_at"`
	Properties []property.Property `json:"properties"`
}

// Export writes every listing in src to w.
func Export(ctx context.Context, src Lister, w io.Writer, now time.Time) error {
	props, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("listing properties: %w", err)
	}
	if props == nil {
		props = []property.Property{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{Version: FormatVersion, ExportedAt: now.UTC(), Properties: props}); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// Read parses a backup document.
func Read(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding backup: %w", err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported backup version %d", doc.Version)
	}
	return &doc, nil
}

// Scheduler writes timestamped backups into a directory and prunes old ones.
type Scheduler struct {
	src    Lister
	dir    string
	keep   int
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewScheduler creates a scheduler writing into dir. keep is the number of
// backups retained; zero keeps all of them.
func NewScheduler(src Lister, dir string, keep int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{src: src, dir: dir, keep: keep, logger: logger, now: time.Now}
}

// Start runs a backup on every tick of spec, a standard cron expression or
// descriptor such as @daily.
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("backup scheduler already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("scheduled backup failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling backup %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	s.logger.Info("backup scheduler started", "schedule", spec, "dir", s.dir, "keep", s.keep)
	return nil
}

// Stop halts the schedule and waits for a running backup to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce writes one backup file and prunes old files. It returns the path
// written.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	path, err := s.write(ctx)
	if err != nil {
		metrics.BackupsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.BackupsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("backup written", "path", path)

	if err := s.prune(); err != nil {
		s.logger.Warn("pruning backups", "dir", s.dir, "error", err)
	}
	return path, nil
}

func (s *Scheduler) write(ctx context.Context) (path string, err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	now := s.now().UTC()
	path = filepath.Join(s.dir, filePrefix+now.Format(fileStamp)+fileSuffix)

	tmp, err := os.CreateTemp(s.dir, ".backup-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Export(ctx, s.src, tmp, now); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("syncing backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming backup: %w", err)
	}
	return path, nil
}

// prune removes all but the newest keep backups. Names sort by time.
func (s *Scheduler) prune() error {
	if s.keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	if len(names) <= s.keep {
		return nil
	}

	sort.Strings(names)
	for _, name := range names[:len(names)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return err
		}
	}
	return nil
}
