package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsarazi/realty/internal/metrics"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/store/storetest"
)

type fakeLister struct {
	props []property.Property
	err   error
}

func (f fakeLister) List(context.Context) ([]property.Property, error) {
	return f.props, f.err
}

func listings() fakeLister {
	a := *storetest.Sample("Urla olive grove")
	a.ID = 1
	b := *storetest.Sample("Bodrum villa plot")
	b.ID = 2
	return fakeLister{props: []property.Property{a, b}}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExportAndRead(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, Export(context.Background(), listings(), &buf, now))
	assert.Contains(t, buf.String(), `"price_per_area": 225`)

	doc, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, doc.Version)
	assert.True(t, doc.ExportedAt.Equal(now))
	require.Len(t, doc.Properties, 2)
	assert.Equal(t, "Bodrum villa plot", doc.Properties[1].Title)
	assert.Equal(t, []string{"sea view", "road access"}, doc.Properties[0].Features)
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), fakeLister{}, &buf, time.Now()))
	assert.Contains(t, buf.String(), `"properties": []`)
}

func TestExportListError(t *testing.T) {
	err := Export(context.Background(), fakeLister{err: errors.New("disk gone")}, io.Discard, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestReadRejects(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version": 9, "properties": []}`))
	assert.Error(t, err)

	_, err = Read(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestRunOnceWritesAndPrunes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	s := NewScheduler(listings(), dir, 2, quiet())

	before := testutil.ToFloat64(metrics.BackupsTotal.WithLabelValues("ok"))

	base := time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)
	var paths []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		s.now = func() time.Time { return at }
		path, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		paths = append(paths, path)
	}

	assert.Equal(t, filepath.Join(dir, "realty-20250301T030000Z.json"), paths[0])
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.BackupsTotal.WithLabelValues("ok")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"realty-20250302T030000Z.json", "realty-20250303T030000Z.json"}, names)

	f, err := os.Open(paths[2])
	require.NoError(t, err)
	defer f.Close()
	doc, err := Read(f)
	require.NoError(t, err)
	assert.Len(t, doc.Properties, 2)
}

func TestRunOnceFailure(t *testing.T) {
	dir := t.TempDir()
	s := NewScheduler(fakeLister{err: errors.New("locked")}, dir, 0, quiet())

	before := testutil.ToFloat64(metrics.BackupsTotal.WithLabelValues("error"))
	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BackupsTotal.WithLabelValues("error")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed backups leave no files behind")
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(listings(), t.TempDir(), 0, quiet())

	assert.Error(t, s.Start("every tuesday"))

	require.NoError(t, s.Start("@daily"))
	assert.Error(t, s.Start("@daily"), "second start")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
