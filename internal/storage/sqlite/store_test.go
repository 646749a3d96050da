package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"n5toc/internal/toc"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "toc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func report(id string) *toc.Report {
	started := time.Unix(1_700_000_000, 123)
	return &toc.Report{
		ID:         id,
		Root:       "/nrs/n5",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Candidates: 7,
		NonVolumes: 4,
		Entries: map[string]toc.TocEntry{
			"z/render/s9/v3/attributes.json": {
				Path: "z/render/s9/v3/attributes.json", Sample: "z", Stage: "render", Section: "s9",
				Version: "v3", FullVersion: "v3", Name: "render-s9-v3",
				Offset: toc.OffsetMissing, Link: "http://viewer/#!z",
			},
			"a/align/s1/v1_x/attributes.json": {
				Path: "a/align/s1/v1_x/attributes.json", Sample: "a", Stage: "align", Section: "s1",
				Version: "v1", FullVersion: "v1_x", Name: "align-s1-v1",
				Offset: "1, 2, 3", OffsetLink: "http://viewer/#!a-offset", Link: "http://viewer/#!a",
			},
		},
		Issues: []toc.Issue{{Path: "q/attributes.json", Kind: toc.IssueParse, Err: "bad json"}},
	}
}

func TestSaveReportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	rep := report("scan-1")

	require.NoError(t, store.SaveReport(ctx, rep))

	entries, err := store.Entries(ctx, "scan-1")
	require.NoError(t, err)
	assert.Equal(t, rep.Sorted(), entries)

	rec, err := store.Scan(ctx, "scan-1")
	require.NoError(t, err)
	assert.Equal(t, "/nrs/n5", rec.Root)
	assert.True(t, rec.StartedAt.Equal(rep.StartedAt))
	assert.True(t, rec.FinishedAt.Equal(rep.FinishedAt))
	assert.Equal(t, 7, rec.Candidates)
	assert.Equal(t, 4, rec.NonVolumes)
	assert.Equal(t, 1, rec.Issues)
	assert.Equal(t, 2, rec.Entries)
}

func TestSaveReportKeepsScansApart(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.SaveReport(ctx, report("scan-1")))
	second := report("scan-2")
	delete(second.Entries, "z/render/s9/v3/attributes.json")
	require.NoError(t, store.SaveReport(ctx, second))

	first, err := store.Entries(ctx, "scan-1")
	require.NoError(t, err)
	assert.Len(t, first, 2)

	latest, err := store.Entries(ctx, "scan-2")
	require.NoError(t, err)
	assert.Len(t, latest, 1)
}

func TestSaveReportDuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.SaveReport(ctx, report("scan-1")))
	err := store.SaveReport(ctx, report("scan-1"))
	require.Error(t, err)

	entries, err := store.Entries(ctx, "scan-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSaveReportRejectsIncompleteReports(t *testing.T) {
	store := openStore(t)
	assert.Error(t, store.SaveReport(context.Background(), nil))
	assert.Error(t, store.SaveReport(context.Background(), &toc.Report{}))
}

func TestScanMissing(t *testing.T) {
	store := openStore(t)
	_, err := store.Scan(context.Background(), "absent")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	entries, err := store.Entries(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
