package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"n5toc/internal/config"
	"n5toc/internal/storage/sqlite"
	"n5toc/internal/toc"
	"n5toc/internal/walker"
)

func init() {
	color.NoColor = true
}

// volumeRoot lays out two volumes, one of them under an excludable directory.
func volumeRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"sample/render/sec1/v1_run/attributes.json":    `{"scales":[[1,1,1]],"translate":[7,8,9]}`,
		"sample/render/sec1/v1_run/s0/attributes.json": `{"dataType":"uint8"}`,
		"trash/sample/render/sec2/v2/attributes.json":  `{"scales":[[1,1,1]]}`,
		"sample/render/attributes.json":                `{"n5":"2.2.0"}`,
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommandHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "n5toc")
	assert.Contains(t, out, "N5 volumes")
	assert.Contains(t, out, "--root-dir")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "n5toc", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "scan", "export"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestScanJSON(t *testing.T) {
	root := volumeRoot(t)

	out, _, err := execute(t, "scan", "--root-dir", root, "--json")
	require.NoError(t, err)

	var report toc.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, root, report.Root)
	require.Len(t, report.Entries, 2)

	entry := report.Entries["sample/render/sec1/v1_run/attributes.json"]
	assert.Equal(t, "7, 8, 9", entry.Offset)
	assert.Equal(t, "render-sec1-v1", entry.Name)
	assert.Equal(t, toc.OffsetMissing, report.Entries["trash/sample/render/sec2/v2/attributes.json"].Offset)
}

func TestScanTableWithExclude(t *testing.T) {
	root := volumeRoot(t)

	out, errOut, err := execute(t, "scan", "--root-dir", root, "--exclude", "trash", "--log-level", "error")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "SAMPLE"))
	assert.Contains(t, lines[1], "render-sec1-v1")
	assert.Contains(t, lines[1], "7, 8, 9")
	assert.NotContains(t, out, "sec2")

	assert.Contains(t, errOut, "1 volumes from 2 metadata files")
}

func TestScanSummaryCountsIssuesByKind(t *testing.T) {
	root := volumeRoot(t)
	corrupt := filepath.Join(root, "sample", "render", "sec3", "v1", "attributes.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(corrupt), 0o755))
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"scales": [`), 0o644))

	_, errOut, err := execute(t, "scan", "--root-dir", root, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, errOut, "1 files skipped or incomplete (parse 1)")
	assert.Contains(t, errOut, "[parse] sample/render/sec3/v1/attributes.json")
}

func TestScanUsesConfigFile(t *testing.T) {
	root := volumeRoot(t)
	cfgPath := filepath.Join(t.TempDir(), "n5toc.yaml")
	content := "root_dir: " + root + "\nexclude_dirs: [trash]\nlog_level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	out, _, err := execute(t, "scan", "--config", cfgPath, "--json")
	require.NoError(t, err)

	var report toc.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Entries, 1)
}

func TestScanRejectsBadExclude(t *testing.T) {
	_, _, err := execute(t, "scan", "--root-dir", t.TempDir(), "--exclude", "(oops")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidPattern))
}

func TestScanMissingRoot(t *testing.T) {
	_, _, err := execute(t, "scan", "--root-dir", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, walker.ErrRootUnreadable))
}

func TestExport(t *testing.T) {
	root := volumeRoot(t)
	dbPath := filepath.Join(t.TempDir(), "toc.db")

	out, _, err := execute(t, "export", "--root-dir", root, "--db", dbPath, "--log-level", "error")
	require.NoError(t, err)
	scanID := strings.TrimSpace(out)
	require.NotEmpty(t, scanID)

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Entries(t.Context(), scanID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestExportRequiresDB(t *testing.T) {
	_, _, err := execute(t, "export", "--root-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--db")
}
