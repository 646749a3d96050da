package fsys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSuite(t *testing.T, fs *BillyFS, root string) {
	t.Helper()

	entries, err := fs.ReadDir(root)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"attributes.json", "s0"}, names)

	data, err := fs.ReadFile(filepath.Join(root, "attributes.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"scales":[[1,1,1]]}`, string(data))

	info, err := fs.Stat(filepath.Join(root, "s0"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = fs.ReadDir(filepath.Join(root, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billy: readdir")

	_, err = fs.ReadFile(filepath.Join(root, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billy: readfile")
}

func TestInMemoryFS_Suite(t *testing.T) {
	fs := NewInMemoryFS()
	require.NoError(t, fs.Raw().MkdirAll("/vol/s0", 0o755))
	require.NoError(t, util.WriteFile(fs.Raw(), "/vol/attributes.json", []byte(`{"scales":[[1,1,1]]}`), 0o644))

	runSuite(t, fs, "/vol")
}

func TestOSFS_Suite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "s0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "attributes.json"), []byte(`{"scales":[[1,1,1]]}`), 0o644))

	runSuite(t, NewOSFS(), root)
}
