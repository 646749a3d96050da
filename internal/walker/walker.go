// Package walker finds files in a directory tree while pruning whole
// subtrees by directory name.
//
// The tree is listed one directory at a time; a directory whose name matches
// a skip expression is never listed, which keeps scans of N5 containers away
// from the per-scale block directories (s0, s1, ...) holding thousands of
// entries. The root itself is always listed, whatever its name.
package walker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"n5toc/internal/fsys"
	"n5toc/internal/logger"
)

// ErrRootUnreadable is returned when the root directory cannot be listed.
var ErrRootUnreadable = errors.New("root directory unreadable")

// Walk returns the files below root whose names match p. Paths are built as
// root + "/" + relative path and returned sorted.
//
// Subdirectories that cannot be listed contribute nothing. Symbolic links to
// directories are neither yielded nor followed, as with find(1) without -L:
// a volume reachable only through such a link is not found. Links to files
// are treated as the files they point to.
func Walk(fs fsys.FS, root string, p Pattern, log logger.Logger) ([]string, error) {
	root = filepath.Clean(root)
	entries, err := fs.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootUnreadable, root, err)
	}

	w := &walk{fs: fs, pattern: p, log: logger.OrNop(log)}
	w.log.Tracef("searching %s", root)
	w.visit(root, entries)

	sort.Strings(w.found)
	return w.found, nil
}

type walk struct {
	fs      fsys.FS
	pattern Pattern
	log     logger.Logger
	found   []string
}

func (w *walk) dir(dir string) {
	w.log.Tracef("searching %s", dir)
	entries, err := w.fs.ReadDir(dir)
	if err != nil {
		w.log.Debugf("skipping unreadable directory %s: %v", dir, err)
		return
	}
	w.visit(dir, entries)
}

func (w *walk) visit(dir string, entries []os.FileInfo) {
	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)

		isDir := entry.IsDir()
		if entry.Mode()&os.ModeSymlink != 0 {
			target, err := w.fs.Stat(full)
			if err != nil {
				w.log.Debugf("skipping dangling link %s: %v", full, err)
				continue
			}
			if target.IsDir() {
				continue
			}
			isDir = false
		}

		if isDir {
			if w.pattern.SkipDir(name) {
				continue
			}
			subdirs = append(subdirs, full)
			continue
		}

		if w.pattern.MatchFile(name) {
			w.found = append(w.found, full)
		}
	}

	for _, sub := range subdirs {
		w.dir(sub)
	}
}
