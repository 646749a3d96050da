// Package fsys adapts go-billy filesystems to the read-only surface the
// volume scanner needs: shallow directory listings and whole-file reads.
package fsys

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FS is the filesystem collaborator of the walker and the record builder.
type FS interface {
	// ReadDir lists the immediate children of dirname without following
	// symbolic links.
	ReadDir(dirname string) ([]os.FileInfo, error)
	// ReadFile returns the whole content of path.
	ReadFile(path string) ([]byte, error)
	// Stat describes path, following symbolic links.
	Stat(path string) (os.FileInfo, error)
}

// BillyFS implements FS on top of a go-billy filesystem.
type BillyFS struct {
	fs billy.Filesystem
}

// NewFS wraps an existing go-billy filesystem.
func NewFS(fsys billy.Filesystem) *BillyFS {
	return &BillyFS{fs: fsys}
}

// NewOSFS returns the host filesystem, rooted at "/" so absolute paths resolve as-is.
func NewOSFS() *BillyFS {
	return NewFS(osfs.New("/"))
}

// NewInMemoryFS returns an empty in-memory filesystem.
func NewInMemoryFS() *BillyFS {
	return NewFS(memfs.New())
}

// ReadDir implements FS.ReadDir.
func (b *BillyFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	list, err := b.fs.ReadDir(dirname)
	if err != nil {
		return nil, fmt.Errorf("billy: readdir %q: %w", dirname, err)
	}
	return list, nil
}

// ReadFile implements FS.ReadFile.
func (b *BillyFS) ReadFile(path string) ([]byte, error) {
	bts, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("billy: readfile %q: %w", path, err)
	}
	return bts, nil
}

// Stat implements FS.Stat.
func (b *BillyFS) Stat(path string) (os.FileInfo, error) {
	info, err := b.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("billy: stat %q: %w", path, err)
	}
	return info, nil
}

// Raw returns the underlying go-billy filesystem, e.g. to seed test fixtures.
//
//nolint:ireturn // exposes the adapter target.
func (b *BillyFS) Raw() billy.Filesystem {
	return b.fs
}
