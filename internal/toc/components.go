package toc

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrMalformedLayout is matched by errors.Is for every *LayoutError.
var ErrMalformedLayout = errors.New("malformed volume layout")

// minSegments is sample/stage/section/version directories plus the file itself.
const minSegments = 5

// LayoutError reports a metadata file whose relative path is too shallow to
// carry sample, stage, section and version directories.
type LayoutError struct {
	Path     string
	Segments int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%s: path has %d segments, want at least %d (sample/stage/section/version/file)",
		e.Path, e.Segments, minSegments)
}

// Unwrap lets errors.Is match ErrMalformedLayout.
func (e *LayoutError) Unwrap() error {
	return ErrMalformedLayout
}

// PathComponents are the identifiers encoded in a volume's relative path
// .../{sample}/{stage}/{section}/{fullVersion}/{file}.
type PathComponents struct {
	Sample      string
	Stage       string
	Section     string
	FullVersion string
	Version     string
	File        string
}

// SplitComponents reads the last five segments of rel positionally.
// Version is FullVersion up to its first underscore.
func SplitComponents(rel string) (PathComponents, error) {
	parts := segments(rel)
	if len(parts) < minSegments {
		return PathComponents{}, &LayoutError{Path: rel, Segments: len(parts)}
	}

	tail := parts[len(parts)-minSegments:]
	c := PathComponents{
		Sample:      tail[0],
		Stage:       tail[1],
		Section:     tail[2],
		FullVersion: tail[3],
		File:        tail[4],
	}
	c.Version, _, _ = strings.Cut(c.FullVersion, "_")
	return c, nil
}

// segments splits a slash path, dropping empty and "." segments.
func segments(p string) []string {
	raw := strings.Split(filepath.ToSlash(p), "/")
	out := raw[:0]
	for _, s := range raw {
		if s == "" || s == "." {
			continue
		}
		out = append(out, s)
	}
	return out
}
