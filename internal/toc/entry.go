package toc

import (
	"fmt"
	"path"
	"path/filepath"

	"n5toc/internal/neuroglancer"
)

// OffsetMissing is the offset column value for volumes without "translate".
const OffsetMissing = "OFFSET-MISSING"

const (
	offsetLayerSuffix   = "-bdv-offset"
	noOffsetLayerSuffix = "-NO-OFFSET"
)

// TocEntry is one row of the table of contents.
type TocEntry struct {
	Path        string `json:"path"`
	Sample      string `json:"sample"`
	Stage       string `json:"stage"`
	Section     string `json:"section"`
	Version     string `json:"version"`
	FullVersion string `json:"fullVersion"`
	Name        string `json:"name"`
	Offset      string `json:"offset"`
	OffsetLink  string `json:"offsetLink,omitempty"`
	Link        string `json:"link"`
}

// HasOffset reports whether the entry carries a real offset.
func (e TocEntry) HasOffset() bool {
	return e.OffsetLink != ""
}

// NewEntry derives the table row for the volume whose attributes live at rel
// (relative to the scan root). offset is nil for volumes without a
// translation. The error is a *LayoutError when rel is too shallow.
func NewEntry(rel string, offset *Offset, s Settings) (TocEntry, error) {
	comps, err := SplitComponents(rel)
	if err != nil {
		return TocEntry{}, err
	}

	entry := TocEntry{
		Path:        rel,
		Sample:      comps.Sample,
		Stage:       comps.Stage,
		Section:     comps.Section,
		Version:     comps.Version,
		FullVersion: comps.FullVersion,
		Name:        fmt.Sprintf("%s-%s-%s", comps.Stage, comps.Section, comps.Version),
		Offset:      OffsetMissing,
	}

	base := neuroglancer.NewImageState(entry.Name, neuroglancer.N5Source(s.N5Server, path.Dir(filepath.ToSlash(rel))), s.Dimensions)

	entry.Link, err = base.WithLayerName(entry.Name + noOffsetLayerSuffix).Link(s.ViewerHost)
	if err != nil {
		return TocEntry{}, fmt.Errorf("%s: build link: %w", rel, err)
	}

	if offset == nil {
		return entry, nil
	}

	withOffset := base.
		WithLayerName(entry.Name + offsetLayerSuffix).
		WithTransform(neuroglancer.Translation(offset.Values, s.Dimensions))
	entry.OffsetLink, err = withOffset.Link(s.ViewerHost)
	if err != nil {
		return TocEntry{}, fmt.Errorf("%s: build offset link: %w", rel, err)
	}
	entry.Offset = offset.String()
	return entry, nil
}
