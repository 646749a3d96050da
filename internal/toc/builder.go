// Package toc builds the table of contents of the N5 volumes below a root
// directory: it finds attributes.json files, keeps those describing a
// multiscale volume, and derives one TocEntry per volume with viewer links.
//
// A scan is a single synchronous pass over the tree. Per-file problems are
// logged and recorded on the Report; only an unreadable root fails a scan.
package toc

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"n5toc/internal/fsys"
	"n5toc/internal/logger"
	"n5toc/internal/walker"
)

// Builder runs scans with fixed Settings. It holds no per-scan state and may
// be used from several goroutines.
type Builder struct {
	fs       fsys.FS
	settings Settings
	pattern  walker.Pattern
	log      logger.Logger
	now      func() time.Time
}

// NewBuilder compiles the walk rules of s. An invalid exclusion expression
// is reported here, once, rather than during scans.
func NewBuilder(fs fsys.FS, s Settings, log logger.Logger) (*Builder, error) {
	if fs == nil {
		return nil, errors.New("toc: nil filesystem")
	}
	if strings.TrimSpace(s.Root) == "" {
		return nil, errors.New("toc: empty root directory")
	}
	pattern, err := s.Pattern()
	if err != nil {
		return nil, fmt.Errorf("toc: %w", err)
	}
	s.Root = filepath.Clean(s.Root)
	s.ExcludeDirs = append([]string(nil), s.ExcludeDirs...)
	return &Builder{
		fs:       fs,
		settings: s,
		pattern:  pattern,
		log:      logger.OrNop(log),
		now:      time.Now,
	}, nil
}

// BuildVolumeIndex scans the root and returns the entries keyed by path
// relative to the root.
func (b *Builder) BuildVolumeIndex() (map[string]TocEntry, error) {
	report, err := b.Scan()
	if err != nil {
		return nil, err
	}
	return report.Entries, nil
}

// Scan walks the root once and returns the full report.
func (b *Builder) Scan() (*Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		Root:      b.settings.Root,
		StartedAt: b.now(),
		Entries:   make(map[string]TocEntry),
		Issues:    []Issue{},
	}

	paths, err := walker.Walk(b.fs, b.settings.Root, b.pattern, b.log)
	if err != nil {
		return nil, err
	}
	report.Candidates = len(paths)

	volumes := b.findVolumes(paths, report)
	for _, v := range volumes {
		offset, ok, err := v.attrs.Offset()
		if err != nil {
			b.log.Warnf("%s: %v; treating offset as missing", v.rel, err)
			report.addIssue(v.rel, IssueOffset, err)
		}
		var off *Offset
		if ok {
			off = &offset
		}

		entry, err := NewEntry(v.rel, off, b.settings)
		if err != nil && off != nil && !errors.Is(err, ErrMalformedLayout) {
			b.log.Warnf("%s: %v; treating offset as missing", v.rel, err)
			report.addIssue(v.rel, IssueOffset, err)
			entry, err = NewEntry(v.rel, nil, b.settings)
		}
		if err != nil {
			kind := IssueLayout
			if !errors.Is(err, ErrMalformedLayout) {
				kind = IssueLink
			}
			b.log.Warnf("skipping %s: %v", v.rel, err)
			report.addIssue(v.rel, kind, err)
			continue
		}
		report.Entries[v.rel] = entry
	}

	report.FinishedAt = b.now()
	b.log.Infof("scan %s: %d volumes from %d candidates under %s (%d issues, %s)",
		report.ID, len(report.Entries), report.Candidates, report.Root,
		len(report.Issues), report.Duration().Round(time.Millisecond))
	return report, nil
}

type volume struct {
	rel   string
	attrs VolumeAttributes
}

// findVolumes reads and parses every candidate, keeping those with a
// "scales" key. Order follows paths.
func (b *Builder) findVolumes(paths []string, report *Report) []volume {
	volumes := make([]volume, 0, len(paths))
	for _, p := range paths {
		rel := b.relative(p)

		data, err := b.fs.ReadFile(p)
		if err != nil {
			b.log.Warnf("skipping unreadable %s: %v", p, err)
			report.addIssue(rel, IssueRead, err)
			continue
		}

		attrs, err := ParseAttributes(data)
		if errors.Is(err, ErrNotObject) {
			b.log.Debugf("ignoring %s: %v", p, err)
			report.NonVolumes++
			continue
		}
		if err != nil {
			b.log.Warnf("skipping %s: %v", p, err)
			report.addIssue(rel, IssueParse, err)
			continue
		}

		if !attrs.IsVolume() {
			b.log.Debugf("ignoring %s: no %q key", p, scalesKey)
			report.NonVolumes++
			continue
		}
		volumes = append(volumes, volume{rel: rel, attrs: attrs})
	}
	return volumes
}

// relative strips the "root/" prefix from p.
func (b *Builder) relative(p string) string {
	prefix := b.settings.Root
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.TrimPrefix(p, prefix)
}
