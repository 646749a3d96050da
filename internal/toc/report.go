package toc

import (
	"sort"
	"time"
)

// IssueKind classifies a per-file problem met during a scan.
type IssueKind string

const (
	// IssueRead: the file could not be read. The file is dropped.
	IssueRead IssueKind = "read"
	// IssueParse: the file is not well-formed JSON. The file is dropped.
	IssueParse IssueKind = "parse"
	// IssueLayout: the path is too shallow for a table row. The file is dropped.
	IssueLayout IssueKind = "layout"
	// IssueLink: the viewer state could not be encoded. The file is dropped.
	IssueLink IssueKind = "link"
	// IssueOffset: "translate" is malformed. The entry is kept without offset.
	IssueOffset IssueKind = "offset"
)

// IssueKinds lists every kind in display order.
var IssueKinds = []IssueKind{IssueRead, IssueParse, IssueLayout, IssueLink, IssueOffset}

// Issue is a non-fatal problem tied to one file.
type Issue struct {
	Path string    `json:"path"`
	Kind IssueKind `json:"kind"`
	Err  string    `json:"error"`
}

// Report is the outcome of one scan.
type Report struct {
	ID         string              `json:"id"`
	Root       string              `json:"root"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
	Candidates int                 `json:"candidates"`
	NonVolumes int                 `json:"nonVolumes"`
	Entries    map[string]TocEntry `json:"entries,omitempty"`
	Issues     []Issue             `json:"issues"`
}

// Duration is the wall time the scan took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SortedKeys returns the relative paths of all entries in ascending order.
func (r *Report) SortedKeys() []string {
	keys := make([]string, 0, len(r.Entries))
	for k := range r.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sorted returns the entries ordered by relative path.
func (r *Report) Sorted() []TocEntry {
	keys := r.SortedKeys()
	out := make([]TocEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.Entries[k])
	}
	return out
}

// Summary returns a copy of r without its entries.
func (r *Report) Summary() *Report {
	out := *r
	out.Entries = nil
	out.Issues = append([]Issue(nil), r.Issues...)
	return &out
}

// Count returns the number of issues of kind k.
func (r *Report) Count(k IssueKind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == k {
			n++
		}
	}
	return n
}

func (r *Report) addIssue(path string, kind IssueKind, err error) {
	r.Issues = append(r.Issues, Issue{Path: path, Kind: kind, Err: err.Error()})
}
