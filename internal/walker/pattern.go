package walker

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern holds the compiled name rules of a walk. A file is kept when its
// base name fully matches one of the file expressions; a directory is pruned
// when its base name fully matches one of the skip expressions.
//
// A Pattern is immutable once compiled and may be shared between walks.
type Pattern struct {
	file *regexp.Regexp // nil: every file passes
	skip *regexp.Regexp // nil: no directory is pruned
}

// Compile builds a Pattern. Empty expression lists disable the corresponding filter.
func Compile(fileExprs, skipExprs []string) (Pattern, error) {
	file, err := compileFull(fileExprs)
	if err != nil {
		return Pattern{}, fmt.Errorf("file pattern: %w", err)
	}
	skip, err := compileFull(skipExprs)
	if err != nil {
		return Pattern{}, fmt.Errorf("skip pattern: %w", err)
	}
	return Pattern{file: file, skip: skip}, nil
}

// compileFull joins exprs into one alternation anchored at both ends, so a
// name must match an expression in full.
func compileFull(exprs []string) (*regexp.Regexp, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	groups := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		// Each expression is checked on its own first so the error names it.
		if _, err := regexp.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile %q: %w", expr, err)
		}
		groups = append(groups, "(?:"+expr+")")
	}
	return regexp.Compile("^(?:" + strings.Join(groups, "|") + ")$")
}

// MatchFile reports whether a file with the given base name is yielded.
func (p Pattern) MatchFile(name string) bool {
	return p.file == nil || p.file.MatchString(name)
}

// SkipDir reports whether a directory with the given base name is pruned.
func (p Pattern) SkipDir(name string) bool {
	return p.skip != nil && p.skip.MatchString(name)
}

// ExtensionExpr converts a file extension such as ".json" or "tar.gz" into a
// file expression matching names that end in that extension.
func ExtensionExpr(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return `.*\.` + regexp.QuoteMeta(ext)
}

// ExtensionExprs applies ExtensionExpr to every extension.
func ExtensionExprs(exts ...string) []string {
	exprs := make([]string, 0, len(exts))
	for _, ext := range exts {
		exprs = append(exprs, ExtensionExpr(ext))
	}
	return exprs
}
