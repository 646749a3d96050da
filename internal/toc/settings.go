package toc

import (
	"n5toc/internal/neuroglancer"
	"n5toc/internal/walker"
)

// Settings is the immutable input of a scan. It is built once from the
// process configuration and handed to NewBuilder.
type Settings struct {
	// Root is the absolute directory searched for volumes.
	Root string
	// ExcludeDirs are extra directory-name expressions pruned from the walk.
	ExcludeDirs []string
	// N5Server is the base URL of the file server exposing Root.
	N5Server string
	// ViewerHost is the base URL links are built against.
	ViewerHost string
	// Dimensions is the coordinate space written into every viewer state.
	Dimensions neuroglancer.Dimensions
}

// attributesExt is the extension of N5 metadata files.
const attributesExt = ".json"

// blockDirExprs name the directories that only ever hold chunk data: scale
// levels (s0, s1, ...) and the numeric block grid below them.
var blockDirExprs = []string{`s[0-9]+`, `[0-9]+`}

// Pattern compiles the walk rules for s: every ".json" file, pruning block
// directories and the configured exclusions.
func (s Settings) Pattern() (walker.Pattern, error) {
	skip := make([]string, 0, len(blockDirExprs)+len(s.ExcludeDirs))
	skip = append(skip, blockDirExprs...)
	skip = append(skip, s.ExcludeDirs...)
	return walker.Compile(walker.ExtensionExprs(attributesExt), skip)
}
