// Package specs embeds the built-in base conformance resources used by
// the default-profile provider: core StructureDefinitions plus the
// terminology they bind. Operator-supplied profile packages layer on top
// of these and always take precedence.
package specs

import (
	"embed"
	"io/fs"
)

//go:embed base/*.json
var baseFS embed.FS

// Base returns the embedded base definitions as a file system rooted at
// the JSON files.
func Base() fs.FS {
	sub, err := fs.Sub(baseFS, "base")
	if err != nil {
		// The base directory is embedded at build time.
		panic(err)
	}
	return sub
}
