// Package data holds the files embedded into the binary.
package data

import "embed"

//go:embed templates
var Templates embed.FS
