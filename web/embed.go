// Package web embeds the static monitoring dashboard for single-binary
// distribution.
package web

import "embed"

// Assets contains the dashboard page and its supporting files.
//
//go:embed static
var Assets embed.FS
