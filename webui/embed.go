// Package webui exposes the embedded dashboard filesystem. It lives at the
// module root so go:embed can reach the web/ directory;
// internal/server/embed.go serves from it.
package webui

import "embed"

// FS is the embedded web directory tree.
//
//go:embed web
var FS embed.FS
