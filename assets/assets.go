// Package assets embeds the static files the backend needs at runtime.
package assets

import "embed"

// FS holds the email templates & the common passwords list.
// "all:" keeps the "_base" layouts, which a plain directory embed skips.
//
//go:embed all:templates common-passwords.txt.gz
var FS embed.FS

const (
	EmailTemplatesDir   = "templates/email"
	CommonPasswordsPath = "common-passwords.txt.gz"
)
