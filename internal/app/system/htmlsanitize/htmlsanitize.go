// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans strings that arrive from the directory
// service before they are stored or embedded in notification bodies.
// Directory payloads are external input; project and user names must
// never smuggle markup into anything we render or schedule.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps safe user-generated HTML (formatting, links) and strips
// scripts, event handlers, and javascript: URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugcPolicy.Sanitize(s)
}

// Text strips all markup, returning plain text. Used for display names
// and project names that end up in notification titles and bodies.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
