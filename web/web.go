// Package web holds the HTML templates and static assets, compiled into the
// binary so the client runs from any working directory.
package web

import "embed"

// Templates holds templates/*.html. Every page is parsed together with
// base.html, which defines the "base" layout and calls {{template "content" .}}.
//
//go:embed templates/*.html
var Templates embed.FS

// Static holds static/ (served under /static/).
//
//go:embed static
var Static embed.FS
