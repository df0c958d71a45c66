// Package web holds the htmx page, its partials and the static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS

// Templates parses the page and every partial it defines.
func Templates() (*template.Template, error) {
	return template.ParseFS(TemplatesFS, "templates/*.html")
}

// Static returns the asset tree rooted at static/.
func Static() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}
