package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderTemplate executes a template into a buffer first so a failing
// template never leaves a half-written page
func (a *App) renderTemplate(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.log.Error("template %s: %v (data %T)", name, err, data)
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		a.log.Warn("writing %s response: %v", name, err)
	}
}

// renderHelp converts the embedded help text to HTML once at startup
func renderHelp() (template.HTML, error) {
	md, err := embeddedFiles.ReadFile("help.md")
	if err != nil {
		return "", fmt.Errorf("failed to read help: %w", err)
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return template.HTML(markdown.ToHTML(md, p, r)), nil
}
