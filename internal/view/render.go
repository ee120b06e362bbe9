package view

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	texttemplate "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer writes Views as HTML pages or plain text.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	h, err := htmltemplate.ParseFS(templateFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	t, err := texttemplate.ParseFS(templateFS, "templates/results.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	return &Renderer{html: h, text: t}, nil
}

// HTML renders the full lookup page.
func (r *Renderer) HTML(w io.Writer, v View) error {
	return r.html.ExecuteTemplate(w, "page.html.tmpl", v)
}

// Text renders the view for a terminal.
func (r *Renderer) Text(w io.Writer, v View) error {
	return r.text.ExecuteTemplate(w, "results.txt.tmpl", v)
}
