package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/report.html
var templateFS embed.FS

var printer = message.NewPrinter(language.English)

var funcs = template.FuncMap{
	"money": func(v float64) string { return printer.Sprintf("₹%.2f", v) },
	"count": func(v any) string { return printer.Sprintf("%d", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%+.1f%%", v) },
	"inc":   func(i int) int { return i + 1 },
}

// Template renders a report Context to HTML.
type Template struct {
	tmpl *template.Template
}

// NewTemplate parses the embedded report template.
func NewTemplate() (*Template, error) {
	t, err := template.New("report.html").Funcs(funcs).ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Template{tmpl: t}, nil
}

// Render executes the template.
func (t *Template) Render(c Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, c); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
