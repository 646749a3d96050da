package frontend

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"

	"n5toc/internal/toc"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Columns are the table headers, in display order.
var Columns = []string{"sample", "stage", "section", "version", "offset", "offset link", "link"}

// Page is the data rendered by the table of contents template.
type Page struct {
	Root    string
	Report  *toc.Report
	Entries []toc.TocEntry
	Columns []string
	Notes   template.HTML
}

// Renderer encapsulates template rendering for the web UI.
type Renderer struct {
	notesSrc string

	once     sync.Once
	initErr  error
	template *template.Template
	notes    template.HTML
}

// NewRenderer creates a Renderer. notes is Markdown displayed above the table.
func NewRenderer(notes string) *Renderer {
	return &Renderer{notesSrc: notes}
}

var funcs = template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"duration": func(d time.Duration) string {
		return d.Round(time.Millisecond).String()
	},
	"when": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}

func (r *Renderer) ensureTemplates() error {
	r.once.Do(func() {
		tpl, err := template.New("toc.html").Funcs(funcs).ParseFS(assets, "templates/toc.html")
		if err != nil {
			r.initErr = err
			return
		}
		r.template = tpl

		if r.notesSrc != "" {
			var buf bytes.Buffer
			if err := goldmark.Convert([]byte(r.notesSrc), &buf); err != nil {
				r.initErr = err
				return
			}
			r.notes = template.HTML(buf.String()) //nolint:gosec // operator-supplied configuration
		}
	})
	return r.initErr
}

// NewPage assembles the template data for a finished scan.
func (r *Renderer) NewPage(report *toc.Report) Page {
	return Page{
		Root:    report.Root,
		Report:  report,
		Entries: report.Sorted(),
		Columns: Columns,
	}
}

// RenderTOC writes the table of contents page to the response writer.
func (r *Renderer) RenderTOC(w http.ResponseWriter, page Page) error {
	if err := r.ensureTemplates(); err != nil {
		return err
	}
	page.Notes = r.notes

	// Render into a buffer so a template error does not leave a half-written page.
	var buf bytes.Buffer
	if err := r.template.ExecuteTemplate(&buf, "toc.html", page); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler returns an http.Handler that serves embedded static assets.
func (r *Renderer) StaticHandler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			http.NotFound(w, req)
		})
	}
	return http.FileServer(http.FS(sub))
}
