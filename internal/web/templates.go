// Package web serves the subscriber-facing pages: registration, login,
// the notification dashboard and unsubscribe.
package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/ritwyck/too-good-to-go-terminal/internal/auth"
	"github.com/ritwyck/too-good-to-go-terminal/internal/secrets"
	"github.com/ritwyck/too-good-to-go-terminal/internal/tgtg"
	webembed "github.com/ritwyck/too-good-to-go-terminal/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
	log       *zap.Logger
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates(log *zap.Logger) (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"index.html",
		"login.html",
		"dashboard.html",
		"unsubscribe.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template), log: log}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		ts.log.Error("failed to render template", zap.String("template", name), zap.Error(err))
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB          *sql.DB
	Templates   *Templates
	JWTSecret   string
	Marketplace *tgtg.Client
	Key         *[secrets.KeySize]byte
	ServerURL   string
	Log         *zap.Logger
}
