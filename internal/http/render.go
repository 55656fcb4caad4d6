package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hospital-portal/internal/core"
	"hospital-portal/internal/storage"
	"hospital-portal/pkg"
)

//go:embed templates
var templateFS embed.FS

var funcs = template.FuncMap{
	"storageURL": storage.URL,
	"pageURL":    core.PageURL,
	"title":      titleCase,
	"date":       func(t time.Time) string { return t.Format("2 Jan 2006") },
	"paragraphs": paragraphs,
	"excerpt":    func(s string) string { return core.Truncate(s, core.ExcerptLength) },
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// paragraphs splits a text body on blank lines.
func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseTemplates builds one template set per page: the shared layout and
// partials cloned and extended with the page's "content" block.
func parseTemplates() (map[string]*template.Template, error) {
	layout, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		out[strings.TrimSuffix(path.Base(p), ".html")] = t
	}
	return out, nil
}

// view is the data every page template receives.  Data carries the page's
// own props.
type view struct {
	Title   string
	User    *pkg.User
	Consent bool
	Path    string
	Data    interface{}
}

// render executes the named page into a buffer so that template errors
// still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	t, ok := s.templates[name]
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}
	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, "base", view{
		Title:   title,
		User:    currentUser(r),
		Consent: consented(r),
		Path:    r.URL.Path,
		Data:    data,
	})
	if err != nil {
		s.Log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	Status  int
	Text    string
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		switch status {
		case http.StatusNotFound:
			message = "The page you are looking for does not exist."
		case http.StatusInternalServerError:
			message = "Something went wrong on our side. Please try again later."
		}
	}
	s.render(w, r, status, "error", http.StatusText(status), errorPage{
		Status:  status,
		Text:    http.StatusText(status),
		Message: message,
	})
}

// serverError logs err with the request fields and shows the generic 500
// page.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("request failed")
	s.renderError(w, r, http.StatusInternalServerError, "")
}

// storeError maps core.ErrNotFound to the 404 page and anything else to a
// 500.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound, "")
		return
	}
	s.serverError(w, r, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// listing is the page data of every paginated table.
type listing struct {
	Path    string
	Query   pkg.ListQuery
	Sorts   []string
	Items   interface{}
	Total   int
	Page    int
	PrevURL string
	NextURL string
}

func newListing[T any](path string, e core.Entity, q pkg.ListQuery, p pkg.Page[T]) listing {
	l := listing{
		Path:  path,
		Query: q,
		Sorts: core.SortKeys(e),
		Items: p.Items,
		Total: p.Total,
		Page:  p.Page,
	}
	if p.HasPrev() {
		l.PrevURL = core.PageURL(path, q, p.Page-1)
	}
	if p.HasNext() {
		l.NextURL = core.PageURL(path, q, p.Page+1)
	}
	return l
}

// formView is the page data of the create and edit forms.
type formView struct {
	Action string
	// Record is the stored entity on edit pages, nil on create pages.
	Record interface{}
	Form   interface{}
	Errors core.ValidationErrors
	Days   []string
}

func (f formView) IsNew() bool { return f.Record == nil }
