package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"hospital-portal/internal/core"
	"hospital-portal/internal/storage"
	"hospital-portal/pkg"
)

// consentMaxAge keeps the consent cookie for a year.
const consentMaxAge = 365 * 24 * 60 * 60

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	news, err := s.Store.ListArticles(ctx, pkg.ListQuery{Sort: core.DefaultSort, Page: 1, PerPage: 3, OnlyVisible: true})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	week, err := s.Store.ListSchedules(ctx, pkg.ListQuery{Sort: "day", OnlyVisible: true})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	today := strings.ToLower(s.now().Weekday().String())
	var todays []pkg.Schedule
	for _, sc := range week.Items {
		if sc.Day == today {
			todays = append(todays, sc)
		}
	}
	data := struct {
		News      []pkg.Article
		Today     string
		Schedules []pkg.Schedule
	}{news.Items, today, todays}
	s.render(w, r, http.StatusOK, "home", "Welcome", data)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntityArticles, r.URL.Query())
	q.OnlyVisible = true
	page, err := s.Store.ListArticles(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "news_index", "News", newListing(r.URL.Path, core.EntityArticles, q, page))
}

// handleArticle shows a published article.  Signed-in users may also
// preview drafts.
func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.Store.GetArticleBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if !a.Published && currentUser(r) == nil {
		s.renderError(w, r, http.StatusNotFound, "")
		return
	}
	s.render(w, r, http.StatusOK, "news_show", a.Title, a)
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntitySchedules, r.URL.Query())
	q.OnlyVisible = true
	page, err := s.Store.ListSchedules(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "schedules", "Doctor schedules", newListing(r.URL.Path, core.EntitySchedules, q, page))
}

func (s *Server) handleMedicines(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntityMedicines, r.URL.Query())
	q.OnlyVisible = true
	page, err := s.Store.ListMedicines(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "medicines", "Medicines", newListing(r.URL.Path, core.EntityMedicines, q, page))
}

// handleStorage serves an uploaded object.
func (s *Server) handleStorage(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, storage.Route)
	body, header, err := s.Blobs.Get(r.Context(), key)
	if errors.Is(err, storage.ErrNoObject) || errors.Is(err, storage.ErrInvalidKey) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	defer body.Close()
	for k, v := range header {
		w.Header()[k] = v
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		s.Log.WithError(err).WithField("key", key).Debug("storage copy interrupted")
	}
}

// handleConsent records the cookie banner acknowledgment.  Script callers
// asking for JSON get 204; plain form posts go back where they came from.
func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     ConsentCookie,
		Value:    "accepted",
		Path:     "/",
		MaxAge:   consentMaxAge,
		Expires:  s.now().Add(consentMaxAge * time.Second),
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, safeRedirect(r.PostFormValue("back"), "/"), http.StatusSeeOther)
}
