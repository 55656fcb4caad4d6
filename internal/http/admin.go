package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := s.Store.Stats(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	latest, err := s.Store.ListArticles(ctx, pkg.ListQuery{Sort: core.DefaultSort, Page: 1, PerPage: 5})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data := struct {
		Stats  pkg.DashboardStats
		Latest []pkg.Article
	}{stats, latest.Items}
	s.render(w, r, http.StatusOK, "admin_dashboard", "Dashboard", data)
}

// notify announces a content change.  Delivery failures do not undo the
// change and are only logged.
func (s *Server) notify(ctx context.Context, entity core.Entity, id string) {
	if err := s.Notifier.Notify(ctx, entity, id); err != nil {
		s.Log.WithError(err).WithField("entity", entity).WithField("id", id).Warn("change notification failed")
	}
}

// confirmDelete is the page data of the delete confirmation dialog.
type confirmDelete struct {
	Kind   string
	Name   string
	Action string
	Cancel string
}

func (s *Server) renderConfirmDelete(w http.ResponseWriter, r *http.Request, entity core.Entity, kind, name string) {
	base := "/admin/" + string(entity)
	s.render(w, r, http.StatusOK, "admin_confirm_delete", "Delete "+kind, confirmDelete{
		Kind:   kind,
		Name:   name,
		Action: base + "/" + mux.Vars(r)["id"] + "/delete",
		Cancel: base,
	})
}

// confirmed reports whether a delete form carried the explicit
// confirmation.  Without it the visitor is sent back to the dialog.
func confirmed(w http.ResponseWriter, r *http.Request) bool {
	if r.PostFormValue("confirm") == "yes" {
		return true
	}
	http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
	return false
}

func listPath(entity core.Entity) string { return "/admin/" + string(entity) }
