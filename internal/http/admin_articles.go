package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

func (s *Server) handleAdminArticles(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntityArticles, r.URL.Query())
	page, err := s.Store.ListArticles(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_articles", "Articles", newListing(r.URL.Path, core.EntityArticles, q, page))
}

func (s *Server) renderArticleForm(w http.ResponseWriter, r *http.Request, status int, a *pkg.Article, f core.ArticleForm, errs core.ValidationErrors) {
	v := formView{Action: listPath(core.EntityArticles), Form: f, Errors: errs}
	title := "New article"
	if a != nil {
		v.Action += "/" + a.ID
		v.Record = a
		title = "Edit article"
	}
	s.render(w, r, status, "article_form", title, v)
}

func (s *Server) handleNewArticle(w http.ResponseWriter, r *http.Request) {
	s.renderArticleForm(w, r, http.StatusOK, nil, core.ArticleForm{}, nil)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	var f core.ArticleForm
	if err := decodeForm(w, r, &f); err != nil {
		s.formError(w, r, err)
		return err
	}
	errs := f.Validate()
	img, msg := formImage(r)
	defer img.Close()
	if msg != "" {
		errs["image"] = msg
	}
	if errs.Any() {
		s.renderArticleForm(w, r, http.StatusUnprocessableEntity, nil, f, errs)
		return errs
	}

	now := s.now().UTC()
	a := &pkg.Article{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if u := currentUser(r); u != nil {
		a.AuthorID = u.ID
	}
	f.Apply(a)
	if a.Excerpt == "" {
		a.Excerpt = s.Summarizer.Excerpt(ctx, a.Body)
	}
	if img != nil {
		key, err := s.storeImage(ctx, "articles", img)
		if err != nil {
			s.serverError(w, r, err)
			return err
		}
		a.ImagePath = key
	}
	if err := s.Store.CreateArticle(ctx, a); err != nil {
		s.discardImage(ctx, a.ImagePath)
		s.serverError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntityArticles, a.ID)
	http.Redirect(w, r, listPath(core.EntityArticles), http.StatusSeeOther)
	return nil
}

func (s *Server) handleEditArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.Store.GetArticle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.renderArticleForm(w, r, http.StatusOK, a, core.ArticleFormFrom(a), nil)
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	a, err := s.Store.GetArticle(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	var f core.ArticleForm
	if err := decodeForm(w, r, &f); err != nil {
		s.formError(w, r, err)
		return err
	}
	errs := f.Validate()
	img, msg := formImage(r)
	defer img.Close()
	if msg != "" {
		errs["image"] = msg
	}
	if errs.Any() {
		s.renderArticleForm(w, r, http.StatusUnprocessableEntity, a, f, errs)
		return errs
	}

	updated := *a
	f.Apply(&updated)
	updated.UpdatedAt = s.now().UTC()
	if updated.Excerpt == "" {
		updated.Excerpt = s.Summarizer.Excerpt(ctx, updated.Body)
	}
	if img != nil {
		key, err := s.storeImage(ctx, "articles", img)
		if err != nil {
			s.serverError(w, r, err)
			return err
		}
		updated.ImagePath = key
	}
	if err := s.Store.UpdateArticle(ctx, &updated); err != nil {
		if updated.ImagePath != a.ImagePath {
			s.discardImage(ctx, updated.ImagePath)
		}
		s.storeError(w, r, err)
		return err
	}
	if updated.ImagePath != a.ImagePath {
		s.discardImage(ctx, a.ImagePath)
	}
	s.notify(ctx, core.EntityArticles, a.ID)
	http.Redirect(w, r, listPath(core.EntityArticles), http.StatusSeeOther)
	return nil
}

func (s *Server) handleConfirmDeleteArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.Store.GetArticle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.renderConfirmDelete(w, r, core.EntityArticles, "article", a.Title)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if !confirmed(w, r) {
		return nil
	}
	a, err := s.Store.GetArticle(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	if err := s.Store.DeleteArticle(ctx, a.ID); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.discardImage(ctx, a.ImagePath)
	s.notify(ctx, core.EntityArticles, a.ID)
	http.Redirect(w, r, listPath(core.EntityArticles), http.StatusSeeOther)
	return nil
}

// handleToggleArticle publishes or unpublishes an article.  Nothing but the
// Published flag changes.
func (s *Server) handleToggleArticle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	a, err := s.Store.GetArticle(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	a.Published = !a.Published
	if err := s.Store.UpdateArticle(ctx, a); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntityArticles, a.ID)
	http.Redirect(w, r, safeRedirect(r.PostFormValue("back"), listPath(core.EntityArticles)), http.StatusSeeOther)
	return nil
}
