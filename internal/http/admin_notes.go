package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

func (s *Server) handleAdminNotes(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntityNotes, r.URL.Query())
	page, err := s.Store.ListNotes(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_notes", "Knowledge base", newListing(r.URL.Path, core.EntityNotes, q, page))
}

func (s *Server) renderNoteForm(w http.ResponseWriter, r *http.Request, status int, n *pkg.Note, f core.NoteForm, errs core.ValidationErrors) {
	v := formView{Action: listPath(core.EntityNotes), Form: f, Errors: errs}
	title := "New note"
	if n != nil {
		v.Action += "/" + n.ID
		v.Record = n
		title = "Edit note"
	}
	s.render(w, r, status, "note_form", title, v)
}

func (s *Server) handleNewNote(w http.ResponseWriter, r *http.Request) {
	s.renderNoteForm(w, r, http.StatusOK, nil, core.NoteForm{}, nil)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	var f core.NoteForm
	if err := decodeForm(w, r, &f); err != nil {
		s.formError(w, r, err)
		return err
	}
	if errs := f.Validate(); errs.Any() {
		s.renderNoteForm(w, r, http.StatusUnprocessableEntity, nil, f, errs)
		return errs
	}
	now := s.now().UTC()
	n := &pkg.Note{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	f.Apply(n)
	if err := s.Store.CreateNote(ctx, n); err != nil {
		s.serverError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntityNotes, n.ID)
	http.Redirect(w, r, listPath(core.EntityNotes), http.StatusSeeOther)
	return nil
}

func (s *Server) handleEditNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.Store.GetNote(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.renderNoteForm(w, r, http.StatusOK, n, core.NoteFormFrom(n), nil)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	n, err := s.Store.GetNote(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	var f core.NoteForm
	if err := decodeForm(w, r, &f); err != nil {
		s.formError(w, r, err)
		return err
	}
	if errs := f.Validate(); errs.Any() {
		s.renderNoteForm(w, r, http.StatusUnprocessableEntity, n, f, errs)
		return errs
	}
	f.Apply(n)
	n.UpdatedAt = s.now().UTC()
	if err := s.Store.UpdateNote(ctx, n); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntityNotes, n.ID)
	http.Redirect(w, r, listPath(core.EntityNotes), http.StatusSeeOther)
	return nil
}

func (s *Server) handleConfirmDeleteNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.Store.GetNote(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.renderConfirmDelete(w, r, core.EntityNotes, "note", n.Title)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if !confirmed(w, r) {
		return nil
	}
	id := mux.Vars(r)["id"]
	if err := s.Store.DeleteNote(ctx, id); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntityNotes, id)
	http.Redirect(w, r, listPath(core.EntityNotes), http.StatusSeeOther)
	return nil
}
