package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

func (s *Server) handleAdminMedicines(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntityMedicines, r.URL.Query())
	page, err := s.Store.ListMedicines(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_medicines", "Medicines", newListing(r.URL.Path, core.EntityMedicines, q, page))
}

func (s *Server) renderMedicineForm(w http.ResponseWriter, r *http.Request, status int, m *pkg.Medicine, f core.MedicineForm, errs core.ValidationErrors) {
	v := formView{Action: listPath(core.EntityMedicines), Form: f, Errors: errs}
	title := "New medicine"
	if m != nil {
		v.Action += "/" + m.ID
		v.Record = m
		title = "Edit medicine"
	}
	s.render(w, r, status, "medicine_form", title, v)
}

func (s *Server) handleNewMedicine(w http.ResponseWriter, r *http.Request) {
	s.renderMedicineForm(w, r, http.StatusOK, nil, core.MedicineForm{Available: true}, nil)
}

func (s *Server) handleCreateMedicine(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	var f core.MedicineForm
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
		s.renderMedicineForm(w, r, http.StatusUnprocessableEntity, nil, f, errs)
		return errs
	}

	now := s.now().UTC()
	m := &pkg.Medicine{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	f.Apply(m)
	if img != nil {
		key, err := s.storeImage(ctx, "medicines", img)
		if err != nil {
			s.serverError(w, r, err)
			return err
		}
		m.ImagePath = key
	}
	if err := s.Store.CreateMedicine(ctx, m); err != nil {
		s.discardImage(ctx, m.ImagePath)
		s.serverError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntityMedicines, m.ID)
	http.Redirect(w, r, listPath(core.EntityMedicines), http.StatusSeeOther)
	return nil
}

func (s *Server) handleEditMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := s.Store.GetMedicine(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.renderMedicineForm(w, r, http.StatusOK, m, core.MedicineFormFrom(m), nil)
}

func (s *Server) handleUpdateMedicine(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	m, err := s.Store.GetMedicine(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	var f core.MedicineForm
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
		s.renderMedicineForm(w, r, http.StatusUnprocessableEntity, m, f, errs)
		return errs
	}

	updated := *m
	f.Apply(&updated)
	updated.UpdatedAt = s.now().UTC()
	if img != nil {
		key, err := s.storeImage(ctx, "medicines", img)
		if err != nil {
			s.serverError(w, r, err)
			return err
		}
		updated.ImagePath = key
	}
	if err := s.Store.UpdateMedicine(ctx, &updated); err != nil {
		if updated.ImagePath != m.ImagePath {
			s.discardImage(ctx, updated.ImagePath)
		}
		s.storeError(w, r, err)
		return err
	}
	if updated.ImagePath != m.ImagePath {
		s.discardImage(ctx, m.ImagePath)
	}
	s.notify(ctx, core.EntityMedicines, m.ID)
	http.Redirect(w, r, listPath(core.EntityMedicines), http.StatusSeeOther)
	return nil
}

func (s *Server) handleConfirmDeleteMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := s.Store.GetMedicine(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.renderConfirmDelete(w, r, core.EntityMedicines, "medicine", m.Name)
}

func (s *Server) handleDeleteMedicine(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if !confirmed(w, r) {
		return nil
	}
	m, err := s.Store.GetMedicine(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	if err := s.Store.DeleteMedicine(ctx, m.ID); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.discardImage(ctx, m.ImagePath)
	s.notify(ctx, core.EntityMedicines, m.ID)
	http.Redirect(w, r, listPath(core.EntityMedicines), http.StatusSeeOther)
	return nil
}

// handleToggleMedicine flips Available and nothing else.
func (s *Server) handleToggleMedicine(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	m, err := s.Store.GetMedicine(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	m.Available = !m.Available
	if err := s.Store.UpdateMedicine(ctx, m); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntityMedicines, m.ID)
	http.Redirect(w, r, safeRedirect(r.PostFormValue("back"), listPath(core.EntityMedicines)), http.StatusSeeOther)
	return nil
}
