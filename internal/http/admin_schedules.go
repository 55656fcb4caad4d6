package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

func (s *Server) handleAdminSchedules(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntitySchedules, r.URL.Query())
	page, err := s.Store.ListSchedules(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_schedules", "Doctor schedules", newListing(r.URL.Path, core.EntitySchedules, q, page))
}

func (s *Server) renderScheduleForm(w http.ResponseWriter, r *http.Request, status int, sc *pkg.Schedule, f core.ScheduleForm, errs core.ValidationErrors) {
	v := formView{Action: listPath(core.EntitySchedules), Form: f, Errors: errs, Days: core.Weekdays}
	title := "New schedule"
	if sc != nil {
		v.Action += "/" + sc.ID
		v.Record = sc
		title = "Edit schedule"
	}
	s.render(w, r, status, "schedule_form", title, v)
}

func (s *Server) handleNewSchedule(w http.ResponseWriter, r *http.Request) {
	s.renderScheduleForm(w, r, http.StatusOK, nil, core.ScheduleForm{Day: core.Weekdays[0], Available: true}, nil)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	var f core.ScheduleForm
	if err := decodeForm(w, r, &f); err != nil {
		s.formError(w, r, err)
		return err
	}
	if errs := f.Validate(); errs.Any() {
		s.renderScheduleForm(w, r, http.StatusUnprocessableEntity, nil, f, errs)
		return errs
	}
	now := s.now().UTC()
	sc := &pkg.Schedule{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	f.Apply(sc)
	if err := s.Store.CreateSchedule(ctx, sc); err != nil {
		s.serverError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntitySchedules, sc.ID)
	http.Redirect(w, r, listPath(core.EntitySchedules), http.StatusSeeOther)
	return nil
}

func (s *Server) handleEditSchedule(w http.ResponseWriter, r *http.Request) {
	sc, err := s.Store.GetSchedule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.renderScheduleForm(w, r, http.StatusOK, sc, core.ScheduleFormFrom(sc), nil)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	sc, err := s.Store.GetSchedule(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	var f core.ScheduleForm
	if err := decodeForm(w, r, &f); err != nil {
		s.formError(w, r, err)
		return err
	}
	if errs := f.Validate(); errs.Any() {
		s.renderScheduleForm(w, r, http.StatusUnprocessableEntity, sc, f, errs)
		return errs
	}
	f.Apply(sc)
	sc.UpdatedAt = s.now().UTC()
	if err := s.Store.UpdateSchedule(ctx, sc); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntitySchedules, sc.ID)
	http.Redirect(w, r, listPath(core.EntitySchedules), http.StatusSeeOther)
	return nil
}

func (s *Server) handleConfirmDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	sc, err := s.Store.GetSchedule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.renderConfirmDelete(w, r, core.EntitySchedules, "schedule", sc.DoctorName+", "+titleCase(sc.Day)+" "+sc.StartTime)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if !confirmed(w, r) {
		return nil
	}
	id := mux.Vars(r)["id"]
	if err := s.Store.DeleteSchedule(ctx, id); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntitySchedules, id)
	http.Redirect(w, r, listPath(core.EntitySchedules), http.StatusSeeOther)
	return nil
}

// handleToggleSchedule flips Available and nothing else.
func (s *Server) handleToggleSchedule(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	sc, err := s.Store.GetSchedule(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, r, err)
		return err
	}
	sc.Available = !sc.Available
	if err := s.Store.UpdateSchedule(ctx, sc); err != nil {
		s.storeError(w, r, err)
		return err
	}
	s.notify(ctx, core.EntitySchedules, sc.ID)
	http.Redirect(w, r, safeRedirect(r.PostFormValue("back"), listPath(core.EntitySchedules)), http.StatusSeeOther)
	return nil
}
