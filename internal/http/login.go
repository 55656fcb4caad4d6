package http

import (
	"errors"
	"net/http"

	"hospital-portal/internal/auth"
	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

type loginView struct {
	Form   core.LoginForm
	Errors core.ValidationErrors
	Next   string
	// CanRegister shows the register link while no account exists.
	CanRegister bool
}

type registerView struct {
	Form   core.RegisterForm
	Errors core.ValidationErrors
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.visitorCookie(w, r)
	s.render(w, r, http.StatusOK, "login", "Log in", loginView{Next: r.URL.Query().Get("next"), CanRegister: s.registrationOpen(r)})
}

// registrationOpen reports whether anonymous registration is possible.
// Lookup failures are logged and count as closed.
func (s *Server) registrationOpen(r *http.Request) bool {
	open, err := s.Auth.RegistrationOpen(r.Context())
	if err != nil {
		s.Log.WithError(err).Warn("count users failed")
		return false
	}
	return open
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	var f core.LoginForm
	if err := decodeForm(w, r, &f); err != nil {
		s.formError(w, r, err)
		return err
	}
	next := r.PostFormValue("next")
	u, err := s.Auth.Authenticate(ctx, f)
	var verrs core.ValidationErrors
	switch {
	case errors.As(err, &verrs):
	case errors.Is(err, auth.ErrInvalidCredentials):
		verrs = core.ValidationErrors{"email": "These credentials do not match our records."}
	case err != nil:
		s.serverError(w, r, err)
		return err
	}
	if verrs.Any() {
		f.Password = ""
		s.render(w, r, http.StatusUnprocessableEntity, "login", "Log in", loginView{Form: f, Errors: verrs, Next: next, CanRegister: s.registrationOpen(r)})
		return verrs
	}
	if err := s.signIn(w, u); err != nil {
		s.serverError(w, r, err)
		return err
	}
	s.Log.WithField("user", u.ID).Info("user signed in")
	http.Redirect(w, r, safeRedirect(next, "/admin"), http.StatusSeeOther)
	return nil
}

// handleRegisterPage shows the registration form to admins, and to anyone
// while no account exists yet.
func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if !s.mayRegister(w, r) {
		return
	}
	s.visitorCookie(w, r)
	s.render(w, r, http.StatusOK, "register", "Register", registerView{})
}

// mayRegister answers the request itself and returns false when the client
// may not register accounts: anonymous visitors go to the login page once
// the first account exists, signed-in non-admins get 403.
func (s *Server) mayRegister(w http.ResponseWriter, r *http.Request) bool {
	if u := currentUser(r); u != nil {
		if u.Role != pkg.RoleAdmin {
			s.renderError(w, r, http.StatusForbidden, "Only administrators can register new users.")
			return false
		}
		return true
	}
	open, err := s.Auth.RegistrationOpen(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return false
	}
	if !open {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return false
	}
	return true
}

// handleRegister creates an account.  The first account is created by an
// anonymous visitor, who is then signed in as that admin; every later one
// is created by a signed-in admin, who keeps their own session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if !s.mayRegister(w, r) {
		return nil
	}
	var f core.RegisterForm
	if err := decodeForm(w, r, &f); err != nil {
		s.formError(w, r, err)
		return err
	}
	by := currentUser(r)
	u, err := s.Auth.Register(ctx, f, by)
	var verrs core.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		f.Password, f.PasswordConfirmation = "", ""
		s.render(w, r, http.StatusUnprocessableEntity, "register", "Register", registerView{Form: f, Errors: verrs})
		return verrs
	case errors.Is(err, auth.ErrRegistrationClosed):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return err
	case errors.Is(err, auth.ErrForbidden):
		s.renderError(w, r, http.StatusForbidden, "Only administrators can register new users.")
		return err
	case err != nil:
		s.serverError(w, r, err)
		return err
	}
	s.Log.WithField("user", u.ID).WithField("role", u.Role).Info("user registered")
	if by == nil {
		if err := s.signIn(w, u); err != nil {
			s.serverError(w, r, err)
			return err
		}
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
	return nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) signIn(w http.ResponseWriter, u *pkg.User) error {
	token, err := s.Auth.Tokens.Issue(u)
	if err != nil {
		return err
	}
	s.setSessionCookie(w, token)
	return nil
}
