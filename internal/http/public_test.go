package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-portal/internal/auth"
	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

func TestDraftsAreHidden(t *testing.T) {
	e := newTestEnv(t)
	pub := e.addArticle("Vaccination campaign", true, time.Hour)
	draft := e.addArticle("Unannounced wing", false, 0)

	rec := e.getAnon("/news")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), pub.Title)
	assert.NotContains(t, rec.Body.String(), draft.Title)

	rec = e.getAnon("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), pub.Title)
	assert.NotContains(t, rec.Body.String(), draft.Title)

	rec = e.getAnon("/api/articles")
	require.Equal(t, http.StatusOK, rec.Code)
	var page pkg.Page[pkg.Article]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, pub.ID, page.Items[0].ID)
	assert.Equal(t, 1, page.Total)

	assert.Equal(t, http.StatusNotFound, e.getAnon("/news/"+draft.Slug).Code)
	assert.Equal(t, http.StatusOK, e.get("/news/"+draft.Slug).Code, "signed-in users preview drafts")
	assert.Equal(t, http.StatusNotFound, e.getAnon("/news/no-such-article").Code)
}

func TestPublicListsShowAvailableOnly(t *testing.T) {
	e := newTestEnv(t)
	e.addMedicine("Paracetamol", true)
	e.addMedicine("Morphine", false)

	rec := e.getAnon("/medicines?search=ol")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Paracetamol")
	assert.NotContains(t, body, "Morphine")

	rec = e.getAnon("/api/medicines")
	var page pkg.Page[pkg.Medicine]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Paracetamol", page.Items[0].Name)
}

func TestHomeShowsTodaysDoctors(t *testing.T) {
	e := newTestEnv(t)
	monday := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	e.srv.now = func() time.Time { return monday }

	ctx := context.Background()
	require.NoError(t, e.store.CreateSchedule(ctx, &pkg.Schedule{ID: "s1", DoctorName: "Dr. Monday", Specialty: "ENT", Day: "monday", StartTime: "08:00", EndTime: "10:00", Available: true}))
	require.NoError(t, e.store.CreateSchedule(ctx, &pkg.Schedule{ID: "s2", DoctorName: "Dr. Away", Specialty: "ENT", Day: "monday", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, e.store.CreateSchedule(ctx, &pkg.Schedule{ID: "s3", DoctorName: "Dr. Tuesday", Specialty: "ENT", Day: "tuesday", StartTime: "08:00", EndTime: "10:00", Available: true}))

	body := e.getAnon("/").Body.String()
	assert.Contains(t, body, "Dr. Monday")
	assert.NotContains(t, body, "Dr. Away")
	assert.NotContains(t, body, "Dr. Tuesday")

	body = e.getAnon("/schedules").Body.String()
	assert.Contains(t, body, "Dr. Tuesday")
	assert.NotContains(t, body, "Dr. Away")
}

func TestConsent(t *testing.T) {
	e := newTestEnv(t)

	body := e.getAnon("/news").Body.String()
	assert.Contains(t, body, `id="consent-banner"`)

	req := httptest.NewRequest(http.MethodPost, "/consent", nil)
	req.Header.Set("Accept", "application/json")
	rec := e.serve(req, false)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	c := responseCookie(rec, ConsentCookie)
	require.NotNil(t, c)
	assert.Equal(t, "accepted", c.Value)

	req = httptest.NewRequest(http.MethodGet, "/news", nil)
	req.AddCookie(c)
	body = e.serve(req, false).Body.String()
	assert.NotContains(t, body, `id="consent-banner"`)

	rec = e.serve(formRequest("/consent", url.Values{"back": {"/medicines"}}), false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/medicines", rec.Header().Get("Location"))

	rec = e.serve(formRequest("/consent", url.Values{"back": {"//evil.example"}}), false)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(formRequest("/login", url.Values{"email": {"editor@example.org"}, "password": {"wrong-password"}}), false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "These credentials do not match our records.")
	assert.Nil(t, responseCookie(rec, auth.CookieName))

	rec = e.serve(formRequest("/login", url.Values{
		"email":    {"Editor@Example.org"},
		"password": {"password123"},
		"next":     {"/admin/notes"},
	}), false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/notes", rec.Header().Get("Location"))
	c := responseCookie(rec, auth.CookieName)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/admin/notes", nil)
	req.AddCookie(c)
	assert.Equal(t, http.StatusOK, e.serve(req, false).Code)
}

func registerForm(name, email, password, confirmation string) url.Values {
	return url.Values{
		"name":                  {name},
		"email":                 {email},
		"password":              {password},
		"password_confirmation": {confirmation},
	}
}

func TestRegisterFirstAccount(t *testing.T) {
	e := newEmptyEnv(t)
	ctx := context.Background()

	rec := e.getAnon("/login")
	assert.Contains(t, rec.Body.String(), `href="/register"`)
	assert.Equal(t, http.StatusOK, e.getAnon("/register").Code)

	rec = e.serve(formRequest("/register", registerForm("Ada Admin", "Ada <Ada@Example.org>", "longenough", "longenough")), false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	assert.NotNil(t, responseCookie(rec, auth.CookieName))

	u, err := e.store.GetUserByEmail(ctx, "ada@example.org")
	require.NoError(t, err)
	assert.Equal(t, pkg.RoleAdmin, u.Role)

	// Registration closes behind the first account.
	rec = e.getAnon("/register")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, e.getAnon("/login").Body.String(), `href="/register"`)
}

func TestRegisterClosedToVisitors(t *testing.T) {
	e := newTestEnv(t)

	rec := e.getAnon("/register")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.NotContains(t, e.getAnon("/login").Body.String(), `href="/register"`)

	rec = e.serve(formRequest("/register", registerForm("Mallory", "mallory@example.org", "longenough", "longenough")), false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Nil(t, responseCookie(rec, auth.CookieName))

	_, err := e.store.GetUserByEmail(context.Background(), "mallory@example.org")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRegisterByAdmin(t *testing.T) {
	e := newTestEnv(t)

	rec := e.postForm("/register", registerForm("Nora Nurse", "nora@example.org", "longenough", "different1"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match.")

	long := strings.Repeat("x", 80)
	rec = e.postForm("/register", registerForm("Nora Nurse", "nora@example.org", long, long))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password may not be longer than 72 bytes.")

	rec = e.postForm("/register", registerForm("Nora Nurse", "editor@example.org", "longenough", "longenough"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "This email is already registered.")

	// The admin keeps their own session.
	rec = e.postForm("/register", registerForm("Nora Nurse", "nora@example.org", "longenough", "longenough"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	assert.Nil(t, responseCookie(rec, auth.CookieName))

	u, err := e.store.GetUserByEmail(context.Background(), "nora@example.org")
	require.NoError(t, err)
	assert.Equal(t, pkg.RoleEditor, u.Role)
}

func TestRegisterForbiddenToEditors(t *testing.T) {
	e := newTestEnv(t)
	editor := e.signInAs("Nora Nurse", "nora@example.org", pkg.RoleEditor)

	req := httptest.NewRequest(http.MethodGet, "/register", nil)
	req.AddCookie(editor)
	assert.Equal(t, http.StatusForbidden, e.serve(req, false).Code)

	req = formRequest("/register", registerForm("Carl Clerk", "carl@example.org", "longenough", "longenough"))
	req.AddCookie(editor)
	assert.Equal(t, http.StatusForbidden, e.serve(req, false).Code)

	_, err := e.store.GetUserByEmail(context.Background(), "carl@example.org")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestVisitorFormsAreKeyedPerBrowser(t *testing.T) {
	e := newTestEnv(t)

	rec := e.getAnon("/login")
	c := responseCookie(rec, VisitorCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)

	other := uuid.NewString()
	release, err := e.srv.Forms.Begin("visitor:" + c.Value + " /login")
	require.NoError(t, err)
	defer release(nil)

	creds := url.Values{"email": {"editor@example.org"}, "password": {"password123"}}

	req := formRequest("/login", creds)
	req.AddCookie(c)
	assert.Equal(t, http.StatusConflict, e.serve(req, false).Code)

	// Another browser behind the same address is not held up.
	req = formRequest("/login", creds)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: other})
	assert.Equal(t, http.StatusSeeOther, e.serve(req, false).Code)

	req = formRequest("/login", creds)
	assert.Equal(t, http.StatusSeeOther, e.serve(req, false).Code)
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := e.serve(req, true)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	c := responseCookie(rec, auth.CookieName)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestInvalidSessionCookieIsCleared(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "forged"})
	rec := e.serve(req, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	c := responseCookie(rec, auth.CookieName)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
}

func TestUnknownPage(t *testing.T) {
	e := newTestEnv(t)

	rec := e.getAnon("/no/such/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
