package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"hospital-portal/internal/auth"
	"hospital-portal/internal/core"
	"hospital-portal/internal/llm"
	"hospital-portal/internal/memstore"
	"hospital-portal/internal/storage"
	"hospital-portal/pkg"
)

// pngHeader is enough of a PNG file for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// fakeModel answers every chat with reply or err and counts the calls.
type fakeModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeModel) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

func (f *fakeModel) Summarize(ctx context.Context, instruction, text string) (string, error) {
	return "", errors.New("summaries are not available")
}

func (f *fakeModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingStore counts the update calls reaching the store.
type countingStore struct {
	core.Store
	mu      sync.Mutex
	updates int
}

func (c *countingStore) UpdateArticle(ctx context.Context, a *pkg.Article) error {
	c.inc()
	return c.Store.UpdateArticle(ctx, a)
}

func (c *countingStore) UpdateMedicine(ctx context.Context, m *pkg.Medicine) error {
	c.inc()
	return c.Store.UpdateMedicine(ctx, m)
}

func (c *countingStore) UpdateSchedule(ctx context.Context, s *pkg.Schedule) error {
	c.inc()
	return c.Store.UpdateSchedule(ctx, s)
}

func (c *countingStore) inc() {
	c.mu.Lock()
	c.updates++
	c.mu.Unlock()
}

func (c *countingStore) Updates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates
}

type testEnv struct {
	t      *testing.T
	srv    *Server
	store  *memstore.Store
	blobs  *storage.Memory
	model  *fakeModel
	user   *pkg.User
	cookie *http.Cookie
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	e := newEmptyEnv(t, opts...)

	u, err := e.srv.Auth.CreateUser(context.Background(), "Edith Editor", "editor@example.org", "password123", pkg.RoleAdmin)
	require.NoError(t, err)
	token, err := e.srv.Auth.Tokens.Issue(u)
	require.NoError(t, err)
	e.user = u
	e.cookie = &http.Cookie{Name: auth.CookieName, Value: token}
	return e
}

// newEmptyEnv is a test environment without any accounts.  serve with
// signedIn set must not be used on it.
func newEmptyEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	store, err := memstore.New()
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	model := &fakeModel{reply: "Hello from the assistant."}
	blobs := storage.NewMemory()

	cfg := Config{
		Store: store,
		Auth:  auth.NewService(store, auth.NewTokens("test-secret", time.Hour)),
		Chat:  core.NewChatService(model, store, log),
		Blobs: blobs,
		Log:   log,
	}
	for _, o := range opts {
		o(&cfg)
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	return &testEnv{t: t, srv: srv, store: store, blobs: blobs, model: model}
}

// signInAs returns a session cookie for a new account with the given role.
func (e *testEnv) signInAs(name, email string, role pkg.Role) *http.Cookie {
	e.t.Helper()
	u, err := e.srv.Auth.CreateUser(context.Background(), name, email, "password123", role)
	require.NoError(e.t, err)
	token, err := e.srv.Auth.Tokens.Issue(u)
	require.NoError(e.t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

// serve runs req, signed in as the test user when signedIn is set.
func (e *testEnv) serve(req *http.Request, signedIn bool) *httptest.ResponseRecorder {
	if signedIn {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.serve(httptest.NewRequest(http.MethodGet, path, nil), true)
}

func (e *testEnv) getAnon(path string) *httptest.ResponseRecorder {
	return e.serve(httptest.NewRequest(http.MethodGet, path, nil), false)
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return e.serve(formRequest(path, form), true)
}

// postMultipart sends fields plus an optional image file.
func (e *testEnv) postMultipart(path string, fields url.Values, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(e.t, mw.WriteField(k, v))
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile(ImageField, filename)
		require.NoError(e.t, err)
		_, err = fw.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.serve(req, true)
}

func (e *testEnv) addArticle(title string, published bool, age time.Duration) *pkg.Article {
	e.t.Helper()
	now := time.Now().UTC().Add(-age)
	a := &pkg.Article{
		ID:        "a-" + core.Slugify(title),
		Title:     title,
		Category:  "news",
		Excerpt:   "About " + title,
		Body:      "Body of " + title,
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.Slug = core.ArticleSlug(a.Title, a.ID)
	require.NoError(e.t, e.store.CreateArticle(context.Background(), a))
	return a
}

func (e *testEnv) addMedicine(name string, available bool) *pkg.Medicine {
	e.t.Helper()
	now := time.Now().UTC()
	m := &pkg.Medicine{
		ID:          "m-" + core.Slugify(name),
		Name:        name,
		Category:    "analgesic",
		Dosage:      "500 mg",
		Description: "Take with water.",
		Available:   available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(e.t, e.store.CreateMedicine(context.Background(), m))
	return m
}

func (e *testEnv) addNote(title string, age time.Duration) *pkg.Note {
	e.t.Helper()
	now := time.Now().UTC().Add(-age)
	n := &pkg.Note{ID: "n-" + core.Slugify(title), Title: title, Content: "Content of " + title, CreatedAt: now, UpdatedAt: now}
	require.NoError(e.t, e.store.CreateNote(context.Background(), n))
	return n
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
