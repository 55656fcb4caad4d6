// Package http serves the hospital website: the public pages, the
// back-office forms, the sign-in forms and the JSON endpoints used by the
// chat widget.
package http

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"hospital-portal/internal/auth"
	"hospital-portal/internal/core"
	"hospital-portal/internal/form"
	"hospital-portal/internal/storage"
)

// DefaultMessageCap is the number of visitor messages a chat session may
// send when Config.MessageCap is zero.
const DefaultMessageCap = 50

// Config lists the dependencies of a Server.  Store, Auth, Chat and Blobs
// are required.
type Config struct {
	Store      core.Store
	Auth       *auth.Service
	Chat       *core.ChatService
	Summarizer *core.Summarizer
	Blobs      storage.Store
	Notifier   core.ChangeNotifier
	Log        *logrus.Logger
	MessageCap int
	// SecureCookies marks the session and consent cookies Secure.
	SecureCookies bool
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Store         core.Store
	Auth          *auth.Service
	Chat          *core.ChatService
	Summarizer    *core.Summarizer
	Blobs         storage.Store
	Notifier      core.ChangeNotifier
	Forms         *form.Registry
	Log           *logrus.Logger
	MessageCap    int
	SecureCookies bool

	templates map[string]*template.Template
	router    http.Handler
	now       func() time.Time
}

// NewServer constructs a Server and parses the embedded templates.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil || cfg.Auth == nil || cfg.Chat == nil || cfg.Blobs == nil {
		return nil, errors.New("http: store, auth, chat and blob store are required")
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Server{
		Store:         cfg.Store,
		Auth:          cfg.Auth,
		Chat:          cfg.Chat,
		Summarizer:    cfg.Summarizer,
		Blobs:         cfg.Blobs,
		Notifier:      cfg.Notifier,
		Forms:         form.NewRegistry(),
		Log:           cfg.Log,
		MessageCap:    cfg.MessageCap,
		SecureCookies: cfg.SecureCookies,
		templates:     tmpl,
		now:           time.Now,
	}
	if s.Summarizer == nil {
		s.Summarizer = core.NewSummarizer(nil, cfg.Log)
	}
	if s.Notifier == nil {
		s.Notifier = core.NopNotifier{}
	}
	if s.Log == nil {
		s.Log = logrus.StandardLogger()
	}
	if s.MessageCap <= 0 {
		s.MessageCap = DefaultMessageCap
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter().StrictSlash(true)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "")
	})

	// Public site.
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/news", s.handleNews).Methods(http.MethodGet)
	r.HandleFunc("/news/{slug}", s.handleArticle).Methods(http.MethodGet)
	r.HandleFunc("/schedules", s.handleSchedules).Methods(http.MethodGet)
	r.HandleFunc("/medicines", s.handleMedicines).Methods(http.MethodGet)
	r.PathPrefix(storage.Route).HandlerFunc(s.handleStorage).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/consent", s.handleConsent).Methods(http.MethodPost)

	// Sign in.
	r.HandleFunc("/login", s.handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", s.submit(s.handleLogin)).Methods(http.MethodPost)
	r.HandleFunc("/register", s.handleRegisterPage).Methods(http.MethodGet)
	r.HandleFunc("/register", s.submit(s.handleRegister)).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	// JSON.
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/articles", s.handleArticlesAPI).Methods(http.MethodGet)
	api.HandleFunc("/medicines", s.handleMedicinesAPI).Methods(http.MethodGet)
	api.HandleFunc("/schedules", s.handleSchedulesAPI).Methods(http.MethodGet)

	// Back office.
	r.Handle("/admin", s.requireUser(http.HandlerFunc(s.handleDashboard))).Methods(http.MethodGet)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireUser)

	admin.HandleFunc("/articles", s.handleAdminArticles).Methods(http.MethodGet)
	admin.HandleFunc("/articles/new", s.handleNewArticle).Methods(http.MethodGet)
	admin.HandleFunc("/articles", s.submit(s.handleCreateArticle)).Methods(http.MethodPost)
	admin.HandleFunc("/articles/{id}/edit", s.handleEditArticle).Methods(http.MethodGet)
	admin.HandleFunc("/articles/{id}", s.submit(s.handleUpdateArticle)).Methods(http.MethodPost)
	admin.HandleFunc("/articles/{id}/delete", s.handleConfirmDeleteArticle).Methods(http.MethodGet)
	admin.HandleFunc("/articles/{id}/delete", s.submit(s.handleDeleteArticle)).Methods(http.MethodPost)
	admin.HandleFunc("/articles/{id}/toggle", s.submit(s.handleToggleArticle)).Methods(http.MethodPost)

	admin.HandleFunc("/medicines", s.handleAdminMedicines).Methods(http.MethodGet)
	admin.HandleFunc("/medicines/new", s.handleNewMedicine).Methods(http.MethodGet)
	admin.HandleFunc("/medicines", s.submit(s.handleCreateMedicine)).Methods(http.MethodPost)
	admin.HandleFunc("/medicines/{id}/edit", s.handleEditMedicine).Methods(http.MethodGet)
	admin.HandleFunc("/medicines/{id}", s.submit(s.handleUpdateMedicine)).Methods(http.MethodPost)
	admin.HandleFunc("/medicines/{id}/delete", s.handleConfirmDeleteMedicine).Methods(http.MethodGet)
	admin.HandleFunc("/medicines/{id}/delete", s.submit(s.handleDeleteMedicine)).Methods(http.MethodPost)
	admin.HandleFunc("/medicines/{id}/toggle", s.submit(s.handleToggleMedicine)).Methods(http.MethodPost)

	admin.HandleFunc("/schedules", s.handleAdminSchedules).Methods(http.MethodGet)
	admin.HandleFunc("/schedules/new", s.handleNewSchedule).Methods(http.MethodGet)
	admin.HandleFunc("/schedules", s.submit(s.handleCreateSchedule)).Methods(http.MethodPost)
	admin.HandleFunc("/schedules/{id}/edit", s.handleEditSchedule).Methods(http.MethodGet)
	admin.HandleFunc("/schedules/{id}", s.submit(s.handleUpdateSchedule)).Methods(http.MethodPost)
	admin.HandleFunc("/schedules/{id}/delete", s.handleConfirmDeleteSchedule).Methods(http.MethodGet)
	admin.HandleFunc("/schedules/{id}/delete", s.submit(s.handleDeleteSchedule)).Methods(http.MethodPost)
	admin.HandleFunc("/schedules/{id}/toggle", s.submit(s.handleToggleSchedule)).Methods(http.MethodPost)

	admin.HandleFunc("/notes", s.handleAdminNotes).Methods(http.MethodGet)
	admin.HandleFunc("/notes/new", s.handleNewNote).Methods(http.MethodGet)
	admin.HandleFunc("/notes", s.submit(s.handleCreateNote)).Methods(http.MethodPost)
	admin.HandleFunc("/notes/{id}/edit", s.handleEditNote).Methods(http.MethodGet)
	admin.HandleFunc("/notes/{id}", s.submit(s.handleUpdateNote)).Methods(http.MethodPost)
	admin.HandleFunc("/notes/{id}/delete", s.handleConfirmDeleteNote).Methods(http.MethodGet)
	admin.HandleFunc("/notes/{id}/delete", s.submit(s.handleDeleteNote)).Methods(http.MethodPost)

	r.Use(s.traceRequests, s.loadSession)
	return s.logRequests(r)
}
