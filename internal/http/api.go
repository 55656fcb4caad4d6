package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

const (
	// ChatCookie keys a browser's chat transcript.
	ChatCookie = "chat_session"
	// maxChatMessage is the longest accepted visitor message, in runes.
	maxChatMessage = 2000
	chatCookieAge  = 30 * 24 * 60 * 60
)

// chatSession returns the chat session id of the browser, issuing a new
// cookie when it has none.
func (s *Server) chatSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ChatCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ChatCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   chatCookieAge,
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// handleChat answers one widget message.  Once the session used up its
// message cap the fixed cap reply is returned without calling the model.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pkg.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{Error: "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{Error: "message is required"})
		return
	}
	if utf8.RuneCountInString(message) > maxChatMessage {
		writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{Error: "message is too long"})
		return
	}

	sessionID := s.chatSession(w, r)
	release, err := s.Forms.Begin("chat:" + sessionID)
	if err != nil {
		writeJSON(w, http.StatusConflict, pkg.ErrorResponse{Error: "a message is already being answered"})
		return
	}
	var outcome error
	defer func() { release(outcome) }()
	log := s.Log.WithField("session", sessionID)

	count, err := s.Store.CountUserMessages(ctx, sessionID)
	if err != nil {
		outcome = err
		log.WithError(err).Error("count chat messages")
		writeJSON(w, http.StatusInternalServerError, pkg.ErrorResponse{Error: "internal error"})
		return
	}
	if count >= s.MessageCap {
		if _, err := s.Store.CreateMessage(ctx, sessionID, pkg.RoleBot, core.CapMessage); err != nil {
			log.WithError(err).Warn("store cap message")
		}
		writeJSON(w, http.StatusOK, pkg.ChatResponse{Reply: core.CapMessage})
		return
	}

	history, err := s.Store.GetTranscript(ctx, sessionID)
	if err == nil {
		_, err = s.Store.CreateMessage(ctx, sessionID, pkg.RoleUser, message)
	}
	if err != nil {
		outcome = err
		log.WithError(err).Error("store chat message")
		writeJSON(w, http.StatusInternalServerError, pkg.ErrorResponse{Error: "internal error"})
		return
	}

	reply, err := s.Chat.Reply(ctx, history, message)
	if err != nil {
		outcome = err
		log.WithError(err).Error("chat model failed")
		writeJSON(w, http.StatusBadGateway, pkg.ErrorResponse{Error: "the assistant is unavailable"})
		return
	}
	if _, err := s.Store.CreateMessage(ctx, sessionID, pkg.RoleBot, reply); err != nil {
		log.WithError(err).Warn("store chat reply")
	}
	writeJSON(w, http.StatusOK, pkg.ChatResponse{Reply: reply})
}

func (s *Server) handleArticlesAPI(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntityArticles, r.URL.Query())
	q.OnlyVisible = true
	page, err := s.Store.ListArticles(r.Context(), q)
	s.writeListing(w, r, page, err)
}

func (s *Server) handleMedicinesAPI(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntityMedicines, r.URL.Query())
	q.OnlyVisible = true
	page, err := s.Store.ListMedicines(r.Context(), q)
	s.writeListing(w, r, page, err)
}

func (s *Server) handleSchedulesAPI(w http.ResponseWriter, r *http.Request) {
	q := core.ParseListQuery(core.EntitySchedules, r.URL.Query())
	q.OnlyVisible = true
	page, err := s.Store.ListSchedules(r.Context(), q)
	s.writeListing(w, r, page, err)
}

func (s *Server) writeListing(w http.ResponseWriter, r *http.Request, page interface{}, err error) {
	if err != nil {
		s.Log.WithError(err).WithField("path", r.URL.Path).Error("listing failed")
		writeJSON(w, http.StatusInternalServerError, pkg.ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, page)
}
