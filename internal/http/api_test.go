package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

func chatRequest(body string, session *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	return req
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp pkg.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Reply
}

func TestChatConversation(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(chatRequest(`{"message":"When is the pharmacy open?"}`, nil), false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello from the assistant.", decodeReply(t, rec))
	session := responseCookie(rec, ChatCookie)
	require.NotNil(t, session)

	rec = e.serve(chatRequest(`{"message":"And on Sundays?"}`, session), false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, responseCookie(rec, ChatCookie), "the session is reused")

	msgs, err := e.store.GetTranscript(context.Background(), session.Value)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, pkg.RoleUser, msgs[0].Role)
	assert.Equal(t, "When is the pharmacy open?", msgs[0].Content)
	assert.Equal(t, pkg.RoleBot, msgs[1].Role)
	assert.Equal(t, "And on Sundays?", msgs[2].Content)
	assert.Equal(t, 2, e.model.Calls())
}

func TestChatMessageCap(t *testing.T) {
	e := newTestEnv(t, func(c *Config) { c.MessageCap = 2 })

	rec := e.serve(chatRequest(`{"message":"one"}`, nil), false)
	require.Equal(t, http.StatusOK, rec.Code)
	session := responseCookie(rec, ChatCookie)
	require.NotNil(t, session)

	rec = e.serve(chatRequest(`{"message":"two"}`, session), false)
	assert.Equal(t, "Hello from the assistant.", decodeReply(t, rec))

	rec = e.serve(chatRequest(`{"message":"three"}`, session), false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.CapMessage, decodeReply(t, rec))
	assert.Equal(t, 2, e.model.Calls())

	n, err := e.store.CountUserMessages(context.Background(), session.Value)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "capped messages are not stored")

	// A fresh session starts over.
	rec = e.serve(chatRequest(`{"message":"four"}`, nil), false)
	assert.Equal(t, "Hello from the assistant.", decodeReply(t, rec))
}

func TestChatRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)

	for name, body := range map[string]string{
		"not json": `hello`,
		"blank":    `{"message":"   "}`,
		"too long": `{"message":"` + strings.Repeat("a", maxChatMessage+1) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := e.serve(chatRequest(body, nil), false)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp pkg.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Zero(t, e.model.Calls())
}

func TestChatModelFailure(t *testing.T) {
	e := newTestEnv(t)
	e.model.err = errors.New("upstream timeout")

	rec := e.serve(chatRequest(`{"message":"Hello?"}`, nil), false)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the assistant is unavailable", resp.Error)
}

func TestChatSessionIsSerialized(t *testing.T) {
	e := newTestEnv(t)
	session := &http.Cookie{Name: ChatCookie, Value: "0b7a9c43-2f0e-4c43-9a43-52d3f7b6a001"}

	release, err := e.srv.Forms.Begin("chat:" + session.Value)
	require.NoError(t, err)
	rec := e.serve(chatRequest(`{"message":"Hello?"}`, session), false)
	assert.Equal(t, http.StatusConflict, rec.Code)
	release(nil)

	rec = e.serve(chatRequest(`{"message":"Hello?"}`, session), false)
	assert.Equal(t, http.StatusOK, rec.Code)
}
