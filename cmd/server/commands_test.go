package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-portal/internal/widget"
	"hospital-portal/pkg"
)

func TestChatLoop(t *testing.T) {
	var got []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pkg.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		got = append(got, req.Message)
		_ = json.NewEncoder(w).Encode(pkg.ChatResponse{Reply: "echo: " + req.Message})
	}))
	defer ts.Close()

	var out bytes.Buffer
	in := strings.NewReader("visiting hours?\nparking?\n\nignored\n")
	err := chatLoop(context.Background(), widget.New(widget.NewHTTPEndpoint(ts.URL)), in, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"visiting hours?", "parking?"}, got)
	assert.Contains(t, out.String(), "echo: visiting hours?\n")
	assert.Contains(t, out.String(), "echo: parking?\n")
}
