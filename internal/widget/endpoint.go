package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"hospital-portal/pkg"
)

// ChatPath is the route of the server's chat endpoint.
const ChatPath = "/api/chat"

// HTTPEndpoint posts messages to the website's chat endpoint.  Its client
// keeps cookies so consecutive messages share one chat session.
type HTTPEndpoint struct {
	URL    string
	Client *http.Client
}

// NewHTTPEndpoint targets the chat endpoint of the site at baseURL.
func NewHTTPEndpoint(baseURL string) *HTTPEndpoint {
	jar, _ := cookiejar.New(nil)
	return &HTTPEndpoint{
		URL:    strings.TrimRight(baseURL, "/") + ChatPath,
		Client: &http.Client{Jar: jar, Timeout: 60 * time.Second},
	}
}

// Send implements Endpoint.
func (e *HTTPEndpoint) Send(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(pkg.ChatRequest{Message: message})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr pkg.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("chat endpoint: %d %s", resp.StatusCode, apiErr.Error)
	}
	var out pkg.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("chat endpoint: decode reply: %w", err)
	}
	return out.Reply, nil
}
