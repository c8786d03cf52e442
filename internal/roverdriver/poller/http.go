// Package poller fetches the next rover command over HTTP.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/autopeer-io/rover/internal/roverdriver/core"
)

// maxBodySize caps how much of a response is read. Commands are a few bytes.
const maxBodySize = 4 << 10

var errEmptyResponse = errors.New("empty command response")

// NextCommandResponse is the JSON body served by the command relay.
type NextCommandResponse struct {
	Command         string `json:"command"`
	QueueLength     int    `json:"queueLength"`
	CameraConnected bool   `json:"cameraConnected"`
}

// HTTPSource asks an HTTP endpoint for the next command:
//
//	GET <endpoint>?lastCommand=<token>
type HTTPSource struct {
	endpoint *url.URL
	client   *http.Client
}

var _ core.CommandSource = (*HTTPSource)(nil)

// NewHTTPSource returns a source polling endpoint with the given request timeout.
func NewHTTPSource(endpoint string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid poll endpoint %q: %w", endpoint, err)
	}
	return &HTTPSource{
		endpoint: u,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Next polls the endpoint. Any failure yields core.Stop along with the error.
func (s *HTTPSource) Next(ctx context.Context, last core.Command) (core.Command, error) {
	u := *s.endpoint
	q := u.Query()
	q.Set("lastCommand", last.Token())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return core.Stop, fmt.Errorf("failed to create poll request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return core.Stop, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return core.Stop, fmt.Errorf("failed to read poll response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.Stop, fmt.Errorf("poll returned non-2xx status: %s", resp.Status)
	}

	token, err := parseBody(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return core.Stop, err
	}
	return core.Decode(token), nil
}

// parseBody extracts the command token. Plain text bodies lose surrounding
// whitespace only; JSON bodies carry it in the "command" field.
func parseBody(contentType string, body []byte) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)

	var token string
	if mediaType == "application/json" {
		var r NextCommandResponse
		if err := json.Unmarshal(body, &r); err != nil {
			return "", fmt.Errorf("failed to decode poll response: %w", err)
		}
		token = r.Command
	} else {
		token = strings.TrimSpace(string(body))
	}

	if token == "" {
		return "", errEmptyResponse
	}
	return token, nil
}
