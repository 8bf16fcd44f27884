package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	StatusPath  = "/status"
	CommandPath = "/command"
)

// CommandPayload is the JSON body of POST /command.
type CommandPayload struct {
	Command   string  `json:"command"`
	Strength  float64 `json:"strength"`
	Timestamp int64   `json:"timestamp"`
}

// StatusError is returned when the consumer answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// Client talks to the consumer process (the game) over plain HTTP.
// Keep-alives are disabled: every call opens and closes its own connection.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	url := strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	return &Client{
		baseURL: url,
		http: &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
		},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status probes GET /status. Any 2xx is success; the body is ignored.
func (c *Client) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+StatusPath, nil)
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	return c.do(req)
}

// SendCommand posts one command to the consumer.
func (c *Client) SendCommand(ctx context.Context, payload CommandPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+CommandPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build command request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: req.Method, Path: req.URL.Path, Code: resp.StatusCode}
	}
	return nil
}
