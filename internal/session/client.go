// Package session is the client of the remote billiard session service.
// Every call is a single request/response pair: no retries.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("session service is not configured")
	ErrInvalidInput  = errors.New("invalid session request")
)

const maxBody = 1 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. An empty baseURL yields a client
// whose calls fail with ErrNotConfigured.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// ListTables returns every table with its status and charge.
func (c *Client) ListTables(ctx context.Context) ([]Table, error) {
	env, err := c.do(ctx, "list tables", http.MethodGet, "/tables", nil)
	if err != nil {
		return nil, err
	}
	if env.Tables == nil {
		return []Table{}, nil
	}
	return env.Tables, nil
}

// StartSession opens a session on tableID and returns its id.
func (c *Client) StartSession(ctx context.Context, tableID, mode string) (string, error) {
	tableID, mode = strings.TrimSpace(tableID), strings.TrimSpace(mode)
	if tableID == "" || mode == "" {
		return "", fmt.Errorf("%w: table and mode are required", ErrInvalidInput)
	}
	env, err := c.do(ctx, "start session", http.MethodPost, "/sessions/start",
		map[string]string{"tableId": tableID, "mode": mode})
	if err != nil {
		return "", err
	}
	return env.SessionID, nil
}

// ExtendSession adds one extension unit to a running session.
func (c *Client) ExtendSession(ctx context.Context, sessionID, unit string) (string, error) {
	sessionID, unit = strings.TrimSpace(sessionID), strings.TrimSpace(unit)
	if sessionID == "" || unit == "" {
		return "", fmt.Errorf("%w: session and unit are required", ErrInvalidInput)
	}
	env, err := c.do(ctx, "extend session", http.MethodPost,
		"/sessions/"+url.PathEscape(sessionID)+"/extend", map[string]string{"unit": unit})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// TransferSession moves a running session to another table.
func (c *Client) TransferSession(ctx context.Context, sessionID, targetTableID string) (string, error) {
	sessionID, targetTableID = strings.TrimSpace(sessionID), strings.TrimSpace(targetTableID)
	if sessionID == "" || targetTableID == "" {
		return "", fmt.Errorf("%w: session and target table are required", ErrInvalidInput)
	}
	env, err := c.do(ctx, "transfer session", http.MethodPost,
		"/sessions/"+url.PathEscape(sessionID)+"/transfer", map[string]string{"targetTableId": targetTableID})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (*envelope, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
			if msg == "" || len(msg) > 200 {
				msg = http.StatusText(resp.StatusCode)
			}
		}
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, decodeErr)
	}
	if !env.Success {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}
