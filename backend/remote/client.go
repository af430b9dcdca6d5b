// Package remote is the HTTP client for the optional game API that can hold
// accounts, questions and level progress instead of the local store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"treasurehunt/backend/models"
)

var (
	ErrStatus    = errors.New("unexpected response status")
	ErrNoSession = errors.New("no active game session")
)

// StatusError carries the status and body of a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Client talks to the remote API rooted at baseURL (for example
// http://localhost:8000/api/auth).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProgressRecord is one level row as stored by the remote API.
type ProgressRecord struct {
	Username    string `json:"username,omitempty"`
	LevelNumber int    `json:"level_number"`
	models.Progress
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{
		"username":         username,
		"email":            email,
		"password":         password,
		"password_confirm": password,
	}
	return c.do(ctx, http.MethodPost, "/register/", "", body, nil)
}

// Login returns the API token for the given credentials.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login/", "", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = "no token returned"
		}
		return "", fmt.Errorf("remote login: %s", msg)
	}
	return resp.Token, nil
}

func (c *Client) Questions(ctx context.Context) ([]models.Question, error) {
	var resp struct {
		Questions []models.Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, "/questions/", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// SaveLevel records the player's progress row for the current level.
func (c *Client) SaveLevel(ctx context.Context, token, username string, p models.Progress) error {
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	rec := ProgressRecord{Username: username, LevelNumber: p.Level, Progress: p}
	return c.do(ctx, http.MethodPost, "/game/level/", token, rec, nil)
}

func (c *Client) sessionID(ctx context.Context, token string) (string, error) {
	var resp struct {
		Session struct {
			ID any `json:"id"`
		} `json:"session"`
	}
	if err := c.do(ctx, http.MethodGet, "/game/session/", token, nil, &resp); err != nil {
		return "", err
	}
	if resp.Session.ID == nil || resp.Session.ID == "" {
		return "", ErrNoSession
	}
	return fmt.Sprint(resp.Session.ID), nil
}

// LoadProgress returns the row with the highest level of the player's active
// session, or nil when the session has none.
func (c *Client) LoadProgress(ctx context.Context, token string) (*models.Progress, error) {
	id, err := c.sessionID(ctx, token)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Progress []ProgressRecord `json:"progress"`
	}
	if err := c.do(ctx, http.MethodGet, "/game/session/"+id+"/progress/", token, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Progress) == 0 {
		return nil, nil
	}

	best := resp.Progress[0]
	for _, rec := range resp.Progress[1:] {
		if rec.LevelNumber > best.LevelNumber {
			best = rec
		}
	}
	p := best.Progress
	if p.Level == 0 {
		p.Level = best.LevelNumber
	}
	return &p, nil
}

func (c *Client) ClearProgress(ctx context.Context, token string) error {
	id, err := c.sessionID(ctx, token)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/game/session/"+id+"/progress/clear/", token, nil, nil)
}

func (c *Client) MarkCompleted(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodPost, "/game/mark_completed/", "", map[string]string{"username": username}, nil)
}

// CheckStatus reports whether the API answers at all. Auth failures count
// as up.
func (c *Client) CheckStatus(ctx context.Context) bool {
	err := c.do(ctx, http.MethodGet, "/achievements/all/", "", nil, nil)
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
	}
	return err == nil
}

func (c *Client) CreateQuestion(ctx context.Context, token string, q models.Question) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, http.MethodPost, "/questions/create/", token, q, &resp)
	return resp, err
}

func (c *Client) UpdateQuestion(ctx context.Context, token string, level int, q models.Question) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/questions/%d/update/", level), token, q, &resp)
	return resp, err
}

func (c *Client) DeleteQuestion(ctx context.Context, token string, level int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/questions/%d/delete/", level), token, nil, nil)
}

// AllProgress lists every player's level rows. Requires an admin token.
func (c *Client) AllProgress(ctx context.Context, token string) ([]ProgressRecord, error) {
	var resp struct {
		Progress []ProgressRecord `json:"progress"`
	}
	if err := c.do(ctx, http.MethodGet, "/game/progress/all/", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Progress, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
