// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the council backend API.
const (
	// DefaultBaseURL is used when neither config nor COUNCIL_API_URL set one.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout applies to plain JSON requests. Turn streams have no
	// timeout; they are bounded by their context only.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the retry budget for idempotent JSON requests.
	DefaultMaxRetries = 3

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second

	// MaxResponseSize caps JSON response bodies.
	MaxResponseSize = 10 * 1024 * 1024
)

// Tier names the backend model/cost profiles a turn can run under.
const (
	TierPro        = "pro"
	TierBudget     = "budget"
	TierUncensored = "uncensored"
)

// ValidTiers is the set of tiers the client will submit.
var ValidTiers = map[string]bool{
	TierPro:        true,
	TierBudget:     true,
	TierUncensored: true,
}

// DanModes lists the persona injection ids the backend recognizes, in
// selector order. An empty dan mode means no persona.
var DanModes = []string{
	"classic",
	"research_frame",
	"fiction_author",
	"historian",
	"philosopher",
	"machiavelli",
	"devil_advocate",
	"developer_mode",
}

// ValidDanModes is the set form of DanModes.
var ValidDanModes = func() map[string]bool {
	m := make(map[string]bool, len(DanModes))
	for _, mode := range DanModes {
		m[mode] = true
	}
	return m
}()

// Error variables for common backend errors.
var (
	// ErrUnauthorized indicates the bearer token was missing, invalid, or
	// expired. Session validation treats this as "signed out".
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the conversation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnknownTier indicates a tier outside ValidTiers.
	ErrUnknownTier = errors.New("unknown tier")
)

// APIError is a non-2xx response from the backend. Detail carries the
// server's error message ({"detail": ...} in the FastAPI convention).
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("council API error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("council API error (HTTP %d)", e.Status)
}

// Is maps status codes onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// apiErrorBody is the backend's error response shape.
type apiErrorBody struct {
	Detail string `json:"detail"`
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// User is the identity payload from /auth/me and the auth endpoints.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is the success payload of /auth/register and /auth/login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ConversationMeta is a conversation summary for the sidebar list.
type ConversationMeta struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
}

// WireMessage is one message as the backend returns it on a conversation
// fetch. Assistant messages carry the stage payloads; user messages only
// content.
type WireMessage struct {
	Role     string          `json:"role"`
	Content  string          `json:"content,omitempty"`
	Stage1   []ModelResponse `json:"stage1,omitempty"`
	Stage2   []ModelRanking  `json:"stage2,omitempty"`
	Stage3   *ModelResponse  `json:"stage3,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Conversation is the full conversation detail payload.
type Conversation struct {
	ID        string        `json:"id"`
	CreatedAt string        `json:"created_at"`
	Title     string        `json:"title"`
	Messages  []WireMessage `json:"messages"`
}

// ImageResult is the response of the image generation endpoint.
type ImageResult struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt"`
}

// =============================================================================
// CLIENT
// =============================================================================

// TokenSource supplies the current bearer token, or "" in guest mode. It is
// a function so the client always sees the latest cached token, including
// changes made by another process.
type TokenSource func() string

// Client talks to the council backend.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// streamClient has no timeout; turn streams are open until the terminal
	// event arrives or the context is canceled.
	streamClient *http.Client

	token      TokenSource
	maxRetries int
	userAgent  string
}

// NewClient creates a client for the given base URL. An empty baseURL falls
// back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
		token:      func() string { return "" },
		maxRetries: DefaultMaxRetries,
		userAgent:  "council-tui/0.1.0",
	}
}

// WithTokenSource sets the bearer token provider.
func (c *Client) WithTokenSource(src TokenSource) *Client {
	if src != nil {
		c.token = src
	}
	return c
}

// WithTimeout sets the JSON request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithMaxRetries sets the retry budget for idempotent JSON requests.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// setHeaders applies the standard headers. The Authorization header is only
// set when a token is cached; the backend's conversation endpoints accept
// guest traffic without one.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// logRequest logs method and path only. Never headers, never bodies: the
// header carries the bearer token and bodies carry user content.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API request: %s %s", req.Method, req.URL.Path)
}

func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API response: %d (%v)", resp.StatusCode, duration)
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns the token + user payload.
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.postCredentials(ctx, "/auth/register", email, password)
}

// Login exchanges credentials for a token + user payload.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.postCredentials(ctx, "/auth/login", email, password)
}

func (c *Client) postCredentials(ctx context.Context, path, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me validates the current token and returns the authenticated user.
// Any non-2xx response surfaces as an *APIError; callers treat it as
// "no session".
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// CONVERSATION ENDPOINTS
// =============================================================================

// ListConversations fetches the sidebar summaries.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationMeta, error) {
	var out []ConversationMeta
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates an empty conversation.
func (c *Client) CreateConversation(ctx context.Context) (*Conversation, error) {
	var out Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches a conversation with all its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var out Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// IMAGE GENERATION
// =============================================================================

type imageRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateImage asks the backend for a single image. Non-streaming; the
// call blocks until the backend returns the hosted URL and revised prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	var out ImageResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/images/generate", imageRequest{Prompt: prompt}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs one JSON request with retries on 5xx and rate limiting.
// GET requests and the fixed POST bodies used here are safe to replay.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		err := c.doJSONOnce(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doJSONOnce(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	c.logRequest(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// readResponse reads a body with the size cap applied.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// errorFromResponse builds an *APIError, pulling the server detail when the
// body parses.
func errorFromResponse(status int, body []byte) error {
	var eb apiErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return &APIError{Status: status, Detail: eb.Detail}
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return &APIError{Status: status, Detail: detail}
}

// isRetryable reports whether a JSON request error is worth replaying.
// Turn streams never retry; see stream.go.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	// Transport-level failure.
	return true
}

// backoffDelay is exponential from retryBaseDelay, capped at retryMaxDelay.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
