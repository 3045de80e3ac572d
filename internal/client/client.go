// internal/client/client.go
// Package client talks to the council backend's REST and streaming endpoints.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"synapse/internal/council"
)

// ErrNotFound is returned when the backend answers 404
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx backend response
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// CouncilResult is the blocking endpoint's response for one exchange
type CouncilResult struct {
	Stage1   []council.StageOneResult  `json:"stage1"`
	Stage2   []council.StageTwoResult  `json:"stage2"`
	Stage3   *council.StageThreeResult `json:"stage3"`
	Metadata *council.RankingMetadata  `json:"metadata"`
	Graph    *council.ReasoningGraph   `json:"vrt"`
}

// Message converts the result into an assistant message
func (r CouncilResult) Message() council.Message {
	return council.Message{
		Role:     council.RoleAssistant,
		Stage1:   r.Stage1,
		Stage2:   r.Stage2,
		Stage3:   r.Stage3,
		Metadata: r.Metadata,
		Graph:    r.Graph,
	}
}

// Options configures a Client
type Options struct {
	Retry          RetryConfig
	RequestTimeout time.Duration
}

// Client is the backend API client
type Client struct {
	baseURL string
	http    *RetryableClient
	// stream has no overall timeout; the body stays open for the whole exchange
	stream *http.Client
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts Options) *Client {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryConfig()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewRetryableClient(opts.Retry, opts.RequestTimeout),
		stream:  &http.Client{},
	}
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListConversations returns all conversation summaries
func (c *Client) ListConversations(ctx context.Context) ([]council.ConversationSummary, error) {
	var out []council.ConversationSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation starts a new empty conversation
func (c *Client) CreateConversation(ctx context.Context) (*council.Conversation, error) {
	var out council.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches the authoritative conversation
func (c *Client) GetConversation(ctx context.Context, id string) (*council.Conversation, error) {
	var out council.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenameConversation sets a conversation's title
func (c *Client) RenameConversation(ctx context.Context, id, title string) (*council.Conversation, error) {
	var out council.Conversation
	body := map[string]string{"title": title}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/conversations/"+url.PathEscape(id), body, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(id), nil, true, nil)
}

// SendMessage runs a full council exchange and waits for the result
func (c *Client) SendMessage(ctx context.Context, id, content string) (*CouncilResult, error) {
	var out CouncilResult
	body := map[string]string{"content": content}
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations/"+url.PathEscape(id)+"/message", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenStream starts a streamed council exchange and returns the event
// stream body. The caller must close it; cancelling ctx also releases it.
func (c *Client) OpenStream(ctx context.Context, id, content string) (io.ReadCloser, error) {
	data, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return nil, err
	}

	path := "/api/conversations/stream?cid=" + url.QueryEscape(id)
	req, err := newRequestWithBody(ctx, http.MethodPost, c.baseURL+path, data)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, newStatusError(req, resp)
	}

	log.Debug().Str("conversation_id", id).Msg("stream opened")
	return resp.Body, nil
}

// doJSON sends body as JSON (when non-nil) and decodes the response into out
// (when non-nil). Only idempotent calls pass retry.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, retry bool, out any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := newRequestWithBody(ctx, method, c.baseURL+path, data)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	var resp *http.Response
	if retry {
		resp, err = c.http.DoWithRetry(ctx, req)
	} else {
		resp, err = c.http.Do(req)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return newStatusError(req, resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func newStatusError(req *http.Request, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{
		Method: req.Method,
		Path:   req.URL.Path,
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}
