// Package assistant is a minimal HTTP client for the OpenAI assistants API,
// used to turn a raw product description into structured attributes. The
// collaborator is slow (seconds per call) and unreliable; callers must treat
// every failure as recoverable per item.
package assistant

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

	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/errs"
)

// DefaultBaseURL is the OpenAI API base URL.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config carries everything needed to talk to the assistant.
type Config struct {
	BaseURL     string
	APIKey      string
	AssistantID string
	// MaxAttempts bounds retries on rate-limit responses; other failures
	// are terminal immediately.
	MaxAttempts  int
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client talks to one configured assistant.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	assistantID  string
	maxAttempts  int
	pollInterval time.Duration
}

// NewClient constructs a Client with sane defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		assistantID:  cfg.AssistantID,
		maxAttempts:  cfg.MaxAttempts,
		pollInterval: cfg.PollInterval,
	}
}

// Enrich runs the assistant over the product description and returns the
// structured attributes it produced. Rate-limit responses are retried with
// exponential backoff up to the configured attempt cap.
func (c *Client) Enrich(ctx context.Context, description string) (*ProductDetails, error) {
	var lastErr error
	backoff := time.Second

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		details, err := c.enrichOnce(ctx, description)
		if err == nil {
			return details, nil
		}
		lastErr = err

		var limited *errs.RateLimitedError
		if !errors.As(err, &limited) {
			return nil, err
		}

		wait := backoff
		if limited.RetryAfter > 0 {
			wait = limited.RetryAfter
		}
		log.Warn().
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("assistant rate limited, backing off")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("assistant rate limited after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) enrichOnce(ctx context.Context, description string) (*ProductDetails, error) {
	thread, err := c.createThread(ctx, description)
	if err != nil {
		return nil, err
	}

	run, err := c.createRun(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	for !run.done() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		run, err = c.getRun(ctx, thread.ID, run.ID)
		if err != nil {
			return nil, err
		}
	}
	if run.Status != runStatusCompleted {
		return nil, fmt.Errorf("assistant run finished with status %s", run.Status)
	}

	messages, err := c.listMessages(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	for _, message := range messages.Data {
		if message.Role != "assistant" {
			continue
		}
		var details ProductDetails
		if err := json.Unmarshal([]byte(message.text()), &details); err != nil {
			return nil, fmt.Errorf("decode assistant reply: %w", err)
		}
		return &details, nil
	}
	return nil, fmt.Errorf("assistant produced no reply")
}

func (c *Client) createThread(ctx context.Context, description string) (*thread, error) {
	body := map[string]any{
		"messages": []map[string]string{
			{"role": "user", "content": "json: " + description},
		},
	}
	var t thread
	if err := c.doRequest(ctx, http.MethodPost, "/threads", body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) createRun(ctx context.Context, threadID string) (*run, error) {
	body := map[string]string{"assistant_id": c.assistantID}
	var r run
	if err := c.doRequest(ctx, http.MethodPost, "/threads/"+threadID+"/runs", body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) getRun(ctx context.Context, threadID, runID string) (*run, error) {
	var r run
	if err := c.doRequest(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) listMessages(ctx context.Context, threadID string) (*messageList, error) {
	var list messageList
	if err := c.doRequest(ctx, http.MethodGet, "/threads/"+threadID+"/messages", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// doRequest performs one JSON round-trip against the assistants API and
// decodes the response into result.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assistant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &errs.RateLimitedError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("assistant error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode assistant response: %w", err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			return d
		}
	}
	return 0
}
