// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package remote is the HTTP client for the vote aggregator API.
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

	"github.com/danielhkuo/tvorozhniki/models"
)

const (
	DefaultURL     = "http://localhost:3000"
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4 << 10
)

// ErrDuplicateVote is returned by Submit when the aggregator already holds a
// vote for the fingerprint (HTTP 409).
var ErrDuplicateVote = errors.New("vote already recorded for this device")

// StatusError is any other non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded with status %d", e.Code)
	}
	return fmt.Sprintf("server responded with status %d: %s", e.Code, e.Body)
}

// Client talks to one aggregator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client, including its timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the aggregator URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit posts a vote. The aggregator's id is returned on 201.
func (c *Client) Submit(ctx context.Context, req models.CreateVoteRequest) (models.CreateVoteResponse, error) {
	var resp models.CreateVoteResponse

	body, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("encoding vote: %w", err)
	}

	err = c.do(ctx, http.MethodPost, "/api/votes", bytes.NewReader(body), &resp)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusConflict {
		return resp, fmt.Errorf("%w: %s", ErrDuplicateVote, se.Body)
	}
	if err != nil {
		return resp, fmt.Errorf("submitting vote: %w", err)
	}
	if resp.ID <= 0 {
		return models.CreateVoteResponse{}, errors.New("submitting vote: decoding response: missing id")
	}
	return resp, nil
}

// Stats fetches the aggregate statistics.
func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	if err := c.do(ctx, http.MethodGet, "/api/votes/stats", nil, &stats); err != nil {
		return models.Stats{}, fmt.Errorf("fetching statistics: %w", err)
	}
	return stats, nil
}

// Recent fetches the newest votes, newest first.
func (c *Client) Recent(ctx context.Context) ([]models.RecentVote, error) {
	var recent []models.RecentVote
	if err := c.do(ctx, http.MethodGet, "/api/votes/recent", nil, &recent); err != nil {
		return nil, fmt.Errorf("fetching recent votes: %w", err)
	}
	return recent, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
