// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/clock"
)

// githubAPIVersion pins the REST API version header.
const githubAPIVersion = "2022-11-28"

// defaultBaseURL is the base URL for the public GitHub API.
const defaultBaseURL = "https://api.github.com"

// maxResponseSize bounds response body reads.
const maxResponseSize int64 = 32 << 20

// Config holds configuration for creating a GitHub API Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com". Must use HTTPS.
	BaseURL string

	// Token is a personal access token or fine-grained token. Required.
	Token string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Clock provides time operations for rate-limit backoff. Defaults
	// to clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a token-authenticated GitHub REST API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authHeader string
	rateLimit  *rateLimitTracker
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient creates a GitHub API client from the given configuration.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}
	if strings.TrimSpace(config.Token) == "" {
		return nil, errors.New("github: no token configured (set GITHUB_TOKEN)")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		authHeader: "Bearer " + config.Token,
		rateLimit:  newRateLimitTracker(clk),
		clock:      clk,
		logger:     logger,
	}, nil
}

// do executes an authenticated request and returns the response body.
// The path is relative to the base URL. requestBody, when non-nil, is
// JSON-encoded. A rate-limited response is retried once after the
// advertised backoff.
func (client *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		statusCode, header, body, err := client.send(ctx, method, path, requestBody)
		if err != nil {
			return nil, err
		}
		if statusCode >= 200 && statusCode < 300 {
			return body, nil
		}

		apiError := parseAPIError(statusCode, body)
		if attempt > 0 || !IsRateLimited(apiError) {
			return nil, apiError
		}
		backoff := client.rateLimit.retryAfter(header)
		if backoff <= 0 {
			return nil, apiError
		}
		client.logger.Info("rate limited, backing off",
			"duration", backoff,
			"method", method,
			"path", path,
		)
		select {
		case <-client.clock.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// send performs one HTTP round trip after any preemptive rate-limit
// wait, and records the rate-limit headers of the response.
func (client *Client) send(ctx context.Context, method, path string, requestBody any) (int, http.Header, []byte, error) {
	if err := client.rateLimit.wait(ctx); err != nil {
		return 0, nil, nil, err
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	url := client.baseURL + path
	request, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("github: creating request: %w", err)
	}
	request.Header.Set("Authorization", client.authHeader)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("github: %s %s: %w", method, url, err)
	}
	defer response.Body.Close()
	client.rateLimit.update(response.Header)

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("github: reading response body: %w", err)
	}
	return response.StatusCode, response.Header, body, nil
}

func (client *Client) get(ctx context.Context, path string, result any) error {
	body, err := client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(body, result)
}

func (client *Client) post(ctx context.Context, path string, requestBody any, result any) error {
	body, err := client.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	return decode(body, result)
}

func decode(body []byte, result any) error {
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}
