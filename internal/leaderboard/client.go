// Package leaderboard submits benchmark results to the shared leaderboard
// server and manages the auth token.
package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultServerURL is the production leaderboard endpoint, overridable
	// via PINCHBENCH_SERVER_URL.
	DefaultServerURL = "https://api.pinchbench.com"

	defaultHTTPTimeout = 30 * time.Second

	envServerURL = "PINCHBENCH_SERVER_URL"
	envToken     = "PINCHBENCH_TOKEN"
)

// UploadResult is the leaderboard server's response to a submission.
type UploadResult struct {
	Status         string
	SubmissionID   string
	Rank           *int
	Percentile     *float64
	LeaderboardURL string
}

// Client talks to the leaderboard server.
type Client struct {
	// ServerURL overrides the env var and default.
	ServerURL string

	// Token overrides the env var and config file.
	Token string

	// Version is the client version reported with submissions.
	Version string

	// HTTPClient defaults to one with a 30s timeout.
	HTTPClient *http.Client
}

func (c *Client) serverURL() string {
	if c.ServerURL != "" {
		return strings.TrimRight(c.ServerURL, "/")
	}
	if env := os.Getenv(envServerURL); env != "" {
		return strings.TrimRight(env, "/")
	}
	return DefaultServerURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func (c *Client) resolveToken() string {
	if c.Token != "" {
		return c.Token
	}
	if env := os.Getenv(envToken); env != "" {
		return env
	}
	config, err := readConfig()
	if err != nil {
		return ""
	}
	return config.Token
}

// Upload submits a results file. With dryRun set the payload is built and
// validated but nothing is sent.
func (c *Client) Upload(ctx context.Context, resultsPath string, dryRun bool) (*UploadResult, error) {
	token := c.resolveToken()
	if token == "" {
		return nil, fmt.Errorf("%s is not configured", envToken)
	}

	payload, err := BuildPayload(ctx, resultsPath, c.Version)
	if err != nil {
		return nil, err
	}
	submissionID, _ := payload["submission_id"].(string)

	if dryRun {
		return &UploadResult{Status: "dry_run", SubmissionID: submissionID}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL()+"/api/results", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-PinchBench-Token", token)
	req.Header.Set("X-PinchBench-Version", c.Version)
	req.Header.Set("User-Agent", userAgent(c.Version))

	data, err := c.doJSON(req, "upload")
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		Status:       "accepted",
		SubmissionID: submissionID,
	}
	if status, ok := data["status"].(string); ok && status != "" {
		result.Status = status
	}
	if id, ok := data["submission_id"].(string); ok && id != "" {
		result.SubmissionID = id
	}
	if rank, ok := asFloat(data["rank"]); ok {
		n := int(rank)
		result.Rank = &n
	}
	if pct, ok := asFloat(data["percentile"]); ok {
		result.Percentile = &pct
	}
	if url, ok := data["leaderboard_url"].(string); ok {
		result.LeaderboardURL = url
	}
	return result, nil
}

// Register requests a new auth token from the server. Returns the token and
// an optional claim URL for linking the submission to an account.
func (c *Client) Register(ctx context.Context) (token, claimURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL()+"/api/register", strings.NewReader("{}"))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent(c.Version))

	data, err := c.doJSON(req, "registration")
	if err != nil {
		return "", "", err
	}

	token, _ = data["token"].(string)
	if token == "" {
		token, _ = data["api_key"].(string)
	}
	if token == "" {
		return "", "", fmt.Errorf("registration failed: response missing token")
	}
	claimURL, _ = data["claim_url"].(string)
	return token, claimURL, nil
}

// doJSON executes the request and decodes a JSON object body. Non-2xx
// responses become errors carrying the server's message when one exists.
func (c *Client) doJSON(req *http.Request, op string) (map[string]any, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s failed (network): %w", op, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s failed reading response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errPayload map[string]any
		if json.Unmarshal(body, &errPayload) == nil && len(errPayload) > 0 {
			return nil, fmt.Errorf("%s failed (%d): %v", op, resp.StatusCode, errPayload)
		}
		return nil, fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, resp.Status)
	}

	data := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			// A 2xx with an unparsable body still counts as accepted.
			return map[string]any{"status": "accepted"}, nil
		}
	}
	return data, nil
}

func userAgent(version string) string {
	if version == "" {
		version = "unknown"
	}
	return "PinchBench/" + version
}
