package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
)

const sendAttempts = 3

// Client sends exports to the LiftLog server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the LiftLog server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Status int
	Code   string
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("import failed (status %d, %s): %s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("import failed (status %d): %s", e.Status, e.Msg)
}

// retryable reports whether resending could succeed.
func (e *StatusError) retryable() bool {
	return e.Status >= 500
}

// SendExport POSTs an Alpha Progression CSV export to the server's import
// endpoint. Network errors and 5xx answers are retried up to 3 times with
// exponential backoff; 4xx answers are returned immediately.
func (c *Client) SendExport(ctx context.Context, data []byte, warmups bool) (*ingest.Result, error) {
	q := url.Values{}
	q.Set("warmups", strconv.FormatBool(warmups))
	endpoint := c.serverURL + "/api/v1/import/alpha?" + q.Encode()

	var lastErr error
	for attempt := range sendAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		res, err := c.post(ctx, endpoint, data)
		if err == nil {
			return res, nil
		}
		lastErr = err
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", sendAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, endpoint string, data []byte) (*ingest.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(body))}
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			se.Code, se.Msg = e.Code, e.Error
		}
		return nil, se
	}

	var res ingest.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &res, nil
}
