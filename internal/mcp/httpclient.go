package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/models"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
// The userID arguments are ignored; the server resolves identity itself.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
// An empty apiKey sends no X-API-Key header.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON body into out. Error bodies of the
// form {"error","code"} are turned back into *apperr.Error.
func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(body, &e) == nil && e.Code != "" {
			return &apperr.Error{Code: apperr.Code(e.Code), Msg: e.Error}
		}
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, _ int) ([]models.Exercise, error) {
	var exercises []models.Exercise
	if err := c.get(ctx, "/api/v1/exercises", &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (c *HTTPClient) GetExerciseStats(ctx context.Context, _ int, exerciseID uuid.UUID) (models.ExerciseStats, error) {
	var stats models.ExerciseStats
	err := c.get(ctx, "/api/v1/exercises/"+exerciseID.String()+"/stats", &stats)
	return stats, err
}

func (c *HTTPClient) GetProgressionSeries(ctx context.Context, _ int, exerciseID uuid.UUID) ([]models.ProgressionPoint, error) {
	var points []models.ProgressionPoint
	if err := c.get(ctx, "/api/v1/exercises/"+exerciseID.String()+"/progression", &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, _ int) ([]models.Session, error) {
	var sessions []models.Session
	if err := c.get(ctx, "/api/v1/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) ListSetsForSession(ctx context.Context, _ int, sessionID uuid.UUID) ([]models.SetEntry, error) {
	var sets []models.SetEntry
	if err := c.get(ctx, "/api/v1/sessions/"+sessionID.String()+"/sets", &sets); err != nil {
		return nil, err
	}
	return sets, nil
}
