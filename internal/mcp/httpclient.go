package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/calilog/internal/models"
)

// HTTPClient implements DataSource by calling the calilog REST API. Used
// when the MCP binary runs locally (stdio) but the data lives behind a
// running calilog server.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty when the server runs without authentication.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
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

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	var out []models.Exercise
	err := c.get(ctx, "/api/v1/exercises", nil, &out)
	return out, err
}

func (c *HTTPClient) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var out []models.Program
	err := c.get(ctx, "/api/v1/programs", nil, &out)
	return out, err
}

func (c *HTTPClient) GetProgramByID(ctx context.Context, id int64) (models.Program, error) {
	var out models.Program
	err := c.get(ctx, fmt.Sprintf("/api/v1/programs/%d", id), nil, &out)
	return out, err
}

func (c *HTTPClient) GetProgramExercisesSync(ctx context.Context, programID int64) ([]models.ProgramExercise, error) {
	var out []models.ProgramExercise
	err := c.get(ctx, fmt.Sprintf("/api/v1/programs/%d/exercises", programID), nil, &out)
	return out, err
}

func (c *HTTPClient) GetLatestSession(ctx context.Context, exerciseID int64) ([]models.TrainingRecord, error) {
	var out []models.TrainingRecord
	err := c.get(ctx, fmt.Sprintf("/api/v1/exercises/%d/latest-session", exerciseID), nil, &out)
	return out, err
}

func (c *HTTPClient) ListIntervalPrograms(ctx context.Context) ([]models.IntervalProgram, error) {
	var out []models.IntervalProgram
	err := c.get(ctx, "/api/v1/interval-programs", nil, &out)
	return out, err
}

func (c *HTTPClient) ListIntervalRecords(ctx context.Context, limit int) ([]models.IntervalRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out []models.IntervalRecord
	err := c.get(ctx, "/api/v1/interval-records", params, &out)
	return out, err
}

func (c *HTTPClient) GetDataStats(ctx context.Context) (*models.DataStats, error) {
	var out models.DataStats
	if err := c.get(ctx, "/api/v1/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
