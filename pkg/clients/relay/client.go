package relay

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

	"pair-scheduler/pkg/models"
)

const (
	rosterPath = "/api/get-developers"
	submitPath = "/api/send-data"

	upstreamTimeoutHeader = "X-Upstream-Timeout"
)

// ErrUpstreamTimeout is returned when the relay reports that its upstream timed out
var ErrUpstreamTimeout = errors.New("relay upstream timed out")

// StatusError is returned when the relay answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error from relay: status %d: %s", e.StatusCode, e.Message)
}

// Client defines the interface for talking to the relay API
type Client interface {
	FetchRoster(ctx context.Context) (models.Roster, error)
	Submit(ctx context.Context, payload models.SubmissionPayload) error
}

type clientImpl struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new relay client for the given base URL
func NewClient(baseURL string, timeout time.Duration) Client {
	return &clientImpl{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *clientImpl) FetchRoster(ctx context.Context) (models.Roster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+rosterPath, nil)
	if err != nil {
		return models.Roster{}, fmt.Errorf("error creating request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return models.Roster{}, err
	}

	var roster models.Roster
	if err := json.Unmarshal(body, &roster); err != nil {
		return models.Roster{}, fmt.Errorf("error parsing roster: %w", err)
	}
	return roster, nil
}

func (c *clientImpl) Submit(ctx context.Context, payload models.SubmissionPayload) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

func (c *clientImpl) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling relay: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
		if resp.Header.Get(upstreamTimeoutHeader) == "true" {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamTimeout, statusErr)
		}
		return nil, statusErr
	}

	return body, nil
}

func errorMessage(body []byte) string {
	var parsed models.ErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return string(body)
}
