package appsscript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// ErrTimeout is returned when the script endpoint does not answer in time
var ErrTimeout = errors.New("apps script request timed out")

// StatusError is returned when the script endpoint answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error from Apps Script: status %d: %s", e.StatusCode, e.Body)
}

// Response is a raw upstream reply
type Response struct {
	ContentType string
	Body        []byte
}

// Client defines the interface for interacting with the spreadsheet-backed script endpoints
type Client interface {
	FetchRoster(ctx context.Context) (*Response, error)
	Submit(ctx context.Context, payload map[string]any) (*Response, error)
}

type clientImpl struct {
	rosterURL  string
	submitURL  string
	httpClient *http.Client
}

// NewClient creates a new Apps Script client
func NewClient(rosterURL, submitURL string, timeout time.Duration) Client {
	return &clientImpl{
		rosterURL:  rosterURL,
		submitURL:  submitURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *clientImpl) FetchRoster(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rosterURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	return c.do(req)
}

func (c *clientImpl) Submit(ctx context.Context, payload map[string]any) (*Response, error) {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return nil, fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	return c.do(req)
}

func (c *clientImpl) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("error calling Apps Script: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return &Response{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// encodeMultipart writes one form field per payload key, in key order.
// Strings go out verbatim, null is skipped and everything else is sent as JSON text.
func encodeMultipart(payload map[string]any) (*bytes.Buffer, string, error) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, k := range keys {
		value, ok, err := fieldValue(payload[k])
		if err != nil {
			return nil, "", fmt.Errorf("error encoding field %q: %w", k, err)
		}
		if !ok {
			continue
		}
		if err := w.WriteField(k, value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf, w.FormDataContentType(), nil
}

func fieldValue(v any) (string, bool, error) {
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case bool:
		return strconv.FormatBool(t), true, nil
	case json.Number:
		return t.String(), true, nil
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return "", false, err
		}
		return string(raw), true, nil
	}
}
