package appsscript

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchRoster_PassesBodyThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":["Rina","Bob"]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, upstream.URL, time.Second)
	resp, err := client.FetchRoster(context.Background())
	if err != nil {
		t.Fatalf("FetchRoster failed: %v", err)
	}
	if string(resp.Body) != `{"data":["Rina","Bob"]}` {
		t.Errorf("Unexpected body: %s", resp.Body)
	}
	if resp.ContentType != "application/json" {
		t.Errorf("Unexpected content type: %s", resp.ContentType)
	}
}

func TestFetchRoster_NonSuccessStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("denied"))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, upstream.URL, time.Second)
	_, err := client.FetchRoster(context.Background())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusForbidden || statusErr.Body != "denied" {
		t.Errorf("Unexpected status error: %+v", statusErr)
	}
}

func TestFetchRoster_Timeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	client := NewClient(upstream.URL, upstream.URL, 50*time.Millisecond)
	_, err := client.FetchRoster(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
}

func TestSubmit_SendsMultipartFields(t *testing.T) {
	var got map[string][]string
	var ok bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Expected multipart body: %v", err)
			return
		}
		got = r.MultipartForm.Value
		_, ok = got["skipped"]
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, upstream.URL, time.Second)
	resp, err := client.Submit(context.Background(), map[string]any{
		"name":    "Rina",
		"email":   "rina@onja.org",
		"count":   float64(2),
		"urgent":  true,
		"tags":    []any{"go", "tests"},
		"skipped": nil,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if string(resp.Body) != `{"result":"success"}` {
		t.Errorf("Unexpected body: %s", resp.Body)
	}

	expected := map[string]string{
		"name":   "Rina",
		"email":  "rina@onja.org",
		"count":  "2",
		"urgent": "true",
		"tags":   `["go","tests"]`,
	}
	for k, v := range expected {
		if len(got[k]) != 1 || got[k][0] != v {
			t.Errorf("Field %s: expected %q, got %v", k, v, got[k])
		}
	}
	if ok {
		t.Error("Expected null field to be skipped")
	}
}

func TestSubmit_ConnectionRefused(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	client := NewClient(url, url, time.Second)
	_, err := client.Submit(context.Background(), map[string]any{"name": "Rina"})
	if err == nil {
		t.Fatal("Expected error for closed upstream")
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("Connection refused should not be a timeout: %v", err)
	}
}
