package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type echoResponse struct {
	Echo string `json:"echo"`
}

// TestDoPostSync_OK posts JSON and decodes the typed response.
func TestDoPostSync_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		w.Write([]byte(`{"echo":"hello"}`))
	}))
	defer server.Close()

	response, err := DoPostSync[echoResponse](context.Background(), server.Client(), server.URL, "secret", map[string]string{"msg": "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Echo != "hello" {
		t.Errorf("expected echo hello, got %q", response.Echo)
	}
}

// TestDoPostSync_NonOKStatus surfaces the response body in the error.
func TestDoPostSync_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := DoPostSync[echoResponse](context.Background(), server.Client(), server.URL, "", nil)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry status and body, got %q", err.Error())
	}
}

// TestTruncateString checks both the pass-through and truncation paths.
func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("short strings must pass through, got %q", got)
	}
	long := strings.Repeat("x", 600)
	got := TruncateString(long, 100)
	if !strings.HasPrefix(got, strings.Repeat("x", 100)) || !strings.Contains(got, "600 chars") {
		t.Errorf("unexpected truncation result: %q", got)
	}
}
