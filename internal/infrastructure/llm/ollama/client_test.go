package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/resilience"
)

func TestCompleterSendsPromptAndTrimsResponse(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  {\"issues_found\":[]}  "}`))
	}))
	defer server.Close()

	completer := NewJSONCompleter(New(server.URL, "tinyllama", "embed"))
	got, err := completer.Complete(context.Background(), "review this")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"issues_found":[]}` {
		t.Fatalf("unexpected completion: %q", got)
	}
	if payload["prompt"] != "review this" || payload["model"] != "tinyllama" || payload["format"] != "json" {
		t.Fatalf("unexpected request payload: %+v", payload)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be marked temporary, got %v", err)
	}
}

func TestCompleterRetriesRetryableStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer server.Close()

	client := NewWithOptions(server.URL, "gen", "embed", Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    2,
			RetryInitialBackoff: time.Millisecond,
			RetryMaxBackoff:     time.Millisecond,
			RetryMultiplier:     2,
		}),
	})
	got, err := NewCompleter(client).Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected retry to succeed, got %q after %d calls", got, calls)
	}
}

func TestCompleterDoesNotRetryBadRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewWithOptions(server.URL, "gen", "embed", Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 3, RetryInitialBackoff: time.Millisecond}),
	})
	_, err := NewCompleter(client).Complete(context.Background(), "p")
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}
