package advice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TokenWatch/internal/domain/models"
)

func TestAskPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k1" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(`{"advice":"hold"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k1", time.Second)
	raw, err := c.Ask(context.Background(), models.AdviceRequest{Prompt: "SOL outlook"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if string(raw) != `{"advice":"hold"}` {
		t.Fatalf("body = %s", raw)
	}
}

func TestAskNotConfigured(t *testing.T) {
	c := New("", "", time.Second)
	if _, err := c.Ask(context.Background(), models.AdviceRequest{Prompt: "x"}); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestAskUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	if _, err := c.Ask(context.Background(), models.AdviceRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected error from upstream 502")
	}
}
