package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TokenWatch/internal/domain/models"
	"TokenWatch/pkg/logger"
)

func TestPostAlertDelivers(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(srv.URL, time.Second, logger.Nop())
	n.PostAlert(context.Background(), models.Alert{ID: "a1", Title: "pump"})

	if gotPath != "/alerts" {
		t.Fatalf("path = %q, want /alerts", gotPath)
	}
}

func TestPostAlertSoftFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// must not panic or block
	n := New(srv.URL, time.Second, logger.Nop())
	n.PostAlert(context.Background(), models.Alert{ID: "a1"})
}

func TestDisabledNotifierNoops(t *testing.T) {
	n := New("", time.Second, logger.Nop())
	if n.Enabled() {
		t.Fatal("empty base url must disable the notifier")
	}
	n.PostTradeConfirm(context.Background(), map[string]string{"id": "t1"})
}
