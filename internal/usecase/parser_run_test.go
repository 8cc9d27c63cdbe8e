package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TokenWatch/internal/alerts"
	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/risk"
	"TokenWatch/internal/services/notify"
	"TokenWatch/internal/services/security"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
)

func securityStub(t *testing.T, rugBody, trustBody string) *security.Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/report") {
			w.Write([]byte(rugBody))
			return
		}
		w.Write([]byte(trustBody))
	}))
	t.Cleanup(srv.Close)
	return security.New(srv.URL, srv.URL, time.Second, logger.Nop())
}

func drainSignals(ch <-chan interface{}) []models.Signal {
	var out []models.Signal
	for {
		select {
		case ev := <-ch:
			if s, ok := ev.(models.Signal); ok {
				out = append(out, s)
			}
		default:
			return out
		}
	}
}

func TestParserRunCleanTokenTrades(t *testing.T) {
	sec := securityStub(t, `{"risk":"low","score":80}`, `{"status":"ok","score":90}`)
	b := bus.New()
	events, cancel := b.Subscribe(16)
	defer cancel()
	store := alerts.NewStore(10)

	j := NewParserRunJob(sec, b, store, notify.New("", time.Second, logger.Nop()), nil, logger.Nop())
	raw, _ := json.Marshal(ParserRunPayload{Mint: "MintA", Symbol: "SOL"})
	if err := j.Handle(context.Background(), json.RawMessage(raw)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	signals := drainSignals(events)
	var parserJob, trade bool
	for _, s := range signals {
		switch s.Kind {
		case models.SignalParserJob:
			parserJob = true
			if sev, _ := s.Meta["severity"].(string); sev != models.SeverityInfo {
				t.Fatalf("severity = %v, want info", s.Meta["severity"])
			}
		case models.SignalTradeSimulated:
			trade = true
			if id, _ := s.Meta["id"].(string); id == "" {
				t.Fatal("simulated trade needs an id")
			}
		}
	}
	if !parserJob || !trade {
		t.Fatalf("expected parser_job and trade signals, got %+v", signals)
	}
	if store.Len() != 0 {
		t.Fatal("clean token must not raise alerts")
	}
}

func TestParserRunFlaggedTokenAlerts(t *testing.T) {
	sec := securityStub(t, `{"risk":"critical"}`, `{"status":"ok","score":20}`)
	b := bus.New()
	events, cancel := b.Subscribe(16)
	defer cancel()
	store := alerts.NewStore(10)

	j := NewParserRunJob(sec, b, store, notify.New("", time.Second, logger.Nop()), nil, logger.Nop())
	raw, _ := json.Marshal(ParserRunPayload{Mint: "MintB"})
	if err := j.Handle(context.Background(), json.RawMessage(raw)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	for _, s := range drainSignals(events) {
		if s.Kind == models.SignalTradeSimulated {
			t.Fatal("flagged token must not trade")
		}
		if s.Kind == models.SignalParserJob {
			issues, _ := s.Meta["issues"].([]string)
			if len(issues) != 2 || issues[0] != risk.IssueRugcheck || issues[1] != risk.IssueSniffer {
				t.Fatalf("issues = %v, want both provider names", issues)
			}
		}
	}
	got := store.List(1)
	if len(got) != 1 {
		t.Fatal("expected one alert")
	}
	if got[0].Severity != models.SeverityCritical {
		t.Fatalf("alert severity = %q, want critical", got[0].Severity)
	}
}

func TestParserRunRequiresMint(t *testing.T) {
	b := bus.New()
	j := NewParserRunJob(nil, b, alerts.NewStore(10), notify.New("", time.Second, logger.Nop()), nil, logger.Nop())
	if err := j.Handle(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for missing mint")
	}
}
