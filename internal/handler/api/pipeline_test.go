package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"TokenWatch/internal/alerts"
	"TokenWatch/internal/domain/models"
	"TokenWatch/internal/engine"
	"TokenWatch/internal/market"
	"TokenWatch/internal/services/advice"
	"TokenWatch/pkg/bus"
	"TokenWatch/pkg/logger"
)

func newTestHandler() *PipelineHandler {
	return NewPipelineHandler(
		logger.Nop(),
		engine.New(models.DefaultEngineParams()),
		market.NewStore(300),
		bus.New(),
		advice.New("", "", 0),
		nil,
		nil,
		nil,
		"test",
		[]string{"SOL"},
	)
}

func doJSON(t *testing.T, handler func(echo.Context) error, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		e.HTTPErrorHandler(err, e.NewContext(req, rec))
	}
	return rec
}

func analyzeBody(n int, jumpAt int) string {
	var sb strings.Builder
	sb.WriteString(`{"asset":"SOL","candles":[`)
	for i := 0; i < n; i++ {
		price := 100.0
		if jumpAt > 0 && i >= jumpAt {
			price = 108
		}
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"t":%d,"o":%g,"h":%g,"l":%g,"c":%g,"v":100}`, i, price, price, price, price)
	}
	sb.WriteString(`]}`)
	return sb.String()
}

func TestAnalyzeReturnsSignals(t *testing.T) {
	h := newTestHandler()
	rec := doJSON(t, h.Analyze, http.MethodPost, "/signals/analyze", analyzeBody(80, 50))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"pump"`) {
		t.Fatalf("expected a pump signal in %s", rec.Body.String())
	}
}

func TestAnalyzeShortWindowStillOK(t *testing.T) {
	h := newTestHandler()
	rec := doJSON(t, h.Analyze, http.MethodPost, "/signals/analyze", analyzeBody(5, 0))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a short window", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"signals":[]`) {
		t.Fatalf("expected empty signals array, got %s", rec.Body.String())
	}
}

func TestAnalyzeEmptyCandlesYieldsNoSignals(t *testing.T) {
	h := newTestHandler()
	for _, body := range []string{`{"asset":"SOL"}`, `{"asset":"SOL","candles":[]}`} {
		rec := doJSON(t, h.Analyze, http.MethodPost, "/signals/analyze", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d for %s, want 200", rec.Code, body)
		}
		if !strings.Contains(rec.Body.String(), `"signals":[]`) {
			t.Fatalf("expected empty signals for %s, got %s", body, rec.Body.String())
		}
	}
}

func TestAnalyzeRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler()
	rec := doJSON(t, h.Analyze, http.MethodPost, "/signals/analyze", `{"candles": [`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	h := newTestHandler()
	body := analyzeBody(5, 0)
	var last int
	for i := 0; i < rateBurst+1; i++ {
		last = doJSON(t, h.Analyze, http.MethodPost, "/signals/analyze", body).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("status after burst = %d, want 429", last)
	}
}

func TestAdviceUnconfigured(t *testing.T) {
	h := newTestHandler()
	rec := doJSON(t, h.Advice, http.MethodPost, "/advice", `{"prompt":"should I buy"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 when no provider set", rec.Code)
	}
}

func TestAdvicePassesUpstreamBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"advice":"wait"}`))
	}))
	defer srv.Close()

	h := newTestHandler()
	h.advice = advice.New(srv.URL, "", 0)
	rec := doJSON(t, h.Advice, http.MethodPost, "/advice", `{"prompt":"eth?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"wait"`) {
		t.Fatalf("upstream body not passed through: %s", rec.Body.String())
	}
}

type fakeSink struct {
	signals []models.Signal
}

func (f *fakeSink) Init(context.Context) error                        { return nil }
func (f *fakeSink) Store(context.Context, models.Signal) error        { return nil }
func (f *fakeSink) StoreBatch(context.Context, []models.Signal) error { return nil }
func (f *fakeSink) Health(context.Context) error                      { return nil }
func (f *fakeSink) Close() error                                      { return nil }

func (f *fakeSink) Query(_ context.Context, asset string, _, _ time.Time, limit int) ([]models.Signal, error) {
	out := make([]models.Signal, 0, len(f.signals))
	for _, s := range f.signals {
		if s.Asset == asset && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestHistoryWithoutSink(t *testing.T) {
	h := newTestHandler()
	rec := doJSON(t, h.History, http.MethodGet, "/signals/history?asset=SOL", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 without a sink", rec.Code)
	}
}

func TestHistoryReturnsStoredSignals(t *testing.T) {
	h := newTestHandler()
	h.sink = &fakeSink{signals: []models.Signal{
		{Asset: "SOL", Kind: models.SignalPump, Strength: 0.8},
		{Asset: "ETH", Kind: models.SignalDump, Strength: 0.4},
	}}

	rec := doJSON(t, h.History, http.MethodGet, "/signals/history?asset=SOL", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"pump"`) || strings.Contains(body, `"dump"`) {
		t.Fatalf("expected only SOL signals, got %s", body)
	}

	rec = doJSON(t, h.History, http.MethodGet, "/signals/history?asset=SOL&limit=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit should 400, got %d", rec.Code)
	}
}

func TestStatusReportsWindows(t *testing.T) {
	h := newTestHandler()
	h.store.Append("SOL", models.Candle{T: 1, C: 100})

	rec := doJSON(t, h.Status, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data models.StatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Environment != "test" {
		t.Fatalf("environment = %q", resp.Data.Environment)
	}
	if resp.Data.Candles["SOL"] != 1 {
		t.Fatalf("candle counts = %v", resp.Data.Candles)
	}
}

func TestAlertsEndpoints(t *testing.T) {
	store := alerts.NewStore(10)
	h := NewAlertsHandler(store)

	rec := doJSON(t, h.Create, http.MethodPost, "/api/alerts", `{"title":"whale","severity":"warn","source":"chain"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h.Create, http.MethodPost, "/api/alerts", `{"severity":"warn"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing title should 400, got %d", rec.Code)
	}

	rec = doJSON(t, h.List, http.MethodGet, "/api/alerts", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"whale"`) {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}

	id := store.List(1)[0].ID
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/alerts/"+id+"/ack", nil)
	ackRec := httptest.NewRecorder()
	c := e.NewContext(req, ackRec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.Ack(c); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if ackRec.Code != http.StatusOK || !strings.Contains(ackRec.Body.String(), `"acked":true`) {
		t.Fatalf("ack status = %d, body %s", ackRec.Code, ackRec.Body.String())
	}
}
