package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"TokenWatch/internal/domain/models"
	domrepo "TokenWatch/internal/domain/repository"
	"TokenWatch/internal/engine"
	"TokenWatch/internal/market"
	"TokenWatch/internal/services/advice"
	"TokenWatch/internal/services/ratelimit"
	"TokenWatch/internal/usecase"
	"TokenWatch/pkg/bus"
	xhttp "TokenWatch/pkg/http"
	xlogger "TokenWatch/pkg/logger"
	"TokenWatch/pkg/metrics"
	"TokenWatch/pkg/util"
)

const (
	ssePingInterval = 15 * time.Second

	// Per-IP budget for the compute-heavy endpoints.
	rateBurst  = 5
	rateRefill = 2 // tokens per second
)

// PipelineHandler serves on-demand analysis, the live signal stream and the
// pipeline status surface.
type PipelineHandler struct {
	logger  *xlogger.Logger
	engine  *engine.Engine
	store   *market.Store
	bus     *bus.Bus
	advice  *advice.Client
	whales  *usecase.WhalesScanJob
	sink    domrepo.SignalSink
	metrics *metrics.Recorder
	limiter *ratelimit.Limiter

	environment string
	assets      []string
	startedAt   time.Time
}

func NewPipelineHandler(
	logger *xlogger.Logger,
	eng *engine.Engine,
	store *market.Store,
	b *bus.Bus,
	adviceClient *advice.Client,
	whales *usecase.WhalesScanJob,
	sink domrepo.SignalSink,
	rec *metrics.Recorder,
	environment string,
	assets []string,
) *PipelineHandler {
	return &PipelineHandler{
		logger:      logger,
		engine:      eng,
		store:       store,
		bus:         b,
		advice:      adviceClient,
		whales:      whales,
		sink:        sink,
		metrics:     rec,
		limiter:     ratelimit.NewLimiter(rateBurst, rateRefill),
		environment: environment,
		assets:      assets,
		startedAt:   time.Now(),
	}
}

func (h *PipelineHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/signals/analyze", h.Analyze)
	e.GET("/signals/history", h.History)
	e.POST("/advice", h.Advice)
	e.GET("/stream", h.Stream)
	e.GET("/status", h.Status)
	e.GET("/whales", h.Whales)
}

// Analyze runs the indicator engine over a caller-supplied candle window.
// Bad indicator math is impossible by construction, so outside of malformed
// input this endpoint always answers 200.
func (h *PipelineHandler) Analyze(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	params := models.DefaultEngineParams()
	if req.Options != nil {
		params = *req.Options
	}
	signals := h.engine.ComputeWith(req.Asset, req.Candles, params)
	if signals == nil {
		signals = []models.Signal{}
	}
	return xhttp.SuccessResponse(c, models.AnalyzeResponse{Asset: req.Asset, Signals: signals})
}

// History serves persisted signals for an asset from the history sink.
func (h *PipelineHandler) History(c echo.Context) error {
	if h.sink == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("signal history not configured"))
	}
	asset := c.QueryParam("asset")
	if asset == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("asset is required"))
	}

	now := time.Now().UTC()
	from := util.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(c.QueryParam("to"), now)
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("limit must be a positive integer"))
		}
		if n > 1000 {
			n = 1000
		}
		limit = n
	}

	signals, err := h.sink.Query(c.Request().Context(), asset, from, to, limit)
	if err != nil {
		h.logger.Error("signal history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("signal history unavailable"))
	}
	if signals == nil {
		signals = []models.Signal{}
	}
	return xhttp.SuccessResponse(c, models.AnalyzeResponse{Asset: asset, Signals: signals})
}

// Advice proxies the request to the configured advice provider.
func (h *PipelineHandler) Advice(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}
	req := &models.AdviceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	raw, err := h.advice.Ask(c.Request().Context(), *req)
	if err != nil {
		if errors.Is(err, advice.ErrNotConfigured) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("advice provider not configured"))
		}
		h.logger.Error("advice upstream error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("advice provider unavailable"))
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// Stream pushes bus events to the client as server-sent events.
func (h *PipelineHandler) Stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	events, cancel := h.bus.Subscribe(64)
	defer cancel()
	h.metrics.SetBusSubscribers(h.bus.Subscribers())
	defer func() { h.metrics.SetBusSubscribers(h.bus.Subscribers()) }()

	ping := time.NewTicker(ssePingInterval)
	defer ping.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ping.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			body, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", body); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

// Status reports environment, uptime and per-asset window fill.
func (h *PipelineHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.StatusResponse{
		Environment: h.environment,
		Uptime:      time.Since(h.startedAt).Round(time.Second).String(),
		Assets:      h.assets,
		Subscribers: h.bus.Subscribers(),
		Candles:     h.store.Counts(),
	})
}

// Whales serves the last cached whale scan report.
func (h *PipelineHandler) Whales(c echo.Context) error {
	if h.whales == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("whale scan not available"))
	}
	body, status, err := h.whales.LastResult(c.Request().Context())
	if err != nil {
		h.logger.Error("whale scan lookup error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if body == nil {
		return xhttp.SuccessResponse(c, map[string]string{"status": status})
	}
	return c.JSONBlob(http.StatusOK, body)
}
