package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"TokenWatch/internal/alerts"
	"TokenWatch/internal/domain/models"
	xhttp "TokenWatch/pkg/http"
)

// AlertsHandler exposes the in-memory alert registry.
type AlertsHandler struct {
	store *alerts.Store
}

func NewAlertsHandler(store *alerts.Store) *AlertsHandler {
	return &AlertsHandler{store: store}
}

func (h *AlertsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/alerts", h.List)
	g.POST("/alerts", h.Create)
	g.POST("/alerts/:id/ack", h.Ack)
}

func (h *AlertsHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items := h.store.List(limit)
	return xhttp.ListResponse(c, items, int64(h.store.Len()))
}

func (h *AlertsHandler) Create(c echo.Context) error {
	req := &models.CreateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	a := h.store.Create(req.Title, req.Severity, req.Source, req.Message, req.Payload)
	return xhttp.CreatedResponse(c, a)
}

func (h *AlertsHandler) Ack(c echo.Context) error {
	a, err := h.store.Ack(c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("alert not found"))
	}
	return xhttp.SuccessResponse(c, a)
}
