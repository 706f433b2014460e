package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sparkfn/webhook-listener/internal/domain"
	"github.com/sparkfn/webhook-listener/internal/dto"
	"github.com/sparkfn/webhook-listener/internal/hub"
	"github.com/sparkfn/webhook-listener/internal/metrics"
	"github.com/sparkfn/webhook-listener/internal/namespace"
	"github.com/sparkfn/webhook-listener/internal/service"
)

type Handler struct {
	captureService service.CaptureServicer
	registry       *namespace.Registry
	hub            *hub.Hub
	metrics        *metrics.Metrics
	maxBodySize    int64
	router         *gin.Engine
	log            *zap.Logger
}

func NewHandler(
	captureService service.CaptureServicer,
	registry *namespace.Registry,
	wsHub *hub.Hub,
	m *metrics.Metrics,
	maxBodySize int64,
	log *zap.Logger,
) *Handler {
	h := &Handler{
		captureService: captureService,
		registry:       registry,
		hub:            wsHub,
		metrics:        m,
		maxBodySize:    maxBodySize,
		router:         gin.Default(),
		log:            log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/api/namespaces", h.listNamespaces)
	h.router.GET("/api/events", h.listEvents)
	h.router.DELETE("/api/events", h.clearEvents)
	h.router.Any("/hook/:ns", h.captureHook)
	h.router.Any("/hook/:ns/*rest", h.captureHook)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.router.GET("/ws", func(c *gin.Context) {
		h.hub.ServeWS(c.Writer, c.Request)
	})
}

// healthCheck handles GET /health
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// listNamespaces handles GET /api/namespaces
func (h *Handler) listNamespaces(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NamespacesResponse{
		Namespaces: h.captureService.ListNamespaces(),
	})
}

// listEvents handles GET /api/events?ns=<name>
func (h *Handler) listEvents(c *gin.Context) {
	ns := c.Query("ns")

	events, err := h.captureService.ListEvents(ns)
	if err != nil {
		if errors.Is(err, domain.ErrNamespaceNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "namespace_not_found"})
			return
		}
		h.log.Error("Failed to list events",
			zap.String("namespace", ns),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}

	c.JSON(http.StatusOK, dto.EventsResponse{Events: events})
}

// clearEvents handles DELETE /api/events?ns=<name>
func (h *Handler) clearEvents(c *gin.Context) {
	ns := c.Query("ns")

	if err := h.captureService.ClearEvents(ns); err != nil {
		if errors.Is(err, domain.ErrNamespaceNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "namespace_not_found"})
			return
		}
		h.log.Error("Failed to clear events",
			zap.String("namespace", ns),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}

	c.JSON(http.StatusOK, dto.ClearResponse{OK: true})
}

// captureHook handles ANY /hook/:ns and anything below it. The namespace is
// validated before the body is buffered, so an unknown namespace never costs
// a body read and never mutates state.
func (h *Handler) captureHook(c *gin.Context) {
	ns := c.Param("ns")

	if !h.registry.IsValid(ns) {
		h.metrics.CapturesRejected.WithLabelValues("namespace_not_found").Inc()
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "namespace_not_found"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.log.Warn("Capture body over size ceiling",
				zap.String("namespace", ns),
				zap.Int64("limit", maxErr.Limit))
			h.metrics.CapturesRejected.WithLabelValues("body_too_large").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "body_too_large"})
			return
		}
		h.metrics.CapturesRejected.WithLabelValues("body_read_failed").Inc()
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "body_read_failed"})
		return
	}

	event, err := h.captureService.Capture(c.Request.Context(), ns, c.Request, body)
	if err != nil {
		if errors.Is(err, domain.ErrNamespaceNotFound) {
			h.metrics.CapturesRejected.WithLabelValues("namespace_not_found").Inc()
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "namespace_not_found"})
			return
		}
		h.log.Error("Failed to record capture",
			zap.String("namespace", ns),
			zap.String("method", c.Request.Method),
			zap.Error(err))
		h.metrics.CapturesRejected.WithLabelValues("storage_error").Inc()
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}

	h.metrics.CapturesAccepted.WithLabelValues(ns).Inc()
	h.metrics.NormalizeDuration.Observe(event.DurationMs / 1000.0)

	h.log.Info("Capture recorded",
		zap.String("event_id", event.ID),
		zap.String("namespace", ns),
		zap.String("method", event.Method),
		zap.Int("size_bytes", event.SizeBytes))

	c.JSON(http.StatusOK, dto.CaptureResponse{OK: true, ID: event.ID})
}
