package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schemagen/app/usecase"
	"schemagen/internal/domain/entity"
)

const (
	maxBodyBytes        = 5 << 20
	defaultHistoryLimit = 50
	genericFailure      = "Failed to generate schema"
)

type GenerationHandler struct {
	service  usecase.GenerationUsecase
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// metrics
	reqDuration *prometheus.HistogramVec
	reqCount    *prometheus.CounterVec
	errCount    *prometheus.CounterVec
}

// NewGenerationHandler registers its request metrics on reg, or on the
// default registerer when reg is nil.
func NewGenerationHandler(
	service usecase.GenerationUsecase,
	logger *slog.Logger,
	reg prometheus.Registerer,
) *GenerationHandler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)

	errCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)

	reg.MustRegister(reqDuration, reqCount, errCount)

	return &GenerationHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		reqDuration: reqDuration,
		reqCount:    reqCount,
		errCount:    errCount,
	}
}

// withMetrics records count, duration and errors per route template.
func (h *GenerationHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		duration := time.Since(start).Seconds()
		statusStr := strconv.Itoa(rw.status)

		h.reqCount.WithLabelValues(method, path).Inc()
		h.reqDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if rw.status >= 400 {
			h.errCount.WithLabelValues(method, path, statusStr).Inc()
		}
	}
}

// withRecovery turns a handler panic into the generic 500 response.
func (h *GenerationHandler) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("handler panic", "path", r.URL.Path, "panic", fmt.Sprint(rec))
				writeError(w, http.StatusInternalServerError, errors.New(genericFailure))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack lets the websocket upgrader take over wrapped connections.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (h *GenerationHandler) RegisterRoutes(r *mux.Router) {
	r.Use(h.withRecovery)

	// Full paths on the root router keep method mismatches at 405.
	r.HandleFunc("/api/generate-schema", h.withMetrics(h.handleGenerate)).Methods(http.MethodPost)
	r.HandleFunc("/api/generate-schema/ws", h.withMetrics(h.handleGenerateStream)).Methods(http.MethodGet)
	r.HandleFunc("/api/generations", h.withMetrics(h.handleListGenerations)).Methods(http.MethodGet)
	r.HandleFunc("/api/generations/{id}", h.withMetrics(h.handleGetGeneration)).Methods(http.MethodGet)
	r.HandleFunc("/api/generations/{id}", h.withMetrics(h.handleDeleteGeneration)).Methods(http.MethodDelete)
	r.HandleFunc("/api/generations/{id}/artifacts", h.withMetrics(h.handleGetArtifacts)).Methods(http.MethodGet)
	r.HandleFunc("/api/archive", h.withMetrics(h.handleListArchived)).Methods(http.MethodGet)
	r.HandleFunc("/api/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeServiceError maps usecase errors onto status codes. Unexpected errors
// are logged and answered with fallback only.
func (h *GenerationHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, errors.New(ve.Message))
	case errors.Is(err, entity.ErrNotFound):
		writeError(w, http.StatusNotFound, errors.New("not found"))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, errors.New("request canceled"))
	default:
		h.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, errors.New(fallback))
	}
}

// POST /api/generate-schema
func (h *GenerationHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req entity.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}

	resp, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, genericFailure)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/generations
func (h *GenerationHandler) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	gens, err := h.service.ListGenerations(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, gens)
}

// GET /api/generations/{id}
func (h *GenerationHandler) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, err := h.service.GetGeneration(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GET /api/generations/{id}/artifacts
func (h *GenerationHandler) handleGetArtifacts(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	files, err := h.service.GetArtifacts(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// GET /api/archive
func (h *GenerationHandler) handleListArchived(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListArchived(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// DELETE /api/generations/{id}
func (h *GenerationHandler) handleDeleteGeneration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.DeleteGeneration(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "internal server error")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// GET /api/health
func (h *GenerationHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}
