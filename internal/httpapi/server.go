package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"predictd/internal/predictor"
	"predictd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Predict(ctx context.Context, in types.PredictInput, onPiece func(string) error) (predictor.Result, error)
	Defaults() types.PredictInput
	Schema() types.SchemaResponse
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	h := &handlers{svc: svc}
	r.Post("/predictions", inflight("/predictions", h.predict))
	r.Post("/predictions/stream", inflight("/predictions/stream", h.predictStream))
	r.Get("/ws/predictions", inflight("/ws/predictions", h.predictWS))
	r.Get("/schema", h.schema)
	r.Get("/status", h.status)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	if swaggerEnabled {
		MountSwagger(r)
	}
	return r
}

type handlers struct {
	svc Service
}

// decodePrediction reads a prediction envelope. Omitted input fields keep the
// service defaults. It writes the error response itself and reports false on failure.
func (h *handlers) decodePrediction(w http.ResponseWriter, r *http.Request) (types.PredictionRequest, bool) {
	req := types.PredictionRequest{Input: h.svc.Defaults()}
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return req, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Oversized bodies also land here; report them as 400 without detail.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if req.ID == "" {
		req.ID = middleware.GetReqID(r.Context())
	}
	return req, true
}

func metricsOf(res predictor.Result) *types.PredictionMetrics {
	return &types.PredictionMetrics{
		PredictTime: res.Duration.Seconds(),
		Pieces:      res.Pieces,
		Cached:      res.Cached,
	}
}

// predict godoc
// @Summary      Run a prediction
// @Description  Runs one generation and returns the final output.
// @Tags         predictions
// @Accept       json
// @Produce      json
// @Param        request  body      types.PredictionRequest  true  "Prediction input"
// @Success      200      {object}  types.PredictionResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /predictions [post]
func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePrediction(w, r)
	if !ok {
		return
	}
	rl := newRequestLogger(r)
	rl.begin("predict start")
	ctx, cancel := predictContext(r.Context())
	defer cancel()
	res, err := h.svc.Predict(ctx, req.Input, nil)
	if err != nil {
		if abandoned(r.Context()) {
			return
		}
		status := writeServiceError(w, err)
		rl.end("predict end", status, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.PredictionResponse{
		ID:      req.ID,
		Status:  "succeeded",
		Output:  res.Output,
		Metrics: metricsOf(res),
	})
	rl.end("predict end", http.StatusOK, nil)
}

// predictStream godoc
// @Summary      Stream a prediction
// @Description  Streams NDJSON lines: one {"token"} per piece, then a final {"done":true}.
// @Tags         predictions
// @Accept       json
// @Produce      application/x-ndjson
// @Param        request  body      types.PredictionRequest  true  "Prediction input"
// @Success      200      {object}  types.StreamEvent
// @Failure      400      {object}  types.ErrorResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /predictions/stream [post]
func (h *handlers) predictStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePrediction(w, r)
	if !ok {
		return
	}
	rl := newRequestLogger(r)
	rl.begin("predict stream start")

	var out io.Writer = w
	if lw := rl.lineLogger(); lw != nil {
		out = io.MultiWriter(w, lw)
	}
	enc := json.NewEncoder(out)
	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	started := false
	start := func() {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
	}

	ctx, cancel := predictContext(r.Context())
	defer cancel()
	res, err := h.svc.Predict(ctx, req.Input, func(piece string) error {
		start()
		if err := enc.Encode(types.StreamEvent{Token: piece}); err != nil {
			return err
		}
		streamedPiecesTotal.WithLabelValues("ndjson").Inc()
		flush()
		return nil
	})
	if err != nil {
		if abandoned(r.Context()) {
			return
		}
		if !started {
			status := writeServiceError(w, err)
			rl.end("predict stream end", status, err)
			return
		}
		_ = enc.Encode(types.StreamEvent{Done: true, Error: err.Error()})
		flush()
		rl.end("predict stream end", http.StatusOK, err)
		return
	}
	start()
	_ = enc.Encode(types.StreamEvent{Done: true, Output: res.Output, Metrics: metricsOf(res)})
	flush()
	rl.end("predict stream end", http.StatusOK, nil)
}

// schema godoc
// @Summary      Input schema
// @Description  Lists every input field with its type, bounds and default.
// @Tags         meta
// @Produce      json
// @Success      200  {object}  types.SchemaResponse
// @Router       /schema [get]
func (h *handlers) schema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.svc.Schema()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// status godoc
// @Summary      Predictor status
// @Tags         meta
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.svc.Status()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
