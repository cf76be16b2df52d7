// Package api serves the formatter over HTTP.
//
//	POST /v1/format   format one statement
//	POST /v1/mapper   format the statements of a MyBatis mapper document
//	GET  /healthz     liveness
//	GET  /metrics     Prometheus metrics
//	GET  /openapi.json the OpenAPI document for the endpoints above
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sqlpp/internal/domain"
	"sqlpp/internal/mapper"
	"sqlpp/internal/middleware"
	"sqlpp/pkg/sqlfmt"
)

// Config holds what the handler needs from the caller.
type Config struct {
	// Defaults fill in options a request leaves out.
	Defaults           sqlfmt.Options
	MaxBodyBytes       int64
	CORSAllowedOrigins []string
	// RateLimit guards /v1; nil disables rate limiting.
	RateLimit *middleware.RateLimiter
	// Registry receives the service metrics and backs /metrics; nil creates
	// one with NewRegistry.
	Registry *prometheus.Registry
	Logger   *slog.Logger
	Version  string
}

// Handler implements the HTTP endpoints.
type Handler struct {
	cfg      Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
	swagger  *openapi3.T
	started  time.Time
}

// NewHandler validates the defaults and registers the service metrics.
func NewHandler(cfg Config) (*Handler, error) {
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	swagger, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	reg := cfg.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	return &Handler{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  newMetrics(reg),
		swagger:  swagger,
		started:  time.Now(),
	}, nil
}

// Router mounts the endpoints and the middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Get("/openapi.json", h.OpenAPI)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		if h.cfg.RateLimit != nil {
			r.Use(h.cfg.RateLimit.Handler)
		}
		r.Use(chimw.AllowContentType("application/json"))
		r.Post("/format", h.Format)
		r.Post("/mapper", h.Mapper)
	})
	return r
}

// Format handles POST /v1/format.
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	const endpoint = "format"
	start := time.Now()

	d := h.cfg.Defaults
	req := domain.FormatRequest{LineWidth: d.LineWidth, IndentWidth: d.IndentWidth, AliasStyle: d.AliasStyle}
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, endpoint, start, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, endpoint, start, err)
		return
	}

	out, err := sqlfmt.FormatWithOptions(req.SQL, sqlfmt.Options{
		LineWidth:   req.LineWidth,
		IndentWidth: req.IndentWidth,
		AliasStyle:  req.AliasStyle,
	})
	if err != nil {
		h.fail(w, r, endpoint, start, err)
		return
	}
	h.metrics.observe(endpoint, "ok", start)
	writeJSON(w, http.StatusOK, domain.FormatResponse{Formatted: out})
}

// Mapper handles POST /v1/mapper.
func (h *Handler) Mapper(w http.ResponseWriter, r *http.Request) {
	const endpoint = "mapper"
	start := time.Now()

	d := h.cfg.Defaults
	req := domain.MapperRequest{LineWidth: d.LineWidth, IndentWidth: d.IndentWidth, AliasStyle: d.AliasStyle}
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, endpoint, start, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, endpoint, start, err)
		return
	}

	logger := h.logger.With("request_id", middleware.RequestIDFromContext(r.Context()))
	rw, err := mapper.NewRewriter(sqlfmt.Options{
		LineWidth:   req.LineWidth,
		IndentWidth: req.IndentWidth,
		AliasStyle:  req.AliasStyle,
	}, logger)
	if err != nil {
		h.fail(w, r, endpoint, start, err)
		return
	}
	out, res, err := rw.Rewrite([]byte(req.XML))
	if err != nil {
		h.fail(w, r, endpoint, start, domain.ErrValidation("invalid mapper document: %v", err))
		return
	}

	h.metrics.statements.WithLabelValues("formatted").Add(float64(res.Formatted))
	h.metrics.statements.WithLabelValues("dynamic").Add(float64(res.Dynamic))
	h.metrics.statements.WithLabelValues("failed").Add(float64(res.Failed))
	h.metrics.observe(endpoint, "ok", start)
	writeJSON(w, http.StatusOK, domain.MapperResponse{
		XML:        string(out),
		Changed:    res.Changed(),
		Statements: res.Statements,
		Formatted:  res.Formatted,
		Dynamic:    res.Dynamic,
		Failed:     res.Failed,
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        h.cfg.Version,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}

// decode reads a JSON body of at most MaxBodyBytes into v. Fields already
// set in v are kept unless the body names them.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, endpoint string, start time.Time, err error) {
	resp := errorResponse(err)
	h.metrics.observe(endpoint, resp.Kind, start)
	if resp.Code >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "endpoint", endpoint, "error", err)
	}
	writeError(w, r, err)
}
