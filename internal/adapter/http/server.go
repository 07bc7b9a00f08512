package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/adapter/tecplot"
	"github.com/couchcryptid/obswell-etl/internal/config"
	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/couchcryptid/obswell-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxUploadBytes caps the size of a block file accepted by /v1/convert.
const maxUploadBytes = 64 << 20

// Converter turns an uploaded block file into a finished batch.
type Converter interface {
	sharedobs.ReadinessChecker
	Convert(ctx context.Context, r io.Reader, job pipeline.Job) (domain.Batch, error)
}

// Server exposes health, readiness, metrics, and conversion endpoints.
type Server struct {
	httpServer  *http.Server
	converter   Converter
	defaults    pipeline.Options
	floatFormat string
	logger      *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /v1/convert routes. defaults apply to every conversion unless a
// query parameter overrides them.
func NewServer(addr string, converter Converter, defaults pipeline.Options, floatFormat string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		converter:   converter,
		defaults:    defaults,
		floatFormat: floatFormat,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(converter))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/convert", s.handleConvert)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleConvert reads a block file from the request body and responds with
// the converted table in Tecplot form.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	batch, err := s.converter.Convert(r.Context(), body, job)
	if err != nil {
		status := statusFor(err)
		s.logger.Warn("convert request failed", "status", status, "error", err)
		writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", batch.Zone+".csv"))
	w.WriteHeader(http.StatusOK)
	if err := tecplot.Encode(w, batch, s.floatFormat); err != nil {
		s.logger.Error("write convert response", "zone", batch.Zone, "error", err)
	}
}

// jobFromQuery overlays query parameters on the server defaults.
func (s *Server) jobFromQuery(q url.Values) (pipeline.Job, error) {
	opts := s.defaults
	zone := q.Get("zone")
	job := pipeline.Job{Input: "upload", Zone: zone}
	if zone != "" {
		job.Input = zone
	}

	if v := q.Get("variables"); v != "" {
		opts.Selection.Variables = config.SplitList(v)
	}
	for key, dst := range map[string]*int{
		"start_block": &opts.Selection.StartBlock,
		"end_block":   &opts.Selection.EndBlock,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return pipeline.Job{}, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
		}
		*dst = n
	}
	for key, dst := range map[string]*bool{
		"depth":    &opts.Depth,
		"calendar": &opts.Calendar,
		"weekly":   &opts.Weekly,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return pipeline.Job{}, fmt.Errorf("%s must be a boolean, got %q", key, v)
		}
		*dst = b
	}
	if q.Has("date_format") {
		opts.DateFormat = q.Get("date_format")
	}
	if v := q.Get("epoch"); v != "" {
		epoch, err := domain.ParseEpoch(v)
		if err != nil {
			return pipeline.Job{}, err
		}
		opts.Epoch = epoch
	}

	job.Options = opts
	return job, nil
}

var unprocessable = []error{
	domain.ErrFormat,
	domain.ErrRange,
	domain.ErrParse,
	domain.ErrLengthMismatch,
	domain.ErrMissingField,
	domain.ErrTypeMismatch,
	domain.ErrValue,
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{
		"status": http.StatusText(status),
		"error":  err.Error(),
	})
}
