// Package httpapi serves pipeline results as JSON to an external presentation layer.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rewired-gh/bikeshare/internal/config"
	"github.com/rewired-gh/bikeshare/internal/dataset"
	"github.com/rewired-gh/bikeshare/internal/logger"
	"github.com/rewired-gh/bikeshare/internal/models"
	"github.com/rewired-gh/bikeshare/internal/pipeline"
	"github.com/rewired-gh/bikeshare/internal/storage"
)

// DatasetSource hands out the loaded dataset
type DatasetSource interface {
	Get(ctx context.Context) (*dataset.Dataset, error)
}

// ImportLister lists dataset imports
type ImportLister interface {
	ListImports(ctx context.Context, limit int) ([]storage.ImportRun, error)
}

// Server is the HTTP API
type Server struct {
	data     DatasetSource
	imports  ImportLister
	defaults models.FilterSelection
	view     pipeline.View
	cfg      config.ServerConfig
	srv      *http.Server
}

// NewServer creates a Server. imports may be nil.
func NewServer(cfg config.ServerConfig, data DatasetSource, imports ImportLister, defaults models.FilterSelection, view pipeline.View) *Server {
	s := &Server{
		data:     data,
		imports:  imports,
		defaults: defaults,
		view:     view,
		cfg:      cfg,
	}
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/report", s.report).Methods(http.MethodGet)
	api.HandleFunc("/records", s.records).Methods(http.MethodGet)
	api.HandleFunc("/describe", s.describe).Methods(http.MethodGet)
	api.HandleFunc("/correlation", s.correlation).Methods(http.MethodGet)
	api.HandleFunc("/scatter/{field}", s.scatter).Methods(http.MethodGet)
	api.HandleFunc("/imports", s.listImports).Methods(http.MethodGet)

	var h http.Handler = r
	if len(s.cfg.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.cfg.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet}),
		)(h)
	}
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLog{}), handlers.PrintRecoveryStack(false))(h)
	return handlers.LoggingHandler(accessLog{}, h)
}

// Start serves until Shutdown; http.ErrServerClosed is not an error
func (s *Server) Start() error {
	logger.Info("HTTP API listening on %s", s.cfg.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filtered resolves the request's selection and view and applies the filter
func (s *Server) filtered(w http.ResponseWriter, r *http.Request) ([]models.Record, []models.Record, models.FilterSelection, pipeline.View, bool) {
	sel, view, err := parseQuery(r.URL.Query(), s.defaults, s.view)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, nil, sel, view, false
	}
	ds, err := s.data.Get(r.Context())
	if err != nil {
		logger.Error("Dataset unavailable: %v", err)
		writeError(w, http.StatusServiceUnavailable, errors.New("dataset unavailable"))
		return nil, nil, sel, view, false
	}
	all := ds.Records(view.Granularity)
	return all, pipeline.ApplyFilters(all, sel), sel, view, true
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	sel, view, err := parseQuery(r.URL.Query(), s.defaults, s.view)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, err := s.data.Get(r.Context())
	if err != nil {
		logger.Error("Dataset unavailable: %v", err)
		writeError(w, http.StatusServiceUnavailable, errors.New("dataset unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, pipeline.Compute(ds.Records(view.Granularity), sel, view))
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	all, filtered, _, _, ok := s.filtered(w, r)
	if !ok {
		return
	}

	page := filtered
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		if limit > 0 && limit < len(page) {
			page = page[:limit]
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":    len(all),
		"matched":  len(filtered),
		"returned": len(page),
		"records":  page,
	})
}

func (s *Server) describe(w http.ResponseWriter, r *http.Request) {
	_, filtered, _, _, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pipeline.Describe(filtered, pipeline.NumericFields))
}

func (s *Server) correlation(w http.ResponseWriter, r *http.Request) {
	fields := pipeline.NumericFields
	if v := r.URL.Query().Get("fields"); v != "" {
		fields = nil
		for _, name := range strings.Split(v, ",") {
			f, err := pipeline.ParseField(name)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			fields = append(fields, f)
		}
	}

	_, filtered, _, _, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pipeline.CorrelationMatrix(filtered, fields))
}

func (s *Server) scatter(w http.ResponseWriter, r *http.Request) {
	field, err := pipeline.ParseField(mux.Vars(r)["field"])
	if err != nil || field == pipeline.FieldCount {
		writeError(w, http.StatusNotFound, errors.New("scatter field must be one of: temp, hum, windspeed"))
		return
	}

	_, filtered, _, _, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"field":  field.String(),
		"points": pipeline.Scatter(filtered, field),
	})
}

func (s *Server) listImports(w http.ResponseWriter, r *http.Request) {
	if s.imports == nil {
		writeJSON(w, http.StatusOK, []storage.ImportRun{})
		return
	}
	runs, err := s.imports.ListImports(r.Context(), 20)
	if err != nil {
		logger.Error("Failed to list imports: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to list imports"))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode response: %v", err)
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requestID tags every response with an X-Request-ID, reusing the caller's if present
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// accessLog routes gorilla's combined access log lines into the leveled logger
type accessLog struct{}

func (accessLog) Write(p []byte) (int, error) {
	logger.Info("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

type recoveryLog struct{}

func (recoveryLog) Println(v ...interface{}) {
	logger.Error("Recovered from panic: %s", fmt.Sprint(v...))
}

// shutdownTimeout bounds graceful shutdown in ShutdownWithTimeout
const shutdownTimeout = 10 * time.Second

// ShutdownWithTimeout is Shutdown bounded by a fixed timeout
func (s *Server) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
