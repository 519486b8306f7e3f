// Package api exposes the monitoring engine over HTTP: session lifecycle
// operations, reliability reports and a server-sent event stream.
package api

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/errors"
)

// APIVersion is the version used in the OpenAPI spec and URL paths.
const APIVersion = "v1"

// Dependencies contains the required external dependencies for the API server.
type Dependencies struct {
	// Addr specifies the network address to bind (e.g., "0.0.0.0:8090").
	Addr string

	// Monitor is the session management surface.
	Monitor contracts.SessionMonitor

	// Store answers cross-session report queries.
	Store contracts.SessionStore

	// Logger for API server operations.
	Logger hclog.Logger
}

// Validate ensures all required dependencies are provided and valid.
func (d Dependencies) Validate() error {
	if err := validateAddr(d.Addr); err != nil {
		return fmt.Errorf("invalid API address '%s': %w", d.Addr, err)
	}
	if d.Monitor == nil || reflect.ValueOf(d.Monitor).IsNil() {
		return fmt.Errorf("session monitor cannot be nil")
	}
	if d.Store == nil || reflect.ValueOf(d.Store).IsNil() {
		return fmt.Errorf("session store cannot be nil")
	}
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	return nil
}

// Server manages the HTTP API for the daemon.
// NewServer should be used to create instances of Server.
type Server struct {
	logger          hclog.Logger
	monitor         contracts.SessionMonitor
	store           contracts.SessionStore
	addr            string
	cors            CORSConfig
	shutdownTimeout time.Duration
}

// NewServer creates a new API server with the provided dependencies and options.
func NewServer(deps Dependencies, opt ...Option) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for API server: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid API options: %w", err)
	}

	return &Server{
		logger:          deps.Logger.Named("api"),
		monitor:         deps.Monitor,
		store:           deps.Store,
		addr:            deps.Addr,
		cors:            opts.CORS,
		shutdownTimeout: opts.ShutdownTimeout,
	}, nil
}

// Start starts the API server and blocks until the context is canceled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)

	if s.cors.Enabled {
		s.applyCORS(mux)
	}

	config := huma.DefaultConfig("mwd docs", APIVersion)
	router := humachi.New(mux, config)

	// Configure the error handling wrapping.
	huma.NewErrorWithContext = errorHandler(s.logger)

	apiPathPrefix, err := RegisterRoutes(router, s.monitor, s.store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Starting API server", "address", s.addr, "prefix", apiPathPrefix)
		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down API server...")
		_ = srv.Shutdown(shutdownCtx)
		s.logger.Info("Shutdown complete")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// applyCORS applies CORS middleware to the router based on the configured options.
func (s *Server) applyCORS(mux *chi.Mux) {
	s.logger.Info("Enabling CORS", "origins", s.cors.AllowOrigins)

	corsOptions := cors.Options{
		AllowedOrigins:   s.cors.AllowOrigins,
		AllowedMethods:   s.cors.AllowMethods,
		AllowedHeaders:   s.cors.AllowedHeaders,
		ExposedHeaders:   s.cors.ExposedHeaders,
		AllowCredentials: s.cors.AllowCredentials,
		MaxAge:           int(s.cors.MaxAge.Seconds()),
	}

	// Handle wildcard origins properly.
	for i, origin := range corsOptions.AllowedOrigins {
		if origin == "*" {
			corsOptions.AllowedOrigins = []string{"*"}
			corsOptions.AllowCredentials = false
			break
		}
		corsOptions.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	mux.Use(cors.Handler(corsOptions))
}

// RegisterRoutes registers all API routes on the provided Huma router.
// This is the single source of truth for the API route structure.
// Returns the API path prefix (e.g., "/api/v1") under which the routes are created.
func RegisterRoutes(router huma.API, monitor contracts.SessionMonitor, store contracts.SessionStore) (string, error) {
	if router == nil || reflect.ValueOf(router).IsNil() {
		return "", fmt.Errorf("router cannot be nil")
	}
	if monitor == nil || reflect.ValueOf(monitor).IsNil() {
		return "", fmt.Errorf("session monitor cannot be nil")
	}
	if store == nil || reflect.ValueOf(store).IsNil() {
		return "", fmt.Errorf("session store cannot be nil")
	}

	apiPathPrefix, err := url.JoinPath("/api", APIVersion)
	if err != nil {
		return "", fmt.Errorf("failed to construct API path prefix: %w", err)
	}

	// Group all routes under the /api/{version} prefix.
	versionedGroup := huma.NewGroup(router, apiPathPrefix)
	RegisterMonitorRoutes(versionedGroup, monitor, "/monitor")
	RegisterReportRoutes(versionedGroup, store, "/reports")
	RegisterEventRoutes(versionedGroup, monitor, "/events")

	return apiPathPrefix, nil
}

// mapError maps application domain errors to appropriate HTTP status codes.
//
// This function is the central place where domain errors from internal/errors
// are converted to HTTP responses. When adding new errors to
// internal/errors/errors.go, you MUST add them here to prevent them from
// falling through to the default case which returns HTTP 500.
//
// Mapping guidelines:
//   - 400: Client errors (bad input, unknown checks, invalid thresholds)
//   - 404: Resource not found errors
//   - 409: Requests that conflict with the session's lifecycle state
//   - 502: Storage/dependency failures
//   - 500: Unexpected internal errors (default case)
func mapError(logger hclog.Logger, err error) huma.StatusError {
	switch {
	case stdErrors.Is(err, errors.ErrBadRequest):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrUnknownCheck):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrInvalidThresholds):
		return huma.Error400BadRequest(err.Error())
	case stdErrors.Is(err, errors.ErrSessionNotFound):
		return huma.Error404NotFound(err.Error())
	case stdErrors.Is(err, errors.ErrSessionNotRunning):
		return huma.Error409Conflict(err.Error())
	case stdErrors.Is(err, errors.ErrStoreUnavailable):
		logger.Error("History store failure", "error", err)
		return huma.Error502BadGateway("history store unavailable", err)
	default:
		logger.Error("Unexpected error handling API request", "error", err)
		return huma.Error500InternalServerError("Internal server error", err)
	}
}

// errorHandler wraps error handling for the application when converting to API
// friendly errors. It allows the logger to be supplied to functions that
// resolve huma.StatusError, and it supports different behaviors based on the
// variadic errors parameter.
func errorHandler(logger hclog.Logger) func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
	return func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		switch len(errs) {
		case 0:
			// No errors provided; return a generic error.
			return huma.NewError(status, msg)
		case 1:
			// Single error; map it directly.
			return mapError(logger, errs[0])
		default:
			// Multiple errors; join them and map.
			combinedErr := stdErrors.Join(errs...)
			return mapError(logger, combinedErr)
		}
	}
}
