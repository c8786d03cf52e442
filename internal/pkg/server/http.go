package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

// HTTPOption customizes an HTTP server.
type HTTPOption func(*HTTPServer)

// WithRoutes lets the caller register application routes on the router.
func WithRoutes(register func(r *mux.Router)) HTTPOption {
	return func(s *HTTPServer) { register(s.router) }
}

// WithReadiness makes /readyz answer 503 while check returns an error.
func WithReadiness(check func() error) HTTPOption {
	return func(s *HTTPServer) { s.ready = check }
}

// WithMiddleware wraps every route.
func WithMiddleware(mw ...mux.MiddlewareFunc) HTTPOption {
	return func(s *HTTPServer) { s.router.Use(mw...) }
}

// HTTPServer serves health probes, prometheus metrics and optional application routes.
type HTTPServer struct {
	server *http.Server
	router *mux.Router
	ready  func() error
	opts   *options.HttpOptions
}

func NewHTTPServer(opts *options.HttpOptions, httpOpts ...HTTPOption) *HTTPServer {
	s := &HTTPServer{
		router: mux.NewRouter(),
		opts:   opts,
		ready:  func() error { return nil },
	}

	// Basic Liveness Probe
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	s.router.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	for _, o := range httpOpts {
		o(s)
	}

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
	return s
}

// Handler returns the router, for tests.
func (s *HTTPServer) Handler() http.Handler { return s.router }

func (s *HTTPServer) readyz(w http.ResponseWriter, r *http.Request) {
	if err := s.ready(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	ln, err := net.Listen(s.opts.Network, s.server.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP Server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
