package relay

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/autopeer-io/rover/internal/pkg/server"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

type Config struct {
	HttpOptions  *options.HttpOptions
	RelayOptions *options.RelayOptions
}

// Relay is the assembled command relay: HTTP server plus camera monitor.
type Relay struct {
	queue   *Queue
	manager *server.Manager
}

func (cfg *Config) NewRelay() (*Relay, error) {
	if cfg.HttpOptions == nil || cfg.HttpOptions.Addr == "" {
		return nil, fmt.Errorf("relay needs an http address")
	}

	logger := log.WithName("relay")
	clk := clock.New()

	q := NewQueue(clk, cfg.RelayOptions.CameraTimeout, logger)
	h := NewHandler(q, logger)

	httpSrv := server.NewHTTPServer(cfg.HttpOptions,
		server.WithMiddleware(LoggingMiddleware(logger)),
		server.WithRoutes(h.Register),
	)
	monitor := NewMonitor(q, clk, cfg.RelayOptions.MonitorInterval, logger)

	return &Relay{
		queue:   q,
		manager: server.NewManager(httpSrv, monitor),
	}, nil
}

// Run serves until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	log.Info("Command relay running", "cameraConnected", r.queue.CameraConnected())
	return r.manager.Start(ctx)
}
