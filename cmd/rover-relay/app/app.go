package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/rover/cmd/rover-relay/app/options"
	"github.com/autopeer-io/rover/pkg/app"
	"github.com/autopeer-io/rover/pkg/log"
)

const (
	commandName = "rover-relay"
	commandDesc = `The rover relay queues commands pushed by the vision node and hands them to
the rover driver one at a time through GET /next-command. The queue is dropped
when the camera stops sending commands or heartbeats.`
)

func NewApp() *app.App {
	opts := options.NewRelayOptions()
	application := app.NewApp(
		commandName,
		"Launch the rover command relay",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.RelayOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		r, err := cfg.NewRelay()
		if err != nil {
			return fmt.Errorf("failed to create relay: %w", err)
		}

		return r.Run(ctx)
	}
}
