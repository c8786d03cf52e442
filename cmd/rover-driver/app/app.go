package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/rover/cmd/rover-driver/app/options"
	"github.com/autopeer-io/rover/pkg/app"
	"github.com/autopeer-io/rover/pkg/log"
)

const (
	commandName = "rover-driver"
	commandDesc = `The rover driver runs on the rover. It polls the vision node (or the command
relay) for the next command and drives the steering servos and the six wheel
motors accordingly, one timed maneuver at a time.`
)

func NewApp() *app.App {
	opts := options.NewDriverOptions()
	application := app.NewApp(
		commandName,
		"Launch the rover drive node",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithCommands(newPinsCommand()),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.DriverOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		return agent.Run(ctx)
	}
}
