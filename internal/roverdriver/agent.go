package roverdriver

import (
	"context"

	"github.com/autopeer-io/rover/internal/pkg/server"
	"github.com/autopeer-io/rover/internal/roverdriver/controller"
	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/internal/roverdriver/telemetry"
	"github.com/autopeer-io/rover/pkg/log"
)

// Agent is the drive node process: control loop plus optional telemetry and HTTP server.
type Agent struct {
	roverID string
	board   core.Board
	ctrl    *controller.Controller

	// Optional.
	publisher *telemetry.Publisher
	httpSrv   *server.HTTPServer
}

func NewAgent(rid string, board core.Board, ctrl *controller.Controller, publisher *telemetry.Publisher, httpSrv *server.HTTPServer) *Agent {
	return &Agent{
		roverID:   rid,
		board:     board,
		ctrl:      ctrl,
		publisher: publisher,
		httpSrv:   httpSrv,
	}
}

// Run blocks until ctx is done or a component fails. The board is released on return.
func (a *Agent) Run(ctx context.Context) error {
	log.Info("Starting rover-driver", "roverID", a.roverID)
	defer func() {
		if err := a.board.Close(); err != nil {
			log.Error(err, "Failed to release board")
		}
	}()

	m := server.NewManager(server.RunnableFunc(a.ctrl.Run))
	if a.publisher != nil {
		m.Add(server.RunnableFunc(a.publisher.Run))
	}
	if a.httpSrv != nil {
		m.Add(a.httpSrv)
	}

	err := m.Start(ctx)
	log.Info("Agent shutting down...")
	return err
}
