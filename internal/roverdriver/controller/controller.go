// Package controller runs the drive node control loop: connectivity, polling and maneuver timeouts.
package controller

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/internal/roverdriver/motion"
	"github.com/autopeer-io/rover/pkg/log"
)

// Config holds the collaborators and timing of a Controller.
type Config struct {
	Machine  *motion.Machine
	Source   core.CommandSource
	Link     core.Link
	Reporter core.Reporter
	Clock    clock.Clock
	Logger   log.Logger

	// RemoteStop delivers stop requests from outside the loop. Optional.
	RemoteStop <-chan struct{}

	// PollInterval is the minimum time between two polls.
	PollInterval time.Duration
	// Tick is the loop period.
	Tick time.Duration
}

// Controller owns the motion machine and decides when to poll.
type Controller struct {
	machine  *motion.Machine
	source   core.CommandSource
	link     core.Link
	reporter core.Reporter
	clock    clock.Clock
	logger   log.Logger

	remoteStop <-chan struct{}

	pollInterval time.Duration
	tick         time.Duration

	polled       bool
	lastPoll     time.Time
	lastExecuted core.Command
}

func New(cfg Config) *Controller {
	c := &Controller{
		machine:      cfg.Machine,
		source:       cfg.Source,
		link:         cfg.Link,
		reporter:     cfg.Reporter,
		remoteStop:   cfg.RemoteStop,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
		tick:         cfg.Tick,
		lastExecuted: core.Stop,
	}
	if c.reporter == nil {
		c.reporter = core.NopReporter{}
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.logger == nil {
		c.logger = log.NewNopLogger()
	}
	return c
}

// LastExecuted returns the last command that started or stopped a maneuver.
func (c *Controller) LastExecuted() core.Command { return c.lastExecuted }

// Run neutralizes the actuators and loops until ctx is done. The actuators are
// neutralized again on the way out.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("Starting control loop", "pollInterval", c.pollInterval, "tick", c.tick)

	c.neutralize(ctx)
	defer c.neutralize(context.Background())

	ticker := c.clock.Ticker(c.tick)
	defer ticker.Stop()

	for {
		// Step only fails when ctx ends during a reconnect.
		if err := c.Step(ctx); err != nil {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			c.logger.Info("Shutting down control loop")
			return nil
		}
	}
}

// Step runs one loop iteration: connectivity check, pending remote stop, poll when due, timeout check.
// It only returns an error when ctx ends while waiting for the link.
func (c *Controller) Step(ctx context.Context) error {
	if err := c.ensureLink(ctx); err != nil {
		return err
	}

	select {
	case <-c.remoteStop:
		c.logger.Info("Remote stop requested")
		metrics.RemoteStopTotal.Inc()
		c.dispatch(ctx, core.Stop)
	default:
	}

	if now := c.clock.Now(); c.pollDue(now) {
		c.polled = true
		c.lastPoll = now
		c.poll(ctx)
	}

	fired, err := c.machine.CheckTimeout(ctx, c.clock.Now())
	if err != nil {
		c.logger.Error(err, "Actuator write failed while ending maneuver")
	}
	if fired {
		metrics.MotionTimeoutTotal.Inc()
		metrics.MotionExecuting.Set(0)
		c.report(core.EventMotionTimeout, core.Stop, nil)
	}
	return nil
}

func (c *Controller) pollDue(now time.Time) bool {
	return !c.polled || now.Sub(c.lastPoll) >= c.pollInterval
}

func (c *Controller) ensureLink(ctx context.Context) error {
	if c.link.Connected() {
		metrics.LinkUp.Set(1)
		return nil
	}

	metrics.LinkUp.Set(0)
	c.logger.Warn("Link down, reconnecting")
	if err := c.link.Connect(ctx); err != nil {
		return err
	}
	metrics.LinkUp.Set(1)
	c.logger.Info("Link restored")
	return nil
}

func (c *Controller) poll(ctx context.Context) {
	cmd, err := c.source.Next(ctx, c.lastExecuted)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.PollTotal.WithLabelValues("failed").Inc()
		c.logger.Warn("Poll failed, treating as stop", "err", err.Error())
		c.report(core.EventPollFailed, core.Stop, err)
		cmd = core.Stop
	} else {
		metrics.PollTotal.WithLabelValues("ok").Inc()
	}
	metrics.CommandTotal.WithLabelValues(cmd.String()).Inc()

	c.dispatch(ctx, cmd)
}

func (c *Controller) dispatch(ctx context.Context, cmd core.Command) {
	wasExecuting := c.machine.Executing()

	outcome, err := c.machine.Dispatch(ctx, cmd, c.clock.Now())
	if err != nil {
		c.logger.Error(err, "Actuator write failed", "command", cmd)
	}
	metrics.DispatchTotal.WithLabelValues(outcome.String()).Inc()
	metrics.MotionExecuting.Set(metrics.BoolToFloat(c.machine.Executing()))

	switch outcome {
	case motion.OutcomeStarted:
		c.lastExecuted = cmd
		c.report(core.EventMotionStarted, cmd, err)
	case motion.OutcomeStopped:
		c.lastExecuted = cmd
		if wasExecuting {
			c.report(core.EventMotionStopped, cmd, err)
		}
	case motion.OutcomeRejected:
		c.logger.Info("Command rejected while executing", "command", cmd, "active", c.machine.Active())
		c.report(core.EventCommandRejected, cmd, nil)
	case motion.OutcomeDuplicate:
		c.logger.Debug("Command already executing", "command", cmd)
	}
}

func (c *Controller) neutralize(ctx context.Context) {
	if _, err := c.machine.Dispatch(ctx, core.Stop, c.clock.Now()); err != nil {
		c.logger.Error(err, "Failed to neutralize actuators")
	}
	c.lastExecuted = core.Stop
	metrics.MotionExecuting.Set(0)
}

func (c *Controller) report(t core.EventType, cmd core.Command, err error) {
	steering, drive := c.machine.Position()
	ev := core.Event{
		Type:     t,
		Command:  cmd.String(),
		Active:   c.machine.Active().String(),
		Steering: steering,
		Drive:    drive.String(),
		Time:     c.clock.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	c.reporter.Report(ev)
}
