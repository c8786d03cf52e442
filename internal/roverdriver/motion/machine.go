// Package motion runs one open-loop maneuver at a time on the rover actuators.
package motion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	fsmutil "github.com/autopeer-io/rover/internal/pkg/util/fsm"
	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/pkg/log"
)

const (
	StateIdle      = "idle"
	StateExecuting = "executing"
)

const (
	// EventStart begins a maneuver. Args: core.Command, time.Time.
	EventStart = "start"
	// EventStop neutralizes the actuators from any state.
	EventStop = "stop"
	// EventTimeout ends a maneuver whose duration elapsed.
	EventTimeout = "timeout"
)

// Outcome is what Dispatch did with a command.
type Outcome int

const (
	OutcomeStarted Outcome = iota
	OutcomeDuplicate
	OutcomeRejected
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStarted:
		return "started"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeRejected:
		return "rejected"
	default:
		return "stopped"
	}
}

// Machine is the motion state machine. It is not safe for concurrent use;
// the control loop owns it.
type Machine struct {
	fsm *fsm.FSM

	steering core.Steering
	drive    core.Drive
	duration time.Duration
	logger   log.Logger

	active    core.Command
	startedAt time.Time
}

// New returns an idle machine. duration is how long a maneuver runs before it times out.
func New(steering core.Steering, drive core.Drive, duration time.Duration, logger log.Logger) *Machine {
	m := &Machine{
		steering: steering,
		drive:    drive,
		duration: duration,
		logger:   logger,
		active:   core.Stop,
	}

	events := fsm.Events{
		{Name: EventStart, Src: []string{StateIdle}, Dst: StateExecuting},
		{Name: EventStop, Src: []string{StateIdle, StateExecuting}, Dst: StateIdle},
		{Name: EventTimeout, Src: []string{StateExecuting}, Dst: StateIdle},
	}

	callbacks := fsm.Callbacks{
		// Side-effects on the actuators happen in before_ callbacks so a stop
		// from idle, which looplab treats as a self-transition, still runs.
		"before_" + EventStop:     fsmutil.WrapEvent(m.actionStop),
		"before_" + EventTimeout:  fsmutil.WrapEvent(m.actionTimeout),
		"enter_" + StateExecuting: fsmutil.WrapEvent(m.actionEnterExecuting),
		"enter_" + StateIdle:      fsmutil.WrapEvent(m.actionEnterIdle),
	}

	m.fsm = fsm.NewFSM(StateIdle, events, callbacks)
	return m
}

// State returns the current state name.
func (m *Machine) State() string { return m.fsm.Current() }

// Executing reports whether a maneuver is running.
func (m *Machine) Executing() bool { return m.fsm.Is(StateExecuting) }

// Active returns the running command, or Stop when idle.
func (m *Machine) Active() core.Command { return m.active }

// StartedAt returns when the running maneuver began.
func (m *Machine) StartedAt() time.Time { return m.startedAt }

// Position returns the last written steering angle and drive state.
func (m *Machine) Position() (core.SteeringAngle, core.DriveState) {
	return m.steering.Angle(), m.drive.State()
}

// Dispatch applies cmd at time now.
//
// Stop is always honored. A command equal to the running one is a no-op and
// does not restart the maneuver. Any other command is rejected while a maneuver
// runs. The returned error only reports actuator failures.
func (m *Machine) Dispatch(ctx context.Context, cmd core.Command, now time.Time) (Outcome, error) {
	if cmd == core.Stop {
		return OutcomeStopped, unwrapNoTransition(m.fsm.Event(ctx, EventStop))
	}

	if m.Executing() && cmd == m.active {
		return OutcomeDuplicate, nil
	}

	err := m.fsm.Event(ctx, EventStart, cmd, now)
	if fsmutil.IsInvalidEvent(err) {
		return OutcomeRejected, nil
	}
	return OutcomeStarted, err
}

// Expired reports whether the running maneuver has lasted its full duration at now.
func (m *Machine) Expired(now time.Time) bool {
	return m.Executing() && now.Sub(m.startedAt) >= m.duration
}

// CheckTimeout ends the running maneuver if it has expired.
// It reports whether a timeout fired.
func (m *Machine) CheckTimeout(ctx context.Context, now time.Time) (bool, error) {
	if !m.Expired(now) {
		return false, nil
	}
	return true, m.fsm.Event(ctx, EventTimeout)
}

func (m *Machine) actionEnterExecuting(ctx context.Context, e *fsm.Event) error {
	cmd := e.Args[0].(core.Command)
	now := e.Args[1].(time.Time)

	m.active = cmd
	m.startedAt = now

	var err error
	switch cmd {
	case core.TurnLeft:
		err = utilerrors.NewAggregate([]error{m.steering.TurnLeft(), m.drive.Forward()})
	case core.TurnRight:
		err = utilerrors.NewAggregate([]error{m.steering.TurnRight(), m.drive.Forward()})
	case core.Forward:
		err = m.drive.Forward()
	case core.Backward:
		err = m.drive.Backward()
	default:
		return fmt.Errorf("cannot start maneuver for %s", cmd)
	}

	m.logger.Info("Maneuver started", "command", cmd, "steering", m.steering.Angle(), "drive", m.drive.State())
	return err
}

// actionStop neutralizes the actuators. From idle it only writes when they are not already neutral.
func (m *Machine) actionStop(ctx context.Context, e *fsm.Event) error {
	if e.Src == StateIdle && m.neutral() {
		return nil
	}
	m.logger.Info("Stopping", "from", e.Src, "active", m.active)
	return utilerrors.NewAggregate([]error{m.drive.Stop(), m.steering.Center()})
}

// actionTimeout ends a maneuver: turns recenter and stop, straight moves only stop.
func (m *Machine) actionTimeout(ctx context.Context, e *fsm.Event) error {
	m.logger.Info("Maneuver complete", "command", m.active, "elapsed", m.duration)
	if m.active.IsTurn() {
		return utilerrors.NewAggregate([]error{m.steering.Center(), m.drive.Stop()})
	}
	return m.drive.Stop()
}

func (m *Machine) actionEnterIdle(ctx context.Context, e *fsm.Event) error {
	m.active = core.Stop
	m.startedAt = time.Time{}
	return nil
}

func (m *Machine) neutral() bool {
	return m.steering.Angle() == core.AngleCenter && m.drive.State() == core.DriveStopped
}

// unwrapNoTransition turns a self-transition into success, keeping any callback error.
func unwrapNoTransition(err error) error {
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return noTransition.Err
	}
	return err
}
