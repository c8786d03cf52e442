package motion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rover/internal/roverdriver/actuator"
	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/internal/roverdriver/hal"
	"github.com/autopeer-io/rover/pkg/log"
)

const duration = 2000 * time.Millisecond

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type rig struct {
	board    *hal.MemoryBoard
	steering *actuator.SteeringBank
	drive    *actuator.MotorBank
	m        *Machine
}

func newRig(t *testing.T) *rig {
	t.Helper()
	b := hal.NewMemoryBoard()
	s, err := actuator.NewSteeringBank(b, []int{16, 17, 18, 19})
	require.NoError(t, err)
	d, err := actuator.NewMotorBank(b, actuator.AxlePins{2, 4, 5, 13}, actuator.AxlePins{14, 12, 15, 27}, actuator.AxlePins{26, 25, 33, 32})
	require.NoError(t, err)
	return &rig{board: b, steering: s, drive: d, m: New(s, d, duration, log.NewNopLogger())}
}

func (r *rig) dispatch(t *testing.T, cmd core.Command, at time.Time) Outcome {
	t.Helper()
	out, err := r.m.Dispatch(context.Background(), cmd, at)
	require.NoError(t, err)
	return out
}

func (r *rig) servoWrites() int {
	n := 0
	for _, w := range r.board.Writes() {
		if w.Kind == hal.WriteServo {
			n++
		}
	}
	return n
}

func TestStartFromIdle(t *testing.T) {
	tests := []struct {
		cmd      core.Command
		steering core.SteeringAngle
		drive    core.DriveState
	}{
		{core.TurnLeft, core.AngleLeft, core.DriveForward},
		{core.TurnRight, core.AngleRight, core.DriveForward},
		{core.Forward, 0, core.DriveForward},
		{core.Backward, 0, core.DriveBackward},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			r := newRig(t)
			require.Equal(t, OutcomeStarted, r.dispatch(t, tt.cmd, t0))
			require.Equal(t, StateExecuting, r.m.State())
			require.Equal(t, tt.cmd, r.m.Active())
			require.Equal(t, t0, r.m.StartedAt())
			require.Equal(t, tt.steering, r.steering.Angle())
			require.Equal(t, tt.drive, r.drive.State())
		})
	}
}

func TestDuplicateDoesNotRewriteOrRestart(t *testing.T) {
	r := newRig(t)
	r.dispatch(t, core.TurnLeft, t0)
	r.board.Reset()

	require.Equal(t, OutcomeDuplicate, r.dispatch(t, core.TurnLeft, t0.Add(500*time.Millisecond)))
	require.Empty(t, r.board.Writes())
	require.Equal(t, t0, r.m.StartedAt())
}

func TestDifferentCommandRejectedWhileExecuting(t *testing.T) {
	r := newRig(t)
	r.dispatch(t, core.Forward, t0)
	r.board.Reset()

	require.Equal(t, OutcomeRejected, r.dispatch(t, core.TurnRight, t0.Add(time.Second)))
	require.Empty(t, r.board.Writes())
	require.Equal(t, core.Forward, r.m.Active())
	require.Equal(t, t0, r.m.StartedAt())
}

func TestStopPreemptsManeuver(t *testing.T) {
	r := newRig(t)
	r.dispatch(t, core.TurnRight, t0)

	require.Equal(t, OutcomeStopped, r.dispatch(t, core.Stop, t0.Add(100*time.Millisecond)))
	require.Equal(t, StateIdle, r.m.State())
	require.Equal(t, core.Stop, r.m.Active())
	require.Equal(t, core.AngleCenter, r.steering.Angle())
	require.Equal(t, core.DriveStopped, r.drive.State())
	require.False(t, r.m.Expired(t0.Add(time.Hour)))
}

func TestStopFromIdleWritesOnlyWhenNotNeutral(t *testing.T) {
	r := newRig(t)

	// Fresh actuators have no known position yet.
	require.Equal(t, OutcomeStopped, r.dispatch(t, core.Stop, t0))
	require.Equal(t, actuator.ServoCount, r.servoWrites())
	require.Equal(t, StateIdle, r.m.State())

	r.board.Reset()
	for i := 0; i < 3; i++ {
		require.Equal(t, OutcomeStopped, r.dispatch(t, core.Stop, t0.Add(time.Duration(i)*time.Second)))
	}
	require.Empty(t, r.board.Writes())
}

func TestTimeoutOfTurnCentersAndStops(t *testing.T) {
	r := newRig(t)
	r.dispatch(t, core.TurnLeft, t0)

	fired, err := r.m.CheckTimeout(context.Background(), t0.Add(duration-time.Millisecond))
	require.NoError(t, err)
	require.False(t, fired)

	fired, err = r.m.CheckTimeout(context.Background(), t0.Add(duration))
	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, StateIdle, r.m.State())
	require.Equal(t, core.AngleCenter, r.steering.Angle())
	require.Equal(t, core.DriveStopped, r.drive.State())
}

func TestTimeoutOfStraightMoveOnlyStops(t *testing.T) {
	r := newRig(t)
	r.dispatch(t, core.Backward, t0)
	r.board.Reset()

	fired, err := r.m.CheckTimeout(context.Background(), t0.Add(3*time.Second))
	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, core.DriveStopped, r.drive.State())
	require.Zero(t, r.servoWrites())
}

func TestCheckTimeoutWhileIdle(t *testing.T) {
	r := newRig(t)
	fired, err := r.m.CheckTimeout(context.Background(), t0)
	require.NoError(t, err)
	require.False(t, fired)
	require.Empty(t, r.board.Writes())
}

func TestActuatorErrorStillTransitions(t *testing.T) {
	r := newRig(t)
	r.board.FailPins = map[int]error{2: errors.New("short")}

	out, err := r.m.Dispatch(context.Background(), core.Forward, t0)
	require.Error(t, err)
	require.Equal(t, OutcomeStarted, out)
	require.True(t, r.m.Executing())

	out, err = r.m.Dispatch(context.Background(), core.Stop, t0.Add(time.Second))
	require.Error(t, err)
	require.Equal(t, OutcomeStopped, out)
	require.Equal(t, StateIdle, r.m.State())
}

func TestStopRetriesAfterFailedWrite(t *testing.T) {
	r := newRig(t)
	r.dispatch(t, core.Forward, t0)

	r.board.FailPins = map[int]error{2: errors.New("short")}
	_, err := r.m.Dispatch(context.Background(), core.Stop, t0.Add(time.Second))
	require.Error(t, err)
	require.Equal(t, StateIdle, r.m.State())
	require.Equal(t, core.DriveUnknown, r.drive.State())
	require.True(t, r.board.High(2))

	r.board.FailPins = nil
	r.board.Reset()
	require.Equal(t, OutcomeStopped, r.dispatch(t, core.Stop, t0.Add(2*time.Second)))
	require.NotEmpty(t, r.board.Writes())
	require.False(t, r.board.High(2))
	require.Equal(t, core.DriveStopped, r.drive.State())

	// Neutral again: further stops are no-ops.
	r.board.Reset()
	r.dispatch(t, core.Stop, t0.Add(3*time.Second))
	require.Empty(t, r.board.Writes())
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "started", OutcomeStarted.String())
	require.Equal(t, "duplicate", OutcomeDuplicate.String())
	require.Equal(t, "rejected", OutcomeRejected.String())
	require.Equal(t, "stopped", OutcomeStopped.String())
}
