package actuator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/internal/roverdriver/hal"
)

var (
	servoPins = []int{16, 17, 18, 19}
	front     = AxlePins{2, 4, 5, 13}
	middle    = AxlePins{14, 12, 15, 27}
	back      = AxlePins{26, 25, 33, 32}
)

func newBanks(t *testing.T) (*hal.MemoryBoard, *SteeringBank, *MotorBank) {
	t.Helper()
	b := hal.NewMemoryBoard()
	s, err := NewSteeringBank(b, servoPins)
	require.NoError(t, err)
	m, err := NewMotorBank(b, front, middle, back)
	require.NoError(t, err)
	return b, s, m
}

func TestSteeringWritesAllServos(t *testing.T) {
	b, s, _ := newBanks(t)

	tests := []struct {
		name  string
		call  func() error
		angle core.SteeringAngle
	}{
		{"left", s.TurnLeft, core.AngleLeft},
		{"right", s.TurnRight, core.AngleRight},
		{"center", s.Center, core.AngleCenter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.Reset()
			require.NoError(t, tt.call())
			require.Equal(t, tt.angle, s.Angle())
			require.Len(t, b.Writes(), ServoCount)
			for _, pin := range servoPins {
				v, _ := b.Value(pin)
				require.Equal(t, int(tt.angle), v)
			}
		})
	}
}

func TestSteeringNeedsFourPins(t *testing.T) {
	_, err := NewSteeringBank(hal.NewMemoryBoard(), []int{1, 2})
	require.Error(t, err)
}

func TestSteeringWritesRemainingServosOnFailure(t *testing.T) {
	b, s, _ := newBanks(t)
	b.FailPins = map[int]error{17: errors.New("detached")}

	require.Error(t, s.TurnLeft())
	require.Len(t, b.Writes(), ServoCount-1)
	require.Zero(t, s.Angle())

	b.FailPins = nil
	require.NoError(t, s.TurnLeft())
	require.Equal(t, core.AngleLeft, s.Angle())
}

func TestMotorFailureForgetsState(t *testing.T) {
	b, _, m := newBanks(t)
	require.Equal(t, core.DriveUnknown, m.State())
	require.NoError(t, m.Forward())

	b.FailPins = map[int]error{front[0]: errors.New("stuck")}
	require.Error(t, m.Stop())
	require.Equal(t, core.DriveUnknown, m.State())
	require.Equal(t, "UNKNOWN", m.State().String())
	require.True(t, b.High(front[0]))
}

func TestMotorTable(t *testing.T) {
	b, _, m := newBanks(t)
	axles := []AxlePins{front, middle, back}

	check := func(in1, in2 bool) {
		t.Helper()
		for _, a := range axles {
			require.Equal(t, in1, b.High(a[0]))
			require.Equal(t, in2, b.High(a[1]))
			require.Equal(t, in1, b.High(a[2]))
			require.Equal(t, in2, b.High(a[3]))
		}
	}

	require.NoError(t, m.Forward())
	require.Equal(t, core.DriveForward, m.State())
	check(true, false)

	require.NoError(t, m.Backward())
	require.Equal(t, core.DriveBackward, m.State())
	check(false, true)

	require.NoError(t, m.Stop())
	require.Equal(t, core.DriveStopped, m.State())
	check(false, false)
}

// Replays the write log and asserts no lead is both-high at any point.
func TestMotorNeverBothHigh(t *testing.T) {
	b, _, m := newBanks(t)
	pairs := map[int]int{}
	for _, a := range []AxlePins{front, middle, back} {
		pairs[a[0]], pairs[a[1]] = a[1], a[0]
		pairs[a[2]], pairs[a[3]] = a[3], a[2]
	}

	for _, step := range []func() error{m.Forward, m.Backward, m.Forward, m.Stop, m.Backward, m.Stop} {
		require.NoError(t, step())
	}

	level := map[int]int{}
	for _, w := range b.Writes() {
		level[w.Pin] = w.Value
		if w.Value == 1 {
			require.Zero(t, level[pairs[w.Pin]], "pins %d and %d both high", w.Pin, pairs[w.Pin])
		}
	}
}

func TestMotorBankClaimsDistinctPins(t *testing.T) {
	_, err := NewMotorBank(hal.NewMemoryBoard(), front, front)
	require.ErrorContains(t, err, "already claimed")
}
