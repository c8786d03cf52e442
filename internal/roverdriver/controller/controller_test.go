package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/roverdriver/actuator"
	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/internal/roverdriver/hal"
	"github.com/autopeer-io/rover/internal/roverdriver/motion"
	"github.com/autopeer-io/rover/pkg/log"
)

const (
	movement     = 2000 * time.Millisecond
	pollInterval = 2500 * time.Millisecond
)

type reply struct {
	cmd core.Command
	err error
}

// scriptSource replays replies in order, then keeps answering Stop.
type scriptSource struct {
	mu      sync.Mutex
	replies []reply
	lasts   []core.Command
}

func (s *scriptSource) Next(_ context.Context, last core.Command) (core.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lasts = append(s.lasts, last)
	if len(s.replies) == 0 {
		return core.Stop, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.cmd, r.err
}

func (s *scriptSource) push(replies ...reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

func (s *scriptSource) calls() []core.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Command(nil), s.lasts...)
}

type fakeLink struct {
	connected bool
	connects  int
	err       error
}

func (l *fakeLink) Connected() bool { return l.connected }

func (l *fakeLink) Connect(ctx context.Context) error {
	l.connects++
	if l.err != nil {
		return l.err
	}
	l.connected = true
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recorder) Report(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []core.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	ctrl     *Controller
	machine  *motion.Machine
	board    *hal.MemoryBoard
	steering *actuator.SteeringBank
	drive    *actuator.MotorBank
	source   *scriptSource
	link     *fakeLink
	events   *recorder
	clock    *clock.Mock
	remote   chan struct{}
}

func newHarness(t *testing.T, interval time.Duration) *harness {
	t.Helper()
	board := hal.NewMemoryBoard()
	steering, err := actuator.NewSteeringBank(board, []int{16, 17, 18, 19})
	require.NoError(t, err)
	drive, err := actuator.NewMotorBank(board, actuator.AxlePins{2, 4, 5, 13}, actuator.AxlePins{14, 12, 15, 27}, actuator.AxlePins{26, 25, 33, 32})
	require.NoError(t, err)

	h := &harness{
		board:    board,
		steering: steering,
		drive:    drive,
		source:   &scriptSource{},
		link:     &fakeLink{connected: true},
		events:   &recorder{},
		clock:    clock.NewMock(),
		remote:   make(chan struct{}, 1),
	}
	h.machine = motion.New(steering, drive, movement, log.NewNopLogger())
	h.ctrl = New(Config{
		Machine:      h.machine,
		Source:       h.source,
		Link:         h.link,
		Reporter:     h.events,
		RemoteStop:   h.remote,
		Clock:        h.clock,
		Logger:       log.NewNopLogger(),
		PollInterval: interval,
		Tick:         20 * time.Millisecond,
	})
	return h
}

func (h *harness) step(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Step(context.Background()))
}

func TestFirstPollIsImmediateThenThrottled(t *testing.T) {
	h := newHarness(t, pollInterval)

	h.step(t)
	require.Len(t, h.source.calls(), 1)

	h.clock.Add(pollInterval - time.Millisecond)
	h.step(t)
	require.Len(t, h.source.calls(), 1)

	h.clock.Add(time.Millisecond)
	h.step(t)
	require.Len(t, h.source.calls(), 2)
}

func TestLastExecutedIsSentWithPoll(t *testing.T) {
	h := newHarness(t, pollInterval)
	h.source.push(reply{cmd: core.Forward}, reply{cmd: core.TurnLeft})

	h.step(t)
	h.clock.Add(pollInterval)
	h.step(t) // TURN_LEFT is rejected: the poll runs before the timeout check
	h.clock.Add(pollInterval)
	h.step(t)

	require.Equal(t, []core.Command{core.Stop, core.Forward, core.Forward}, h.source.calls())
}

func TestTurnLeftFromIdle(t *testing.T) {
	h := newHarness(t, pollInterval)
	h.source.push(reply{cmd: core.TurnLeft})

	h.step(t)

	require.Equal(t, core.AngleLeft, h.steering.Angle())
	require.Equal(t, core.DriveForward, h.drive.State())
	require.True(t, h.machine.Executing())
	require.Equal(t, core.TurnLeft, h.machine.Active())
	require.Equal(t, core.TurnLeft, h.ctrl.LastExecuted())
	require.Equal(t, []core.EventType{core.EventMotionStarted}, h.events.types())
}

func TestDuplicatePollKeepsTimer(t *testing.T) {
	h := newHarness(t, 250*time.Millisecond)
	h.source.push(reply{cmd: core.TurnLeft}, reply{cmd: core.TurnLeft}, reply{cmd: core.TurnLeft})
	start := h.clock.Now()

	h.step(t)
	h.board.Reset()

	h.clock.Add(500 * time.Millisecond)
	h.step(t)
	require.Empty(t, h.board.Writes())
	require.Equal(t, start, h.machine.StartedAt())
	require.Equal(t, core.TurnLeft, h.machine.Active())

	h.clock.Add(movement - 500*time.Millisecond)
	h.step(t)
	require.False(t, h.machine.Executing())
	require.Equal(t, core.AngleCenter, h.steering.Angle())
	require.Equal(t, core.DriveStopped, h.drive.State())
}

func TestStopPreemptsManeuver(t *testing.T) {
	h := newHarness(t, 100*time.Millisecond)
	h.source.push(reply{cmd: core.Forward}, reply{cmd: core.Decode("STOP")})

	h.step(t)
	require.True(t, h.machine.Executing())

	h.clock.Add(100 * time.Millisecond)
	h.step(t)
	require.False(t, h.machine.Executing())
	require.Equal(t, core.DriveStopped, h.drive.State())
	require.Equal(t, core.AngleCenter, h.steering.Angle())
	require.Equal(t, core.Stop, h.ctrl.LastExecuted())
	require.Equal(t, []core.EventType{core.EventMotionStarted, core.EventMotionStopped}, h.events.types())
}

func TestTurnTimesOutCentersAndStops(t *testing.T) {
	h := newHarness(t, pollInterval)
	h.source.push(reply{cmd: core.TurnRight})
	before := testutil.ToFloat64(metrics.MotionTimeoutTotal)

	h.step(t)
	require.Equal(t, core.AngleRight, h.steering.Angle())

	h.clock.Add(movement - time.Millisecond)
	h.step(t)
	require.True(t, h.machine.Executing())

	h.clock.Add(time.Millisecond)
	h.step(t)
	require.False(t, h.machine.Executing())
	require.Equal(t, core.AngleCenter, h.steering.Angle())
	require.Equal(t, core.DriveStopped, h.drive.State())
	require.Len(t, h.source.calls(), 1)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.MotionTimeoutTotal))
	require.Equal(t, []core.EventType{core.EventMotionStarted, core.EventMotionTimeout}, h.events.types())
}

func TestPollErrorStops(t *testing.T) {
	h := newHarness(t, 100*time.Millisecond)
	h.source.push(reply{cmd: core.Backward}, reply{cmd: core.Stop, err: errors.New("HTTP 500")})
	failedBefore := testutil.ToFloat64(metrics.PollTotal.WithLabelValues("failed"))

	h.step(t)
	require.Equal(t, core.DriveBackward, h.drive.State())

	h.clock.Add(100 * time.Millisecond)
	h.step(t)
	require.False(t, h.machine.Executing())
	require.Equal(t, core.DriveStopped, h.drive.State())
	require.Equal(t, core.AngleCenter, h.steering.Angle())
	require.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.PollTotal.WithLabelValues("failed")))
	require.Equal(t, []core.EventType{core.EventMotionStarted, core.EventPollFailed, core.EventMotionStopped}, h.events.types())
}

func TestRemoteStopPreemptsBetweenPolls(t *testing.T) {
	h := newHarness(t, pollInterval)
	h.source.push(reply{cmd: core.TurnLeft})
	before := testutil.ToFloat64(metrics.RemoteStopTotal)

	h.step(t)
	require.True(t, h.machine.Executing())

	h.remote <- struct{}{}
	h.clock.Add(100 * time.Millisecond)
	h.step(t)

	require.Len(t, h.source.calls(), 1)
	require.False(t, h.machine.Executing())
	require.Equal(t, core.AngleCenter, h.steering.Angle())
	require.Equal(t, core.DriveStopped, h.drive.State())
	require.Equal(t, core.Stop, h.ctrl.LastExecuted())
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RemoteStopTotal))
	require.Equal(t, []core.EventType{core.EventMotionStarted, core.EventMotionStopped}, h.events.types())
}

func TestRejectedCommandIsReported(t *testing.T) {
	h := newHarness(t, 100*time.Millisecond)
	h.source.push(reply{cmd: core.Forward}, reply{cmd: core.TurnLeft})

	h.step(t)
	h.clock.Add(100 * time.Millisecond)
	h.step(t)

	require.Equal(t, core.Forward, h.machine.Active())
	require.Equal(t, core.Forward, h.ctrl.LastExecuted())
	require.Equal(t, []core.EventType{core.EventMotionStarted, core.EventCommandRejected}, h.events.types())
}

func TestLinkLossReconnectsBeforePolling(t *testing.T) {
	h := newHarness(t, pollInterval)
	h.link.connected = false

	h.step(t)
	require.Equal(t, 1, h.link.connects)
	require.Len(t, h.source.calls(), 1)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.LinkUp))
}

func TestCanceledReconnectSkipsPoll(t *testing.T) {
	h := newHarness(t, pollInterval)
	h.link.connected = false
	h.link.err = context.Canceled

	require.ErrorIs(t, h.ctrl.Step(context.Background()), context.Canceled)
	require.Empty(t, h.source.calls())
}

func TestRunNeutralizesAndStopsOnCancel(t *testing.T) {
	h := newHarness(t, pollInterval)
	h.source.push(reply{cmd: core.TurnLeft})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()

	require.Eventually(t, func() bool { return len(h.source.calls()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.Equal(t, core.AngleCenter, h.steering.Angle())
	require.Equal(t, core.DriveStopped, h.drive.State())
	require.False(t, h.machine.Executing())
}
