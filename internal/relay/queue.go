// Package relay implements the command relay: a FIFO of commands pushed by the
// vision node and drained by the drive node.
package relay

import (
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/pkg/log"
)

// StopCommand is served when the queue is empty.
const StopCommand = "FULL_STOP"

// Entry is a queued command.
type Entry struct {
	Command    string
	EnqueuedAt time.Time
}

// Queue is safe for concurrent use.
type Queue struct {
	clock         clock.Clock
	cameraTimeout time.Duration
	logger        log.Logger

	mu            sync.Mutex
	entries       []Entry
	lastHeartbeat time.Time
}

// NewQueue returns an empty queue. The camera counts as connected at creation.
func NewQueue(clk clock.Clock, cameraTimeout time.Duration, logger log.Logger) *Queue {
	return &Queue{
		clock:         clk,
		cameraTimeout: cameraTimeout,
		logger:        logger,
		lastHeartbeat: clk.Now(),
	}
}

// Push upper-cases and appends a command, refreshes the camera heartbeat and
// returns the new queue length.
func (q *Queue) Push(command string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	q.entries = append(q.entries, Entry{Command: strings.ToUpper(command), EnqueuedAt: now})
	q.lastHeartbeat = now
	metrics.RelayQueueLength.Set(float64(len(q.entries)))
	return len(q.entries)
}

// Heartbeat records that the camera is alive.
func (q *Queue) Heartbeat() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lastHeartbeat = q.clock.Now()
}

// Next pops the oldest command. found is false and command is StopCommand when
// the queue is empty. It also reports the remaining length and the camera status.
func (q *Queue) Next() (command string, found bool, remaining int, cameraConnected bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cameraConnected = q.checkCameraLocked()
	if len(q.entries) == 0 {
		return StopCommand, false, 0, cameraConnected
	}

	e := q.entries[0]
	q.entries = q.entries[1:]
	metrics.RelayQueueLength.Set(float64(len(q.entries)))
	return e.Command, true, len(q.entries), cameraConnected
}

// CameraConnected reports whether the camera was heard from within the camera
// timeout. A disconnected camera empties the queue.
func (q *Queue) CameraConnected() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.checkCameraLocked()
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) checkCameraLocked() bool {
	connected := q.clock.Since(q.lastHeartbeat) < q.cameraTimeout
	if !connected && len(q.entries) > 0 {
		q.logger.Warn("Lost camera connection, clearing command queue", "dropped", len(q.entries))
		q.entries = nil
		metrics.RelayQueueLength.Set(0)
	}
	metrics.RelayCameraConnected.Set(metrics.BoolToFloat(connected))
	return connected
}
