package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds the rover collectors plus the Go runtime and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// PollTotal counts command source polls.
	PollTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rover_poll_total",
			Help: "Total number of command polls.",
		},
		[]string{"result"}, // result: ok/failed
	)

	// CommandTotal counts decoded commands.
	CommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rover_command_total",
			Help: "Total number of commands received, by decoded command.",
		},
		[]string{"command"},
	)

	// DispatchTotal counts what the motion machine did with a command.
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rover_dispatch_total",
			Help: "Total number of command dispatches, by outcome.",
		},
		[]string{"outcome"}, // started/duplicate/rejected/stopped
	)

	// MotionTimeoutTotal counts maneuvers ended by the movement duration.
	MotionTimeoutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rover_motion_timeout_total",
			Help: "Total number of maneuvers ended by the movement timeout.",
		},
	)

	// RemoteStopTotal counts stop requests received over MQTT.
	RemoteStopTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rover_remote_stop_total",
			Help: "Total number of stop requests received from the broker.",
		},
	)

	// MotionExecuting is 1 while a maneuver runs.
	MotionExecuting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rover_motion_executing",
			Help: "Whether a maneuver is running (1) or the rover is idle (0).",
		},
	)

	// LinkUp records the connectivity to the command source (1=up, 0=down).
	LinkUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rover_link_up",
			Help: "Connectivity to the command source (1=up, 0=down).",
		},
	)

	// RelayQueueLength is the number of commands waiting in the relay.
	RelayQueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rover_relay_queue_length",
			Help: "Number of commands waiting in the relay queue.",
		},
	)

	// RelayCameraConnected is 1 while the camera heartbeat is fresh.
	RelayCameraConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rover_relay_camera_connected",
			Help: "Whether the relay has seen a recent camera heartbeat (1) or not (0).",
		},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(PollTotal)
	Registry.MustRegister(CommandTotal)
	Registry.MustRegister(DispatchTotal)
	Registry.MustRegister(MotionTimeoutTotal)
	Registry.MustRegister(RemoteStopTotal)
	Registry.MustRegister(MotionExecuting)
	Registry.MustRegister(LinkUp)
	Registry.MustRegister(RelayQueueLength)
	Registry.MustRegister(RelayCameraConnected)
}

// BoolToFloat converts a condition to a gauge value.
func BoolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
