package core

import "time"

type EventType string

const (
	EventMotionStarted   EventType = "motion.started"
	EventMotionStopped   EventType = "motion.stopped"
	EventMotionTimeout   EventType = "motion.timeout"
	EventCommandRejected EventType = "command.rejected"
	EventPollFailed      EventType = "poll.failed"
)

// Event is a state change of the drive node, published as telemetry.
type Event struct {
	Type     EventType     `json:"type"`
	Command  string        `json:"command,omitempty"`
	Active   string        `json:"active,omitempty"`
	Steering SteeringAngle `json:"steering"`
	Drive    string        `json:"drive"`
	Error    string        `json:"error,omitempty"`
	Time     time.Time     `json:"time"`
}
