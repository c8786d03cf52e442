package paths

// Topic segments of the rover MQTT protocol.
// Every topic has the shape {root}/{segment}/{roverID}.
const (
	// State carries controller events of a drive node.
	// Payload: { "type": "motion.started", "command": "FORWARD", "steering": 90, "drive": "FORWARD", ... }
	// Pattern: {root}/state/{roverID}
	State = "state"

	// Online is the retained online/offline status of a drive node, also used as its Last Will.
	// Payload: { "roverID": "...", "online": true/false, "reason": "..." }
	// Pattern: {root}/online/{roverID}
	Online = "online"

	// Command is subscribed by a drive node. Any payload that is not a motion token stops the rover.
	// Payload: "FULL_STOP" (text)
	// Pattern: {root}/command/{roverID}
	Command = "command"
)
