package core

// Command is a discrete motion request received from the vision node.
type Command int

const (
	// Stop halts the drive and centers the steering. It is also the decoding of
	// every token that is not a recognized motion.
	Stop Command = iota
	TurnLeft
	TurnRight
	Forward
	Backward
)

var commandNames = [...]string{
	Stop:      "STOP",
	TurnLeft:  "TURN_LEFT",
	TurnRight: "TURN_RIGHT",
	Forward:   "FORWARD",
	Backward:  "BACKWARD",
}

// stopToken is how the vision node spells a stop in its own vocabulary.
const stopToken = "FULL_STOP"

// Decode maps a vision node response onto a Command. Only the four exact motion
// tokens are recognized; anything else, including an empty string or an error
// marker, is Stop.
func Decode(s string) Command {
	switch s {
	case "TURN_LEFT":
		return TurnLeft
	case "TURN_RIGHT":
		return TurnRight
	case "FORWARD":
		return Forward
	case "BACKWARD":
		return Backward
	default:
		return Stop
	}
}

// String returns the enum name of c.
func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return "UNKNOWN"
	}
	return commandNames[c]
}

// Token returns the wire token reported back to the vision node as lastCommand.
func (c Command) Token() string {
	if c == Stop {
		return stopToken
	}
	return c.String()
}

// IsTurn reports whether c steers the wheels away from center.
func (c Command) IsTurn() bool {
	return c == TurnLeft || c == TurnRight
}
