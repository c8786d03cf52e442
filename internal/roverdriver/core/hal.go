package core

// Board is the driven port through which the rover reaches its pins.
// Implementations live in the hal package.
type Board interface {
	// DigitalOut returns a push-pull output on the given pin number.
	DigitalOut(pin int) (DigitalOut, error)
	// Servo returns a hobby servo attached to the given pin number.
	Servo(pin int) (Servo, error)
	// Close releases the board resources.
	Close() error
}

// DigitalOut is a single GPIO output line.
type DigitalOut interface {
	Set(high bool) error
}

// Servo positions a hobby servo at an angle in degrees, 0 to 180.
type Servo interface {
	Write(degrees int) error
}

// SteeringAngle is one of the three positions the steering servos are ever set to.
// The zero value means the position is not known.
type SteeringAngle int

const (
	AngleCenter SteeringAngle = 90
	AngleLeft   SteeringAngle = 60
	AngleRight  SteeringAngle = 120
)

func (a SteeringAngle) String() string {
	switch a {
	case AngleCenter:
		return "CENTER"
	case AngleLeft:
		return "LEFT"
	case AngleRight:
		return "RIGHT"
	default:
		return "UNSET"
	}
}

// DriveState is the direction all six wheels are driven in.
// DriveUnknown means the leads were never written or the last write failed.
type DriveState int

const (
	DriveUnknown DriveState = iota
	DriveStopped
	DriveForward
	DriveBackward
)

func (s DriveState) String() string {
	switch s {
	case DriveStopped:
		return "STOPPED"
	case DriveForward:
		return "FORWARD"
	case DriveBackward:
		return "BACKWARD"
	default:
		return "UNKNOWN"
	}
}

// Steering moves the four steering servos together.
type Steering interface {
	Center() error
	TurnLeft() error
	TurnRight() error
	// Angle returns the last angle written.
	Angle() SteeringAngle
}

// Drive switches the three axle pairs together.
type Drive interface {
	Forward() error
	Backward() error
	Stop() error
	// State returns the last state written.
	State() DriveState
}
