package actuator

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/rover/internal/roverdriver/core"
)

// ServoCount is the number of steering servos: front-left, front-right, back-left, back-right.
const ServoCount = 4

// SteeringBank writes the same angle to all four steering servos.
type SteeringBank struct {
	servos [ServoCount]core.Servo
	angle  core.SteeringAngle
}

var _ core.Steering = (*SteeringBank)(nil)

// NewSteeringBank claims the servo pins from board in front-left, front-right, back-left, back-right order.
func NewSteeringBank(board core.Board, pins []int) (*SteeringBank, error) {
	if len(pins) != ServoCount {
		return nil, fmt.Errorf("steering needs %d servo pins, got %d", ServoCount, len(pins))
	}
	s := &SteeringBank{}
	for i, pin := range pins {
		servo, err := board.Servo(pin)
		if err != nil {
			return nil, fmt.Errorf("failed to attach servo on pin %d: %w", pin, err)
		}
		s.servos[i] = servo
	}
	return s, nil
}

func (s *SteeringBank) Center() error    { return s.set(core.AngleCenter) }
func (s *SteeringBank) TurnLeft() error  { return s.set(core.AngleLeft) }
func (s *SteeringBank) TurnRight() error { return s.set(core.AngleRight) }

func (s *SteeringBank) Angle() core.SteeringAngle { return s.angle }

// set writes every servo even when one of them fails. Any failure forgets the angle.
func (s *SteeringBank) set(a core.SteeringAngle) error {
	var errs []error
	for i, servo := range s.servos {
		if err := servo.Write(int(a)); err != nil {
			errs = append(errs, fmt.Errorf("servo %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		s.angle = 0
		return utilerrors.NewAggregate(errs)
	}
	s.angle = a
	return nil
}
