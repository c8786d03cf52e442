package actuator

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/rover/internal/roverdriver/core"
)

// Lead is one H-bridge channel: IN1/IN2 on the left side, IN3/IN4 on the right side.
type Lead struct {
	A core.DigitalOut
	B core.DigitalOut
}

// levels is the (A, B) pair of a lead for a drive state.
type levels struct{ a, b bool }

var driveTable = map[core.DriveState]levels{
	core.DriveStopped:  {false, false},
	core.DriveForward:  {true, false},
	core.DriveBackward: {false, true},
}

func (l Lead) apply(lv levels) error {
	// Lower before raising so A and B are never high together.
	if !lv.a {
		if err := l.A.Set(false); err != nil {
			return err
		}
	}
	if !lv.b {
		if err := l.B.Set(false); err != nil {
			return err
		}
	}
	if lv.a {
		if err := l.A.Set(true); err != nil {
			return err
		}
	}
	if lv.b {
		if err := l.B.Set(true); err != nil {
			return err
		}
	}
	return nil
}

// MotorBank switches the front, middle and back axle pairs together.
type MotorBank struct {
	leads []Lead
	state core.DriveState
}

var _ core.Drive = (*MotorBank)(nil)

// AxlePins are the four H-bridge inputs of an axle pair: left IN1, IN2, right IN3, IN4.
type AxlePins [4]int

// NewMotorBank claims the output pins of every axle from board.
func NewMotorBank(board core.Board, axles ...AxlePins) (*MotorBank, error) {
	if len(axles) == 0 {
		return nil, fmt.Errorf("motor bank needs at least one axle")
	}
	m := &MotorBank{}
	for _, axle := range axles {
		var outs [4]core.DigitalOut
		for i, pin := range axle {
			out, err := board.DigitalOut(pin)
			if err != nil {
				return nil, fmt.Errorf("failed to open motor pin %d: %w", pin, err)
			}
			outs[i] = out
		}
		m.leads = append(m.leads, Lead{A: outs[0], B: outs[1]}, Lead{A: outs[2], B: outs[3]})
	}
	return m, nil
}

func (m *MotorBank) Forward() error  { return m.set(core.DriveForward) }
func (m *MotorBank) Backward() error { return m.set(core.DriveBackward) }
func (m *MotorBank) Stop() error     { return m.set(core.DriveStopped) }

func (m *MotorBank) State() core.DriveState { return m.state }

// set drives every lead. A partial failure leaves the state unknown so the next Stop writes again.
func (m *MotorBank) set(s core.DriveState) error {
	lv := driveTable[s]
	var errs []error
	for i, lead := range m.leads {
		if err := lead.apply(lv); err != nil {
			errs = append(errs, fmt.Errorf("lead %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		m.state = core.DriveUnknown
		return utilerrors.NewAggregate(errs)
	}
	m.state = s
	return nil
}
