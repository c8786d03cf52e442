package hal

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/autopeer-io/rover/internal/roverdriver/core"
)

// ServoConfig describes the pulse train of the steering servos.
type ServoConfig struct {
	// MinPulse and MaxPulse are the pulse widths at 0 and 180 degrees.
	MinPulse time.Duration
	MaxPulse time.Duration
	// Frequency is the PWM frequency, 50 Hz for hobby servos.
	Frequency physic.Frequency
}

// PeriphBoard drives the rover pins through periph.io.
type PeriphBoard struct {
	logger    logr.Logger
	pinPrefix string
	servo     ServoConfig

	claimed map[int]gpio.PinIO
}

var _ core.Board = (*PeriphBoard)(nil)

// NewPeriphBoard initializes the host drivers. Pin names are built as pinPrefix + pin number.
func NewPeriphBoard(logger logr.Logger, pinPrefix string, servo ServoConfig) (*PeriphBoard, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	for _, f := range state.Failed {
		logger.V(1).Info("periph driver failed to load", "driver", f.D.String(), "err", f.Err.Error())
	}

	return &PeriphBoard{
		logger:    logger.WithName("periph"),
		pinPrefix: pinPrefix,
		servo:     servo,
		claimed:   make(map[int]gpio.PinIO),
	}, nil
}

func (b *PeriphBoard) claim(pin int) (gpio.PinIO, error) {
	if _, ok := b.claimed[pin]; ok {
		return nil, fmt.Errorf("pin %d already claimed", pin)
	}
	name := fmt.Sprintf("%s%d", b.pinPrefix, pin)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no gpio pin found for %q", name)
	}
	b.claimed[pin] = p
	b.logger.V(1).Info("claimed pin", "name", name)
	return p, nil
}

func (b *PeriphBoard) DigitalOut(pin int) (core.DigitalOut, error) {
	p, err := b.claim(pin)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure %s as output: %w", p.Name(), err)
	}
	return periphOut{pin: p}, nil
}

func (b *PeriphBoard) Servo(pin int) (core.Servo, error) {
	p, err := b.claim(pin)
	if err != nil {
		return nil, err
	}
	return &periphServo{pin: p, cfg: b.servo}, nil
}

// Close drives every claimed pin low and releases it.
func (b *PeriphBoard) Close() error {
	var firstErr error
	for n, p := range b.claimed {
		if err := p.Halt(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to halt %s: %w", p.Name(), err)
		}
		if err := p.Out(gpio.Low); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to lower %s: %w", p.Name(), err)
		}
		delete(b.claimed, n)
	}
	return firstErr
}

type periphOut struct {
	pin gpio.PinIO
}

func (o periphOut) Set(high bool) error {
	l := gpio.Low
	if high {
		l = gpio.High
	}
	return o.pin.Out(l)
}

type periphServo struct {
	pin gpio.PinIO
	cfg ServoConfig
}

func (s *periphServo) Write(degrees int) error {
	duty := ServoDuty(degrees, s.cfg)
	if err := s.pin.PWM(duty, s.cfg.Frequency); err != nil {
		return fmt.Errorf("failed to set pwm on %s: %w", s.pin.Name(), err)
	}
	return nil
}

// PulseWidth maps an angle in [0, 180] linearly onto [MinPulse, MaxPulse].
// Angles outside the range are clamped.
func PulseWidth(degrees int, cfg ServoConfig) time.Duration {
	if degrees < 0 {
		degrees = 0
	} else if degrees > 180 {
		degrees = 180
	}
	span := cfg.MaxPulse - cfg.MinPulse
	return cfg.MinPulse + span*time.Duration(degrees)/180
}

// ServoDuty returns the duty cycle producing the pulse width of the given angle.
func ServoDuty(degrees int, cfg ServoConfig) gpio.Duty {
	period := cfg.Frequency.Period()
	if period <= 0 {
		return 0
	}
	pulse := PulseWidth(degrees, cfg)
	return gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(period))
}
