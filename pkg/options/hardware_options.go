package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HardwareOptions)(nil)

const (
	HardwareDriverPeriph = "periph"
	HardwareDriverMemory = "memory"
)

// HardwareOptions describes the board driver and the pin assignments of the rover.
type HardwareOptions struct {
	// Driver selects the board implementation: "periph" for real GPIO, "memory" for a dry run.
	Driver string `json:"driver" mapstructure:"driver"`

	// PinPrefix is prepended to pin numbers to form periph pin names (GPIO16, ...).
	PinPrefix string `json:"pin-prefix" mapstructure:"pin-prefix"`

	// ServoPins lists the steering servos: front-left, front-right, back-left, back-right.
	ServoPins []int `json:"servo-pins" mapstructure:"servo-pins"`

	// FrontPins, MiddlePins and BackPins list an axle pair as left IN1, left IN2, right IN3, right IN4.
	FrontPins  []int `json:"front-pins" mapstructure:"front-pins"`
	MiddlePins []int `json:"middle-pins" mapstructure:"middle-pins"`
	BackPins   []int `json:"back-pins" mapstructure:"back-pins"`

	// ServoMinPulse and ServoMaxPulse are the pulse widths for 0 and 180 degrees.
	ServoMinPulse time.Duration `json:"servo-min-pulse" mapstructure:"servo-min-pulse"`
	ServoMaxPulse time.Duration `json:"servo-max-pulse" mapstructure:"servo-max-pulse"`

	// ServoFrequencyHz is the PWM frequency of the servo signal.
	ServoFrequencyHz int `json:"servo-frequency-hz" mapstructure:"servo-frequency-hz"`
}

// NewHardwareOptions returns the wiring of the reference rover.
func NewHardwareOptions() *HardwareOptions {
	return &HardwareOptions{
		Driver:           HardwareDriverPeriph,
		PinPrefix:        "GPIO",
		ServoPins:        []int{16, 17, 18, 19},
		FrontPins:        []int{2, 4, 5, 13},
		MiddlePins:       []int{14, 12, 15, 27},
		BackPins:         []int{26, 25, 33, 32},
		ServoMinPulse:    500 * time.Microsecond,
		ServoMaxPulse:    2500 * time.Microsecond,
		ServoFrequencyHz: 50,
	}
}

// Validate checks the driver name, pin counts and that no pin is assigned twice.
func (o *HardwareOptions) Validate() []error {
	var errs []error

	if o.Driver != HardwareDriverPeriph && o.Driver != HardwareDriverMemory {
		errs = append(errs, fmt.Errorf("--hardware.driver must be %q or %q, got %q", HardwareDriverPeriph, HardwareDriverMemory, o.Driver))
	}

	groups := []struct {
		flag string
		pins []int
	}{
		{"--hardware.servo-pins", o.ServoPins},
		{"--hardware.front-pins", o.FrontPins},
		{"--hardware.middle-pins", o.MiddlePins},
		{"--hardware.back-pins", o.BackPins},
	}

	seen := make(map[int]string)
	for _, g := range groups {
		if len(g.pins) != 4 {
			errs = append(errs, fmt.Errorf("%s needs exactly 4 pins, got %d", g.flag, len(g.pins)))
		}
		for _, p := range g.pins {
			if other, ok := seen[p]; ok {
				errs = append(errs, fmt.Errorf("%s: pin %d already used by %s", g.flag, p, other))
				continue
			}
			seen[p] = g.flag
		}
	}

	if o.ServoMinPulse <= 0 || o.ServoMaxPulse <= o.ServoMinPulse {
		errs = append(errs, fmt.Errorf("servo pulse range %s..%s is invalid", o.ServoMinPulse, o.ServoMaxPulse))
	}
	if o.ServoFrequencyHz <= 0 {
		errs = append(errs, fmt.Errorf("--hardware.servo-frequency-hz must be positive, got %d", o.ServoFrequencyHz))
	} else if period := time.Second / time.Duration(o.ServoFrequencyHz); o.ServoMaxPulse >= period {
		errs = append(errs, fmt.Errorf("servo max pulse %s does not fit in a %s period", o.ServoMaxPulse, period))
	}

	return errs
}

// AddFlags adds flags for HardwareOptions to the specified FlagSet.
func (o *HardwareOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Driver, "hardware.driver", o.Driver, "Board driver: 'periph' drives real GPIO, 'memory' only records writes.")
	fs.StringVar(&o.PinPrefix, "hardware.pin-prefix", o.PinPrefix, "Prefix used to build periph pin names from pin numbers.")
	fs.IntSliceVar(&o.ServoPins, "hardware.servo-pins", o.ServoPins, "Steering servo pins: front-left, front-right, back-left, back-right.")
	fs.IntSliceVar(&o.FrontPins, "hardware.front-pins", o.FrontPins, "Front axle H-bridge pins: IN1, IN2, IN3, IN4.")
	fs.IntSliceVar(&o.MiddlePins, "hardware.middle-pins", o.MiddlePins, "Middle axle H-bridge pins: IN1, IN2, IN3, IN4.")
	fs.IntSliceVar(&o.BackPins, "hardware.back-pins", o.BackPins, "Back axle H-bridge pins: IN1, IN2, IN3, IN4.")
	fs.DurationVar(&o.ServoMinPulse, "hardware.servo-min-pulse", o.ServoMinPulse, "Servo pulse width at 0 degrees.")
	fs.DurationVar(&o.ServoMaxPulse, "hardware.servo-max-pulse", o.ServoMaxPulse, "Servo pulse width at 180 degrees.")
	fs.IntVar(&o.ServoFrequencyHz, "hardware.servo-frequency-hz", o.ServoFrequencyHz, "Servo PWM frequency.")
}
