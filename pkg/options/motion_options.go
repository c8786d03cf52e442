package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MotionOptions)(nil)

// MotionOptions configures the open-loop motion timing.
type MotionOptions struct {
	// Duration is how long a maneuver runs before it is considered complete.
	Duration time.Duration `json:"duration" mapstructure:"duration"`

	// Tick is the period of the control loop.
	Tick time.Duration `json:"tick" mapstructure:"tick"`
}

// NewMotionOptions creates a MotionOptions object with default parameters.
func NewMotionOptions() *MotionOptions {
	return &MotionOptions{
		Duration: 2000 * time.Millisecond,
		Tick:     20 * time.Millisecond,
	}
}

// Validate checks the timing values.
func (o *MotionOptions) Validate() []error {
	var errs []error

	if o.Duration <= 0 {
		errs = append(errs, fmt.Errorf("--motion.duration must be positive, got %s", o.Duration))
	}
	if o.Tick <= 0 || o.Tick >= o.Duration {
		errs = append(errs, fmt.Errorf("--motion.tick must be positive and shorter than --motion.duration, got %s", o.Tick))
	}

	return errs
}

// AddFlags adds flags for MotionOptions to the specified FlagSet.
func (o *MotionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.Duration, "motion.duration", o.Duration, "Open-loop duration of a single maneuver.")
	fs.DurationVar(&o.Tick, "motion.tick", o.Tick, "Control loop period.")
}
