package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RelayOptions)(nil)

// RelayOptions configures the command relay queue.
type RelayOptions struct {
	// CameraTimeout is how long the relay trusts the camera after its last command or heartbeat.
	CameraTimeout time.Duration `json:"camera-timeout" mapstructure:"camera-timeout"`

	// MonitorInterval is the period of the camera status log line.
	MonitorInterval time.Duration `json:"monitor-interval" mapstructure:"monitor-interval"`
}

// NewRelayOptions creates a RelayOptions object with default parameters.
func NewRelayOptions() *RelayOptions {
	return &RelayOptions{
		CameraTimeout:   120 * time.Second,
		MonitorInterval: 3 * time.Second,
	}
}

// Validate checks the timing values.
func (o *RelayOptions) Validate() []error {
	var errs []error

	if o.CameraTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--relay.camera-timeout must be positive, got %s", o.CameraTimeout))
	}
	if o.MonitorInterval <= 0 {
		errs = append(errs, fmt.Errorf("--relay.monitor-interval must be positive, got %s", o.MonitorInterval))
	}

	return errs
}

// AddFlags adds flags for RelayOptions to the specified FlagSet.
func (o *RelayOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.CameraTimeout, "relay.camera-timeout", o.CameraTimeout, "Camera is considered disconnected after this long without contact.")
	fs.DurationVar(&o.MonitorInterval, "relay.monitor-interval", o.MonitorInterval, "Period of the camera status log line.")
}
