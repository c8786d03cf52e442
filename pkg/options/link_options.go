package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*LinkOptions)(nil)

// LinkOptions configures the network connectivity check.
type LinkOptions struct {
	// Interface is the network interface carrying the vision node link (e.g. wlan0).
	// An empty value treats the link as always up.
	Interface string `json:"interface" mapstructure:"interface"`

	// RetryInterval is the first wait between two reconnect checks.
	RetryInterval time.Duration `json:"retry-interval" mapstructure:"retry-interval"`

	// MaxRetryInterval caps the exponential backoff between reconnect checks.
	MaxRetryInterval time.Duration `json:"max-retry-interval" mapstructure:"max-retry-interval"`
}

// NewLinkOptions creates a LinkOptions object with default parameters.
func NewLinkOptions() *LinkOptions {
	return &LinkOptions{
		RetryInterval:    500 * time.Millisecond,
		MaxRetryInterval: 5 * time.Second,
	}
}

// Validate checks the retry intervals.
func (o *LinkOptions) Validate() []error {
	var errs []error

	if o.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("--link.retry-interval must be positive, got %s", o.RetryInterval))
	}
	if o.MaxRetryInterval < o.RetryInterval {
		errs = append(errs, fmt.Errorf("--link.max-retry-interval must not be shorter than --link.retry-interval"))
	}

	return errs
}

// AddFlags adds flags for LinkOptions to the specified FlagSet.
func (o *LinkOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Interface, "link.interface", o.Interface, "Network interface to watch (e.g. wlan0). Empty means always connected.")
	fs.DurationVar(&o.RetryInterval, "link.retry-interval", o.RetryInterval, "Initial wait between reconnect checks.")
	fs.DurationVar(&o.MaxRetryInterval, "link.max-retry-interval", o.MaxRetryInterval, "Maximum wait between reconnect checks.")
}
