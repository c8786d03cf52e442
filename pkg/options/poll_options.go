package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*PollOptions)(nil)

// PollOptions configures how the drive node asks the vision node for its next command.
type PollOptions struct {
	// Endpoint is the vision node (or relay) URL; lastCommand is appended as a query parameter.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// Interval is the minimum time between two polls.
	Interval time.Duration `json:"interval" mapstructure:"interval"`

	// Timeout bounds a single poll. The vision node waits on an LLM round trip, so this is long.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewPollOptions creates a PollOptions object with default parameters.
func NewPollOptions() *PollOptions {
	return &PollOptions{
		Endpoint: "http://192.168.4.1/",
		Interval: 2500 * time.Millisecond,
		Timeout:  60 * time.Second,
	}
}

// Validate checks the endpoint and timing values.
func (o *PollOptions) Validate() []error {
	var errs []error

	u, err := url.Parse(o.Endpoint)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("--poll.endpoint: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("--poll.endpoint: unsupported scheme %q", u.Scheme))
	}
	if o.Interval <= 0 {
		errs = append(errs, fmt.Errorf("--poll.interval must be positive, got %s", o.Interval))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--poll.timeout must be positive, got %s", o.Timeout))
	}

	return errs
}

// AddFlags adds flags for PollOptions to the specified FlagSet.
func (o *PollOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "poll.endpoint", o.Endpoint, "URL of the vision node or command relay to poll.")
	fs.DurationVar(&o.Interval, "poll.interval", o.Interval, "Minimum interval between two polls.")
	fs.DurationVar(&o.Timeout, "poll.timeout", o.Timeout, "Timeout of a single poll request.")
}
