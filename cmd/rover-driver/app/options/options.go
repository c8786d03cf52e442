package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/rover/internal/roverdriver"
	"github.com/autopeer-io/rover/pkg/app"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

type DriverOptions struct {
	RoverID         string                   `json:"rover-id" mapstructure:"rover-id"`
	PollOptions     *options.PollOptions     `json:"poll" mapstructure:"poll"`
	MotionOptions   *options.MotionOptions   `json:"motion" mapstructure:"motion"`
	HardwareOptions *options.HardwareOptions `json:"hardware" mapstructure:"hardware"`
	LinkOptions     *options.LinkOptions     `json:"link" mapstructure:"link"`
	MqttOptions     *options.MqttOptions     `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions     *options.HttpOptions     `json:"http" mapstructure:"http"`
	Log             *log.Options             `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*DriverOptions)(nil)

func NewDriverOptions() *DriverOptions {
	o := &DriverOptions{
		PollOptions:     options.NewPollOptions(),
		MotionOptions:   options.NewMotionOptions(),
		HardwareOptions: options.NewHardwareOptions(),
		LinkOptions:     options.NewLinkOptions(),
		MqttOptions:     options.NewMqttOptions(),
		HttpOptions:     options.NewHttpOptions(":9090"),
		Log:             log.NewOptions(),
	}

	return o
}

func (o *DriverOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}

	fs := fss.FlagSet("generic")
	fs.StringVar(&o.RoverID, "rover-id", o.RoverID, "Identity of this rover. Defaults to $ROVER_ID, /etc/rover/id or the host name.")

	o.PollOptions.AddFlags(fss.FlagSet("poll"))
	o.MotionOptions.AddFlags(fss.FlagSet("motion"))
	o.HardwareOptions.AddFlags(fss.FlagSet("hardware"))
	o.LinkOptions.AddFlags(fss.FlagSet("link"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *DriverOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "rover-driver"
	}
	return nil
}

func (o *DriverOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.PollOptions.Validate()...)
	errs = append(errs, o.MotionOptions.Validate()...)
	errs = append(errs, o.HardwareOptions.Validate()...)
	errs = append(errs, o.LinkOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *DriverOptions) Config() (*roverdriver.Config, error) {
	return &roverdriver.Config{
		RoverID:         o.RoverID,
		PollOptions:     o.PollOptions,
		MotionOptions:   o.MotionOptions,
		HardwareOptions: o.HardwareOptions,
		LinkOptions:     o.LinkOptions,
		MqttOptions:     o.MqttOptions,
		HttpOptions:     o.HttpOptions,
	}, nil
}
