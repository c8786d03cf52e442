package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/rover/internal/relay"
	"github.com/autopeer-io/rover/pkg/app"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

type RelayOptions struct {
	HttpOptions  *options.HttpOptions  `json:"http" mapstructure:"http"`
	RelayOptions *options.RelayOptions `json:"relay" mapstructure:"relay"`
	Log          *log.Options          `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*RelayOptions)(nil)

func NewRelayOptions() *RelayOptions {
	return &RelayOptions{
		HttpOptions:  options.NewHttpOptions("0.0.0.0:3000"),
		RelayOptions: options.NewRelayOptions(),
		Log:          log.NewOptions(),
	}
}

func (o *RelayOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.RelayOptions.AddFlags(fss.FlagSet("relay"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *RelayOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "rover-relay"
	}
	return nil
}

func (o *RelayOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.RelayOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *RelayOptions) Config() (*relay.Config, error) {
	return &relay.Config{
		HttpOptions:  o.HttpOptions,
		RelayOptions: o.RelayOptions,
	}, nil
}
