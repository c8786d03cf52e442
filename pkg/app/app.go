// Package app builds the cobra root command shared by the rover binaries.
//
// Options are registered as named flag sets. Values are resolved with the
// precedence: explicitly set flag > environment variable > config file > flag default.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the option struct of every binary.
type NamedFlagSetOptions interface {
	// Flags returns the flags grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete fills in fields derived from other fields.
	Complete() error
	// Validate checks the options and aggregates every problem found.
	Validate() error
}

// RunFunc is the main body of a binary, called once options are complete and valid.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// App is a command line application.
type App struct {
	name        string
	shortDesc   string
	description string
	envPrefix   string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	commands    []*cobra.Command

	configFile string
	cmd        *cobra.Command
}

// WithDescription sets the long description of the command.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithOptions registers the options whose flags the command exposes.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the function executed by the command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDefaultValidArgs rejects any positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithEnvPrefix sets the prefix of environment variables overriding options.
// Defaults to the upper-cased command name.
func WithEnvPrefix(prefix string) Option {
	return func(a *App) { a.envPrefix = prefix }
}

// WithCommands adds subcommands.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.commands = append(a.commands, cmds...) }
}

// NewApp creates an App and builds its cobra command.
func NewApp(name, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		envPrefix: strings.ToUpper(strings.ReplaceAll(name, "-", "_")),
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command returns the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	if a.options != nil {
		namedFlagSets := a.options.Flags()
		fs := cmd.Flags()
		for _, name := range namedFlagSets.Order {
			fs.AddFlagSet(namedFlagSets.FlagSets[name])
		}
	}
	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Read options from a YAML/JSON/TOML configuration file.")

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}
	cmd.AddCommand(a.commands...)

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	if a.options != nil {
		if err := a.loadOptions(cmd); err != nil {
			return err
		}
		if err := a.options.Complete(); err != nil {
			return fmt.Errorf("failed to complete options: %w", err)
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}
	return a.runFunc()
}

// loadOptions merges the config file and environment into the options through viper.
func (a *App) loadOptions(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(a.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %q: %w", a.configFile, err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}
