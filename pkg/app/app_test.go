package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	cliflag "k8s.io/component-base/cli/flag"
)

type pollOptions struct {
	Endpoint string        `mapstructure:"endpoint"`
	Interval time.Duration `mapstructure:"interval"`
}

type testOptions struct {
	Poll      *pollOptions `mapstructure:"poll"`
	completed bool
	invalid   bool
}

func newTestOptions() *testOptions {
	return &testOptions{Poll: &pollOptions{Endpoint: "http://camera/", Interval: 2500 * time.Millisecond}}
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("poll")
	fs.StringVar(&o.Poll.Endpoint, "poll.endpoint", o.Poll.Endpoint, "")
	fs.DurationVar(&o.Poll.Interval, "poll.interval", o.Poll.Interval, "")
	return fss
}

func (o *testOptions) Complete() error { o.completed = true; return nil }

func (o *testOptions) Validate() error {
	if o.invalid {
		return errors.New("invalid")
	}
	return nil
}

func execute(t *testing.T, opts *testOptions, args ...string) error {
	t.Helper()
	a := NewApp("rover-test", "test", WithOptions(opts), WithDefaultValidArgs(), WithRunFunc(func() error { return nil }))
	a.Command().SetArgs(args)
	return a.Command().Execute()
}

func TestFlagDefaults(t *testing.T) {
	opts := newTestOptions()
	require.NoError(t, execute(t, opts))
	require.True(t, opts.completed)
	require.Equal(t, "http://camera/", opts.Poll.Endpoint)
	require.Equal(t, 2500*time.Millisecond, opts.Poll.Interval)
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "rover.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("poll:\n  endpoint: http://relay:3000/next-command\n  interval: 3s\n"), 0o600))

	opts := newTestOptions()
	require.NoError(t, execute(t, opts, "--config", cfg, "--poll.interval", "4s"))
	require.Equal(t, "http://relay:3000/next-command", opts.Poll.Endpoint)
	require.Equal(t, 4*time.Second, opts.Poll.Interval)
}

func TestEnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("ROVER_TEST_POLL_ENDPOINT", "http://10.0.0.7/")

	opts := newTestOptions()
	require.NoError(t, execute(t, opts))
	require.Equal(t, "http://10.0.0.7/", opts.Poll.Endpoint)
}

func TestRejectsArgsAndInvalidOptions(t *testing.T) {
	require.Error(t, execute(t, newTestOptions(), "extra"))

	opts := newTestOptions()
	opts.invalid = true
	require.Error(t, execute(t, opts))
}
