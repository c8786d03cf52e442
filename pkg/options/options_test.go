package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:9090", false},
		{":9090", false},
		{"localhost:80", false},
		{"9090", true},
		{"0.0.0.0:99999", true},
		{"not-an-ip:80", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHardwareOptionsDefaultsAreValid(t *testing.T) {
	require.Empty(t, NewHardwareOptions().Validate())
}

func TestHardwareOptionsRejectsSharedPins(t *testing.T) {
	o := NewHardwareOptions()
	o.BackPins = []int{26, 25, 33, 16}

	errs := o.Validate()
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "pin 16 already used")
}

func TestHardwareOptionsPulseMustFitPeriod(t *testing.T) {
	o := NewHardwareOptions()
	o.ServoFrequencyHz = 500 // 2ms period
	require.NotEmpty(t, o.Validate())
}

func TestMotionOptionsTickShorterThanDuration(t *testing.T) {
	o := NewMotionOptions()
	require.Empty(t, o.Validate())

	o.Tick = 3 * time.Second
	require.Len(t, o.Validate(), 1)
}

func TestPollOptions(t *testing.T) {
	o := NewPollOptions()
	require.Empty(t, o.Validate())

	o.Endpoint = "ftp://camera"
	o.Interval = 0
	require.Len(t, o.Validate(), 2)
}

func TestMqttOptionsDisabledByDefault(t *testing.T) {
	o := NewMqttOptions()
	require.False(t, o.Enabled())
	require.Empty(t, o.Validate())

	o.Broker = "tcp://localhost:1883"
	o.QueueSize = 0
	require.True(t, o.Enabled())
	require.Len(t, o.Validate(), 1)
}
