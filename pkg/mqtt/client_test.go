package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"rover/v1/state/rv-01", "rover/v1/state/rv-01", true},
		{"rover/v1/state/+", "rover/v1/state/rv-01", true},
		{"rover/v1/state/+", "rover/v1/online/rv-01", false},
		{"rover/v1/#", "rover/v1/online/rv-01", true},
		{"rover/v1/state/+", "rover/v1/state", false},
		{"rover/v1/state", "rover/v1/state/rv-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"|"+tt.topic, func(t *testing.T) {
			require.Equal(t, tt.want, topicsMatch(tt.filter, tt.topic))
		})
	}
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	_, err = NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"})
	require.ErrorContains(t, err, "client id")

	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "rover-rv-01"})
	require.NoError(t, err)
	require.False(t, c.IsConnected())
}
