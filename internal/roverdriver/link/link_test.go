package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rover/pkg/log"
)

func TestAlways(t *testing.T) {
	require.True(t, Always{}.Connected())
	require.NoError(t, Always{}.Connect(context.Background()))
}

func TestInterfaceLinkConnectRetriesUntilUp(t *testing.T) {
	l := NewInterfaceLink("wlan0", time.Millisecond, 5*time.Millisecond, log.NewNopLogger())
	calls := 0
	l.lookup = func(string) (bool, error) {
		calls++
		if calls == 2 {
			return false, errors.New("no such network interface")
		}
		return calls >= 4, nil
	}

	require.False(t, l.Connected())
	require.NoError(t, l.Connect(context.Background()))
	require.Equal(t, 4, calls)
}

func TestInterfaceLinkConnectStopsOnCancel(t *testing.T) {
	l := NewInterfaceLink("wlan0", time.Millisecond, 2*time.Millisecond, log.NewNopLogger())
	l.lookup = func(string) (bool, error) { return false, nil }

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Connect(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInterfaceUpUnknownInterface(t *testing.T) {
	up, err := interfaceUp("rover-does-not-exist0")
	require.Error(t, err)
	require.False(t, up)
}
