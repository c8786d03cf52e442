package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rover/pkg/options"
)

func TestPinTable(t *testing.T) {
	out := PinTable(options.NewHardwareOptions()).String()
	lines := strings.Split(strings.TrimSpace(out), "\n")

	// Header, 4 servos, 3 axles of 4 leads.
	require.Len(t, lines, 1+4+12)
	require.Contains(t, lines[1], "GPIO16")
	require.Contains(t, out, "GPIO32")
}

func TestPinsCommandValidates(t *testing.T) {
	cmd := newPinsCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	cmd.SetArgs([]string{"--hardware.back-pins", "26,25,33"})
	require.Error(t, cmd.Execute())

	buf.Reset()
	cmd = newPinsCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--hardware.pin-prefix", "P"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "P16")
}
