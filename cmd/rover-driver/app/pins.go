package app

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/rover/pkg/options"
)

var (
	servoRoles = []string{"front-left", "front-right", "back-left", "back-right"}
	leadRoles  = []string{"left IN1", "left IN2", "right IN3", "right IN4"}
	// Levels of IN1..IN4 while driving forward and backward.
	forwardLevels  = []string{"H", "L", "H", "L"}
	backwardLevels = []string{"L", "H", "L", "H"}
)

func newPinsCommand() *cobra.Command {
	hw := options.NewHardwareOptions()
	cmd := &cobra.Command{
		Use:   "pins",
		Short: "Print the pin wiring of the rover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utilerrors.NewAggregate(hw.Validate()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), PinTable(hw))
			return nil
		},
	}
	hw.AddFlags(cmd.Flags())
	return cmd
}

// PinTable lays out every pin with its role and its level per drive state.
func PinTable(hw *options.HardwareOptions) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("GROUP", "ROLE", "PIN", "NAME", "FORWARD", "BACKWARD")

	for i, pin := range hw.ServoPins {
		table.AddRow("steering", servoRoles[i], pin, pinName(hw, pin), "-", "-")
	}

	axles := []struct {
		name string
		pins []int
	}{
		{"front", hw.FrontPins},
		{"middle", hw.MiddlePins},
		{"back", hw.BackPins},
	}
	for _, a := range axles {
		for i, pin := range a.pins {
			table.AddRow(a.name, leadRoles[i], pin, pinName(hw, pin), forwardLevels[i], backwardLevels[i])
		}
	}
	return table
}

func pinName(hw *options.HardwareOptions, pin int) string {
	return fmt.Sprintf("%s%d", hw.PinPrefix, pin)
}
