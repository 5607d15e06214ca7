package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/UVCam/internal/hw/camera"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [control...]",
		Short: "Read control values (all controls when none is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := newController(a.cfg)
			names := ctrl.Names()
			if len(args) == 0 {
				args = names.Logical()
			}
			for _, control := range args {
				if _, ok := names.Lookup(control); !ok {
					return unknownControlError(control, names)
				}
			}
			for _, control := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", control, ctrl.GetControlValue(control))
			}
			return nil
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <control> <value>",
		Short: "Write a control value",
		Long: "Write a control value. autofocus and autoexposure also accept on/off:\n" +
			"autofocus on=1 off=0, autoexposure on=3 (aperture priority) off=1 (manual).",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := newController(a.cfg)
			control := args[0]
			if _, ok := ctrl.Names().Lookup(control); !ok {
				return unknownControlError(control, ctrl.Names())
			}
			value, err := parseControlValue(control, args[1])
			if err != nil {
				return err
			}
			return ctrl.Write(cmd.Context(), control, value)
		},
	}
}

func newControlsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "controls",
		Short: "List logical control names and the device controls they map to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printControlNames(cmd.OutOrStdout(), camera.NewControlNames(a.cfg.Controls.Names))
		},
	}
}

func printControlNames(w io.Writer, names camera.ControlNames) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTROL\tDEVICE CONTROL")
	for _, logical := range names.Logical() {
		device, _ := names.Lookup(logical)
		fmt.Fprintf(tw, "%s\t%s\n", logical, device)
	}
	return tw.Flush()
}

// parseControlValue parses an integer, or on/off for the two toggles.
func parseControlValue(control, s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	var on bool
	switch strings.ToLower(s) {
	case "on", "true":
		on = true
	case "off", "false":
	default:
		return 0, fmt.Errorf("invalid value %q for %s: want an integer", s, control)
	}
	switch control {
	case camera.AutoFocus:
		if on {
			return 1, nil
		}
		return 0, nil
	case camera.AutoExposure:
		if on {
			return 3, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("invalid value %q for %s: on/off only applies to %s and %s",
			s, control, camera.AutoFocus, camera.AutoExposure)
	}
}

func unknownControlError(control string, names camera.ControlNames) error {
	return fmt.Errorf("unknown control %q (valid: %s)", control, strings.Join(names.Logical(), ", "))
}
