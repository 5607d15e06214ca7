package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/UVCam/internal/hw/camera"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List video capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices := camera.ListDevices()
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no capture device found")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tID\tLABEL")
			for i, d := range devices {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i, d.ID, d.Label)
			}
			return tw.Flush()
		},
	}
}
