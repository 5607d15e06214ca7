package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/UVCam/internal/debug"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Grab one timestamped JPEG frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cam, err := openCamera(a.cfg)
			if err != nil {
				return err
			}
			defer cam.Close()

			frame, err := cam.GetFrame()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, frame, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			debug.Info("Snapshot saved to %s (%d bytes)", out, len(frame))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	addOutputFlag(cmd.Flags(), &out, "snapshot.jpg", "output file")
	return cmd
}
