package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/UVCam/internal/logic/timelapse"
)

func newTimelapseCmd(a *app) *cobra.Command {
	var (
		count    int
		interval time.Duration
		out      string
		prefix   string
	)

	cmd := &cobra.Command{
		Use:   "timelapse",
		Short: "Save a series of frames taken at a fixed interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("count") {
				count = a.cfg.Timelapse.Count
			}
			if !flags.Changed("interval") {
				interval = a.cfg.TimelapseInterval()
			}
			if !flags.Changed("out") {
				out = a.cfg.Timelapse.OutputDir
			}

			cam, err := openCamera(a.cfg)
			if err != nil {
				return err
			}
			defer cam.Close()

			paths, err := timelapse.NewSequence(cam).Run(cmd.Context(), timelapse.Params{
				Count:     count,
				Interval:  interval,
				OutputDir: out,
				Prefix:    prefix,
			})
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.IntVar(&count, "count", 0, "number of frames (default from config)")
	f.DurationVar(&interval, "interval", 0, "delay between frames, e.g. 500ms or 1m (default from config)")
	f.StringVar(&out, "out", "", "output directory (default from config)")
	f.StringVar(&prefix, "prefix", "frame", "file name prefix")
	return cmd
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
