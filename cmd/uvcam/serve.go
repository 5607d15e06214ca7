package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/UVCam/internal/config"
	"github.com/cjeanneret/UVCam/internal/debug"
	"github.com/cjeanneret/UVCam/internal/hw/camera"
	"github.com/cjeanneret/UVCam/internal/logic/timelapse"
	"github.com/cjeanneret/UVCam/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	port := newWebPortFlag(8080)
	var host string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live feed, controls and timelapse over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a.cfg, fmt.Sprintf("%s:%d", host, port.port()))
		},
	}
	cmd.Flags().Var(port, "port", "listen port; --port= for default 8080")
	cmd.Flags().StringVar(&host, "host", "", "listen address, empty for all interfaces")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	broadcaster := web.NewStatusBroadcaster()
	debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
	defer debug.SetOutput(os.Stdout)

	cam, err := openCamera(cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	l, closeLamp, err := openLamp(cfg)
	if err != nil {
		return err
	}
	defer closeLamp()

	deps := web.Deps{
		Broadcaster:  broadcaster,
		Camera:       cam,
		RunTimelapse: timelapseRunner(cam, cfg),
		Timelapse: web.TimelapseRequest{
			Count:      cfg.Timelapse.Count,
			IntervalMs: cfg.Timelapse.IntervalMs,
		},
	}
	// Leave the interface nil when there is no lamp.
	if l != nil {
		deps.Lamp = l
	}

	srv, err := web.NewServer(addr, deps)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// timelapseRunner adapts timelapse.Sequence to POST /timelapse.
func timelapseRunner(cam *camera.Camera, cfg *config.Config) web.RunTimelapseFunc {
	seq := timelapse.NewSequence(cam)
	return func(ctx context.Context, req web.TimelapseRequest) error {
		_, err := seq.Run(ctx, timelapse.Params{
			Count:     req.Count,
			Interval:  msToDuration(req.IntervalMs),
			OutputDir: cfg.Timelapse.OutputDir,
		})
		return err
	}
}
