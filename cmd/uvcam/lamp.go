package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/UVCam/internal/debug"
	"github.com/cjeanneret/UVCam/internal/hw/lamp"
)

var errNoLamp = errors.New("no lamp configured (set lamp.pin or UVCAM_LAMP_PIN)")

func newLampCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "lamp [on|off]",
		Short:     "Show or switch the illuminator",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if !cfg.LampEnabled() {
				return errNoLamp
			}

			if len(args) == 0 {
				drv, err := newGPIODriver(cfg.Defaults.MockGPIO)
				if err != nil {
					return fmt.Errorf("init GPIO: %w", err)
				}
				defer drv.Close()
				on, err := lamp.State(drv, cfg.Lamp.Pin, cfg.Lamp.ActiveLow)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "lamp (pin %d): %s\n", cfg.Lamp.Pin, onOff(on))
				return nil
			}

			l, closeLamp, err := openLamp(cfg)
			if err != nil {
				return err
			}
			defer closeLamp()
			on := args[0] == "on"
			if err := l.Set(on); err != nil {
				return err
			}
			// The pin must keep its level after the command exits.
			l.Keep()
			debug.Info("Lamp on pin %d switched %s", l.Pin(), onOff(on))
			return nil
		},
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
