package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/UVCam/internal/config"
	"github.com/cjeanneret/UVCam/internal/debug"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	envFile    string
	debugLevel int // -1 = from config

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "uvcam",
		Short:         "Stream, snapshot and tune a UVC webcam",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return debug.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", filepath.Join("configs", "default.yaml"), "path to config file")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file with UVCAM_* overrides")
	pf.IntVar(&a.debugLevel, "debug-level", -1, "debug level 0-4, overrides config (0=off, 1=info, 2=live, 3=verbose, 4=trace)")

	root.AddCommand(
		newServeCmd(a),
		newSnapshotCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newControlsCmd(a),
		newTimelapseCmd(a),
		newLampCmd(a),
		newDevicesCmd(a),
	)
	return root
}

// init loads configuration and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg, a.envFile); err != nil {
		return err
	}
	if a.debugLevel >= 0 {
		cfg.Defaults.DebugLevel = a.debugLevel
	}
	a.cfg = cfg

	debug.Init(cfg.Defaults.DebugLevel)
	if cfg.Log.ToFile {
		path, err := debug.EnableFile(debug.FileOptions{
			Dir:        cfg.Log.Dir,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
		if err != nil {
			return err
		}
		debug.Value("Log file", path)
	}

	debug.Section("Initialization")
	debug.Value("Config path", a.configPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.PrintStruct("Camera config", cfg.Camera)
	return nil
}

// loadConfig reads path. A missing default file falls back to built-in defaults;
// a missing file given explicitly is an error.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}
