package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (device, errors)
	LevelLive    = 2 // Live info (frames grabbed, controls set)
	LevelVerbose = 3 // Verbose (commands run, negotiated formats)
	LevelTrace   = 4 // Trace (GPIO, very low level)
)

// FileOptions configures the optional rotating log file.
type FileOptions struct {
	Dir        string // directory for log files (created if missing)
	MaxSizeMB  int    // rotate after this many megabytes
	MaxBackups int    // rotated files to keep
}

var (
	mu      sync.RWMutex
	level   int
	console io.Writer = os.Stdout
	file    io.WriteCloser
	logger  *zerolog.Logger
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (device, configuration, errors)
// 2 = live info (frames, control writes)
// 3 = verbose (external commands, negotiated formats)
// 4 = trace (GPIO, very low level)
func Init(debugLevel int) {
	mu.Lock()
	defer mu.Unlock()
	level = debugLevel
	rebuild()
}

// SetOutput redirects console output (e.g. to tee lines into the web status stream).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = w
	rebuild()
}

// EnableFile adds a rotating log file next to the console output.
// The file is named after the start time: 18.10.2026_14-05-application.log.
func EnableFile(opts FileOptions) (string, error) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(opts.Dir, LogFileName(time.Now()))

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	rebuild()
	return path, nil
}

// LogFileName returns the log file name for a process started at t.
func LogFileName(t time.Time) string {
	return t.Format("02.01.2006_15-04") + "-application.log"
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	rebuild()
	return err
}

// rebuild must be called with mu held.
func rebuild() {
	if level <= LevelOff {
		logger = nil
		return
	}
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		NoColor:    true,
		TimeFormat: "15:04:05.000",
	}}
	if file != nil {
		writers = append(writers, file)
	}
	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Str("app", "uvcam").
		Logger()
	logger = &l
}

func at(minLevel int) *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if level < minLevel || logger == nil {
		return nil
	}
	return logger
}

// Level returns the current debug level.
func Level() int {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if l := at(LevelInfo); l != nil {
		l.Info().Msgf(format, args...)
	}
}

// Warn prints a level 1 warning.
func Warn(format string, args ...interface{}) {
	if l := at(LevelInfo); l != nil {
		l.Warn().Msgf(format, args...)
	}
}

// Value prints a named value in formatted form (level 1).
func Value(name string, value interface{}) {
	if l := at(LevelInfo); l != nil {
		l.Info().Msgf("  %s = %v", name, value)
	}
}

// Summary prints an important summary banner (level 1).
func Summary(title string) {
	if l := at(LevelInfo); l != nil {
		l.Info().Msg("═══════════════════════════════════════")
		l.Info().Msgf("  %s", title)
		l.Info().Msg("═══════════════════════════════════════")
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if l := at(LevelLive); l != nil {
		l.Info().Str("stage", "live").Msgf(format, args...)
	}
}

// Control prints a control read or write (level 2).
func Control(op, control string, value interface{}) {
	if l := at(LevelLive); l != nil {
		l.Info().Str("stage", "live").Str("op", op).Str("control", control).Msgf("%v", value)
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if l := at(LevelVerbose); l != nil {
		l.Debug().Msgf(format, args...)
	}
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if l := at(LevelVerbose); l != nil {
		l.Debug().Msgf("%s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if l := at(LevelVerbose); l != nil {
		l.Debug().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		l.Debug().Msgf("  %s", name)
		l.Debug().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if l := at(LevelVerbose); l != nil {
		l.Debug().Msgf("Step %d: %s", num, description)
	}
}

// Command prints an external command line (level 3).
func Command(name string, args []string) {
	if l := at(LevelVerbose); l != nil {
		l.Debug().Str("cmd", name).Strs("args", args).Msg("exec")
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace, GPIO).
func Trace(format string, args ...interface{}) {
	if l := at(LevelTrace); l != nil {
		l.Trace().Msgf(format, args...)
	}
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	if l := at(LevelTrace); l != nil {
		l.Trace().Str("op", operation).Int("pin", pin).Msgf("%v", value)
	}
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	if l := at(LevelInfo); l != nil {
		l.Error().Err(err).Msg("")
	}
}

// Errorf prints a formatted error message (level 1+).
func Errorf(format string, args ...interface{}) {
	if l := at(LevelInfo); l != nil {
		l.Error().Msgf(format, args...)
	}
}
