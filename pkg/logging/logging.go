package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NoFile disables the log file when passed as Options.File.
const NoFile = "-"

// Options configures Setup.
type Options struct {
	// Verbosity maps -v counts to levels: 0 warn, 1 info, 2 debug, 3+ trace.
	Verbosity int

	// File is appended to as JSON lines. Empty selects DefaultFile(). It is
	// opened when the first event reaches it, so a run that logs nothing
	// leaves no file behind.
	File string

	// Console receives human-readable output. Defaults to os.Stderr.
	Console io.Writer
}

var (
	mu      sync.Mutex
	logFile *lazyFile
)

// SetupLogger configures the global logger with the default log file.
func SetupLogger(verbosity int) {
	Setup(Options{Verbosity: verbosity})
}

// Setup replaces the global logger. Console output and the log file are
// written side by side; a log file that cannot be opened degrades to console
// only with a warning.
func Setup(opts Options) {
	zerolog.SetGlobalLevel(Level(opts.Verbosity))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
	writers := []io.Writer{consoleWriter}

	path := opts.File
	if path == "" {
		path = DefaultFile()
	}

	mu.Lock()
	_ = closeFileLocked()
	if path != NoFile {
		logFile = &lazyFile{path: path, console: zerolog.New(consoleWriter).With().Timestamp().Logger()}
		writers = append(writers, logFile)
	}
	mu.Unlock()

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if opts.Verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	log.Debug().Int("verbosity", opts.Verbosity).Str("logFile", path).Msg("Logger initialized")
}

// lazyFile opens its path on the first write. Open failures are reported
// once on the console and later events are dropped, as are events written
// after Close.
type lazyFile struct {
	path    string
	console zerolog.Logger

	mu     sync.Mutex
	opened bool
	closed bool
	file   *os.File
}

func (l *lazyFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return len(p), nil
	}
	if !l.opened {
		l.opened = true
		file, err := openLogFile(l.path)
		if err != nil {
			l.console.Warn().Err(err).Str("path", l.path).Msg("Failed to create log file, logging to console only")
		}
		l.file = file
	}
	if l.file == nil {
		return len(p), nil
	}
	return l.file.Write(p)
}

func (l *lazyFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Level returns the global level selected by a verbosity count.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// DefaultFile is the log file under the XDG state directory,
// e.g. ~/.local/state/doppel/doppel.log.
func DefaultFile() string {
	return filepath.Join(xdg.StateHome, "doppel", "doppel.log")
}

// Close releases the log file opened by the last Setup, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeFileLocked()
}

func closeFileLocked() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// GetLogger returns a child of the global logger tagged with a component.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogOperationStart logs the start of an operation at debug level and returns
// a func logging its completion and duration.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
