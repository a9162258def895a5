package cli

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/arthur-debert/doppel/pkg/errors"
	"github.com/arthur-debert/doppel/pkg/logging"
	"github.com/arthur-debert/doppel/pkg/ui"
)

// Exit codes returned by Execute.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Execute runs the doppel command line with args and returns the process
// exit code. Errors are rendered on stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer func() { _ = logging.Close() }()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	format := ui.FormatAuto
	if flag := rootCmd.PersistentFlags().Lookup("format"); flag != nil {
		if parsed, perr := ui.ParseFormat(flag.Value.String()); perr == nil {
			format = parsed
		}
	}
	renderer, rerr := ui.NewRenderer(format, stderr)
	if rerr == nil {
		_ = renderer.RenderError(err)
	}

	return ExitCode(err)
}

// ExitCode maps an error to a process exit code: ExitUsage for invalid
// arguments, paths or engines, ExitError for anything else.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch errors.GetErrorCode(err) {
	case errors.ErrInvalidSource,
		errors.ErrInvalidDestination,
		errors.ErrIdenticalDirectories,
		errors.ErrInvalidEngine,
		errors.ErrInvalidInput,
		errors.ErrInvalidTemplateFile:
		return ExitUsage
	default:
		return ExitError
	}
}
