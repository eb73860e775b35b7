package ports

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// StderrInteractor is the core's only concrete Interactor: results go to
// stdout as plain lines; warnings, errors and spinner messages go to stderr,
// and warnings and errors are also logged as zerolog records. Grounded on the
// teacher's vvfs/ports.Interactor boundary. A richer spinner/hyperlink UI
// is a named extension point outside this module's core packages.
type StderrInteractor struct {
	logger zerolog.Logger
}

// NewStderrInteractor builds an Interactor that logs through logger.
func NewStderrInteractor(logger zerolog.Logger) *StderrInteractor {
	return &StderrInteractor{logger: logger}
}

func (i *StderrInteractor) Output(message string) {
	fmt.Fprintln(os.Stdout, message)
}

func (i *StderrInteractor) Warning(message string) {
	fmt.Fprintf(os.Stderr, "warning: %s\n", message)
	i.logger.Warn().Msg(message)
}

func (i *StderrInteractor) Error(message string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s\n", message)
	ev := i.logger.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(message)
}

func (i *StderrInteractor) StartSpinner(message string) {
	fmt.Fprintf(os.Stderr, "%s...\n", message)
}

func (i *StderrInteractor) StopSpinner(success bool, message string) {
	if success {
		fmt.Fprintf(os.Stderr, "done: %s\n", message)
		return
	}
	fmt.Fprintf(os.Stderr, "failed: %s\n", message)
}
