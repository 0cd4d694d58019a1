package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alekspetrov/robota/internal/logging"
)

// Dispatcher resolves names against a Registry and runs the handlers.
type Dispatcher struct {
	registry *Registry
	stderr   io.Writer
}

// NewDispatcher creates a dispatcher writing diagnostics to stderr.
func NewDispatcher(registry *Registry, stderr io.Writer) *Dispatcher {
	return &Dispatcher{registry: registry, stderr: stderr}
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Eval runs the handler registered under name. Unknown names yield an
// expected error wrapping *UnknownCommandError; a handler panic is recovered
// and returned as *PanicError.
func (d *Dispatcher) Eval(ctx context.Context, name string, args []string) (outcome Outcome, err error) {
	spec, ok := d.registry.Lookup(name)
	if !ok {
		return Continue, Expected(&UnknownCommandError{Name: name, Args: args})
	}

	ctx = logging.ContextWithCommand(ctx, spec.Names[0])
	ctx = logging.ContextWithCorrelationID(ctx, uuid.NewString())
	log := logging.WithContext(ctx)
	start := time.Now()
	log.Info("command started", "alias", name, "args", len(args))

	defer func() {
		if r := recover(); r != nil {
			outcome, err = Continue, &PanicError{Value: r, Stack: debug.Stack()}
		}
		log.Info("command finished",
			"duration", time.Since(start).Round(time.Millisecond),
			"exit_code", ExitCode(err))
		if err != nil && !IsExpected(err) {
			log.Error("command failed", "error", err)
		}
	}()

	return spec.Handler(ctx, args)
}

// Run is the one-shot flavour of Eval: it reports the outcome on stderr and
// maps it to a process exit code.
func (d *Dispatcher) Run(ctx context.Context, name string, args []string) int {
	_, err := d.Eval(ctx, name, args)
	code := ExitCode(err)

	var unknown *UnknownCommandError
	switch {
	case err == nil:
	case errors.As(err, &unknown):
		fmt.Fprintln(d.stderr, "Error: Unexpected command:", strings.Join(append([]string{name}, args...), " "))
		d.Help(d.stderr)
	case code == ExitExpected:
		fmt.Fprintf(d.stderr, "Exiting because of %v\n", err)
	default:
		ReportUnexpected(d.stderr, err)
	}
	return code
}

// Help prints every registered command with its aliases.
func (d *Dispatcher) Help(w io.Writer) {
	fmt.Fprintln(w, "Available commands:")
	for _, g := range d.registry.Groups() {
		fmt.Fprintf(w, "  %s: %s\n", strings.Join(g.Names, ", "), g.Summary)
		if g.Usage != "" {
			fmt.Fprintf(w, "      usage: %s %s\n", g.Names[0], g.Usage)
		}
	}
}

// ExitCode maps a handler error to the process exit code.
func ExitCode(err error) int {
	var unknown *UnknownCommandError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &unknown):
		return ExitUnexpected
	case IsExpected(err):
		return ExitExpected
	default:
		return ExitUnexpected
	}
}
