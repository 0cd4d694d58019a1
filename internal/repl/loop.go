package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alekspetrov/robota/internal/command"
	"github.com/alekspetrov/robota/internal/logging"
)

// Loop reads command lines and evaluates them until end of input or quit.
type Loop struct {
	dispatcher *command.Dispatcher
	in         *bufio.Reader
	out        io.Writer
	prompt     string
}

// New creates a loop over in/out. The prompt lists the shortest alias of
// every registered command. Pass the *bufio.Reader that interactive prompts
// read from, so the two never steal each other's buffered input.
func New(d *command.Dispatcher, in io.Reader, out io.Writer) *Loop {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	names := strings.Join(d.Registry().ShortNames(), "/")
	promptStyle := lipgloss.NewRenderer(out).NewStyle().Foreground(lipgloss.Color("2"))
	return &Loop{
		dispatcher: d,
		in:         br,
		out:        out,
		prompt:     promptStyle.Render(fmt.Sprintf("robota (%s) >", names)) + " ",
	}
}

// Run drives the loop. It returns nil on end of input or quit, and the
// offending error when a command fails unexpectedly; expected failures are
// printed and the loop goes on.
func (l *Loop) Run(ctx context.Context) error {
	log := logging.WithComponent("repl")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(l.out, l.prompt)
		line, err := l.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fmt.Fprintln(l.out)
			return nil
		}

		argv := Split(line)
		if len(argv) == 0 {
			continue
		}

		outcome, err := l.dispatcher.Eval(ctx, argv[0], argv[1:])
		switch {
		case err == nil:
		case command.IsExpected(err):
			fmt.Fprintln(l.out, err)
			continue
		default:
			command.ReportUnexpected(l.out, err)
			log.Error("leaving repl after unexpected error", "error", err)
			return err
		}

		if outcome == command.Quit {
			fmt.Fprintln(l.out, "Bye!")
			return nil
		}
	}
}
