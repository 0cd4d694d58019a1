package pullrequest

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alekspetrov/robota/internal/command"
)

// Usage is shown for malformed pr invocations.
const Usage = `[message] [ready] [--message|-m msg] [--ready|-r] [--no-tracker|-n]`

// Args are the parsed pr arguments.
type Args struct {
	Message   string
	Ready     bool
	NoTracker bool
}

// ParseArgs reads flags and the positional words "ready" and "no-tracker".
// Any other positional words form the message.
func ParseArgs(args []string) (Args, error) {
	var a Args

	fs := pflag.NewFlagSet("pr", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&a.Message, "message", "m", "", "extra commit message, or the PR title with --no-tracker")
	fs.BoolVarP(&a.Ready, "ready", "r", false, "open the PR ready for review instead of as a draft")
	fs.BoolVarP(&a.NoTracker, "no-tracker", "n", false, "do not link the PR to an issue")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return a, command.Errorf("usage: pr %s", Usage)
		}
		return a, command.Errorf("%v, usage: pr %s", err, Usage)
	}

	var words []string
	for _, arg := range fs.Args() {
		switch arg {
		case "ready":
			a.Ready = true
		case "no-tracker":
			a.NoTracker = true
		default:
			words = append(words, arg)
		}
	}
	if len(words) > 0 {
		if a.Message != "" {
			words = append([]string{a.Message}, words...)
		}
		a.Message = strings.Join(words, " ")
	}
	a.Message = strings.TrimSpace(a.Message)
	return a, nil
}
