package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the operator cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

// Prompter asks the operator for input.
type Prompter interface {
	// Ask returns a line of free text.
	Ask(ctx context.Context, question string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, question string, def bool) (bool, error)
}

// Prompter returns a huh-backed prompter on interactive consoles and a
// line-reading one otherwise.
func (c *Console) Prompter() Prompter {
	if c.interactive {
		return &formPrompter{}
	}
	return &LinePrompter{in: c.In, out: c.Out}
}

type formPrompter struct{}

func (p *formPrompter) Ask(ctx context.Context, question string) (string, error) {
	var answer string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title(question).Value(&answer),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return "", formErr(err)
	}
	return answer, nil
}

func (p *formPrompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	answer := def
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(question).Affirmative("Yes").Negative("No").Value(&answer),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return false, formErr(err)
	}
	return answer, nil
}

func formErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// LinePrompter reads answers one line at a time.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a prompter over in/out.
func NewLinePrompter(in *bufio.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: in, out: out}
}

// Ask prints question and returns the trimmed answer.
func (p *LinePrompter) Ask(_ context.Context, question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	return p.readLine()
}

// Confirm prints question with [y/n] choices. An empty answer selects def;
// anything but y/yes/n/no is asked again.
func (p *LinePrompter) Confirm(_ context.Context, question string, def bool) (bool, error) {
	choices := "[y/n] (n)"
	if def {
		choices = "[y/n] (y)"
	}
	for {
		fmt.Fprintf(p.out, "%s %s: ", question, choices)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please select one of the available options")
	}
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
