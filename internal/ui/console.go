// Package ui renders robota's terminal output: styled tables, hyperlinks,
// markdown, transient spinners and interactive prompts.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Console bundles the process streams with the styling decisions made for
// them. Everything user-facing is written through a Console.
type Console struct {
	In  *bufio.Reader
	Out io.Writer
	Err io.Writer

	renderer    *lipgloss.Renderer
	color       bool
	interactive bool
	width       int
}

// NewConsole inspects the streams: colour is enabled only for a terminal
// without NO_COLOR, and prompts and spinners only when both ends are terminals.
func NewConsole(in io.Reader, out, errOut io.Writer) *Console {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}

	c := &Console{
		In:          br,
		Out:         out,
		Err:         errOut,
		renderer:    lipgloss.NewRenderer(out),
		color:       ShouldUseColor(out),
		interactive: IsTerminal(in) && IsTerminal(out),
		width:       terminalWidth(out),
	}
	if !c.color {
		c.renderer.SetColorProfile(termenv.Ascii)
	}
	return c
}

// NewPlainConsole returns a console that never colours, prompts through
// line input and never animates. Tests and piped runs use it.
func NewPlainConsole(in io.Reader, out io.Writer) *Console {
	c := NewConsole(in, out, out)
	c.color = false
	c.interactive = false
	c.renderer.SetColorProfile(termenv.Ascii)
	return c
}

// Interactive reports whether prompts and spinners may take over the terminal.
func (c *Console) Interactive() bool {
	return c.interactive
}

// Color reports whether ANSI styling is emitted.
func (c *Console) Color() bool {
	return c.color
}

// Printf writes to Out.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Println writes to Out.
func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Warnf writes a highlighted warning line to Err.
func (c *Console) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(c.Err, c.renderer.NewStyle().Foreground(ColorWarn).Render("warning: "+msg))
}

// Style returns a new style bound to the console's colour profile.
func (c *Console) Style() lipgloss.Style {
	return c.renderer.NewStyle()
}

// Link renders text as an OSC 8 hyperlink to url when colour is on.
func (c *Console) Link(text, url string) string {
	if !c.color || url == "" {
		return text
	}
	return termenv.Hyperlink(url, text)
}

// IsTerminal reports whether v is an *os.File attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ShouldUseColor reports whether ANSI colour should be written to w.
func ShouldUseColor(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTerminal(w)
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}
