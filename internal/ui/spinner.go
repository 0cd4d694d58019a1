package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type spinDoneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	start   time.Time
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	// an empty final frame leaves nothing behind
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, Elapsed(time.Since(m.start)))
}

// Spin runs fn while a transient spinner with elapsed time is shown. On
// non-interactive consoles fn simply runs. fn must not prompt.
func (c *Console) Spin(ctx context.Context, label string, fn func(context.Context) error) error {
	if !c.interactive {
		return fn(ctx)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = c.Style().Foreground(ColorAccent)

	p := tea.NewProgram(
		spinnerModel{spinner: sp, label: label, start: time.Now()},
		tea.WithOutput(c.Err),
		tea.WithInput(nil),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_, _ = p.Run()
	}()

	err := fn(ctx)

	p.Send(spinDoneMsg{})
	<-finished
	return err
}
