// Package launch starts the operator's editor and terminal.
package launch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/alekspetrov/robota/internal/logging"
)

// Launcher opens workspaces in external programs.
type Launcher struct {
	editor   []string
	terminal []string

	// start runs a process without waiting for it. Tests replace it.
	start func(ctx context.Context, argv []string) error
}

// New returns a Launcher for the given argv templates. "{path}" in the
// editor template and "{dir}" in the terminal template are substituted;
// templates without a placeholder get the target appended.
func New(editor, terminal []string) *Launcher {
	return &Launcher{
		editor:   editor,
		terminal: terminal,
		start:    startDetached,
	}
}

// OpenEditor opens path (a workspace descriptor or directory) in the editor.
func (l *Launcher) OpenEditor(ctx context.Context, path string) error {
	return l.launch(ctx, "editor", expand(l.editor, "{path}", path))
}

// OpenTerminal opens a terminal whose working directory is dir.
func (l *Launcher) OpenTerminal(ctx context.Context, dir string) error {
	return l.launch(ctx, "terminal", expand(l.terminal, "{dir}", dir))
}

func (l *Launcher) launch(ctx context.Context, what string, argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return fmt.Errorf("no %s command configured", what)
	}
	logging.WithComponent("launch").Info("starting "+what, "argv", argv)
	if err := l.start(ctx, argv); err != nil {
		return fmt.Errorf("failed to start %s %q: %w", what, argv[0], err)
	}
	return nil
}

// expand substitutes placeholder in every element, appending target when
// no element mentions it.
func expand(template []string, placeholder, target string) []string {
	if len(template) == 0 {
		return nil
	}
	argv := make([]string, 0, len(template)+1)
	found := false
	for _, arg := range template {
		if strings.Contains(arg, placeholder) {
			found = true
			arg = strings.ReplaceAll(arg, placeholder, target)
		}
		argv = append(argv, arg)
	}
	if !found {
		argv = append(argv, target)
	}
	return argv
}

func startDetached(_ context.Context, argv []string) error {
	// not bound to ctx: the editor must outlive the command that opened it
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
