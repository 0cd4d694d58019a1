// Package command holds the command registry and the dispatcher shared by
// the one-shot CLI and the REPL.
package command

import (
	"context"
	"fmt"
)

// Outcome tells the REPL loop whether to keep reading input.
type Outcome int

const (
	Continue Outcome = iota
	Quit
)

// Handler runs one command with its positional arguments.
type Handler func(ctx context.Context, args []string) (Outcome, error)

// Spec describes a registered command.
type Spec struct {
	Names   []string // first name is the canonical one
	Usage   string   // e.g. "<issue-id> [repo...]"
	Summary string
	Handler Handler
}

// Group is a handler with the aliases that still resolve to it.
type Group struct {
	Names   []string
	Usage   string
	Summary string
}

// Registry maps command names to handlers. Build one at startup and hand it
// to a Dispatcher; it is not safe for concurrent registration.
type Registry struct {
	byName map[string]*Spec
	order  []*Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Spec)}
}

// Register adds spec under every one of its names. A name that was already
// registered is rebound to the new handler.
func (r *Registry) Register(spec Spec) {
	if len(spec.Names) == 0 {
		panic("command: Register called without names")
	}
	if spec.Handler == nil {
		panic(fmt.Sprintf("command: nil handler for %q", spec.Names[0]))
	}

	s := &spec
	r.order = append(r.order, s)
	for _, name := range spec.Names {
		r.byName[name] = s
	}
}

// Lookup resolves an exact command name.
func (r *Registry) Lookup(name string) (*Spec, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Groups lists registered handlers in registration order, each with the
// aliases that still point at it. Handlers whose aliases were all rebound are
// omitted.
func (r *Registry) Groups() []Group {
	var groups []Group
	for _, s := range r.order {
		var names []string
		for _, name := range s.Names {
			if r.byName[name] == s {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			continue
		}
		groups = append(groups, Group{Names: names, Usage: s.Usage, Summary: s.Summary})
	}
	return groups
}

// ShortNames returns the shortest alias of every group, for prompts.
func (r *Registry) ShortNames() []string {
	var short []string
	for _, g := range r.Groups() {
		best := g.Names[0]
		for _, n := range g.Names[1:] {
			if len(n) < len(best) {
				best = n
			}
		}
		short = append(short, best)
	}
	return short
}
