// Package command is the command registry (C6): named descriptors with
// arity metadata and an execute contract, dispatched by internal/router.
package command

import (
	"context"
	"sort"
	"strings"

	"github.com/nikshvein/personhub/internal/domain"
)

// Session is the authenticated context a command executes under.
type Session struct {
	User domain.User
}

// Descriptor names one registered command: its arity contract and the
// function that carries it out.
type Descriptor struct {
	Name            string
	ArgNames        []string
	HelpText        string
	RequiredPersons int
	Execute         func(ctx context.Context, req domain.Request, sess Session) domain.Response
}

// Registry is the closed, case-insensitively keyed set of commands a
// Router may dispatch to.
type Registry struct {
	byName map[string]Descriptor
}

// NewRegistry returns an empty Registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Descriptor{}}
}

// Register adds d to the registry, keyed by the lower-cased name.
func (r *Registry) Register(d Descriptor) {
	r.byName[strings.ToLower(d.Name)] = d
}

// Lookup resolves name case-insensitively.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

// HelpText enumerates every registered command with its ArgNames and
// HelpText, sorted by name for a stable response.
func (r *Registry) HelpText() string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		d := r.byName[name]
		b.WriteString(d.Name)
		for _, a := range d.ArgNames {
			b.WriteString(" <")
			b.WriteString(a)
			b.WriteString(">")
		}
		b.WriteString(" - ")
		b.WriteString(d.HelpText)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
