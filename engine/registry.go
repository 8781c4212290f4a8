package engine

import (
	"context"
	"fmt"
	"sort"
)

// Importer turns the payload of one family into batched writes on the run.
// Row defects are reported through run.Warnf; a returned error aborts the
// run and rolls back everything it wrote.
type Importer interface {
	Family() string
	Import(ctx context.Context, run *Run, p Payload) error
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc struct {
	Name string
	Fn   func(ctx context.Context, run *Run, p Payload) error
}

func (f ImporterFunc) Family() string { return f.Name }

func (f ImporterFunc) Import(ctx context.Context, run *Run, p Payload) error {
	return f.Fn(ctx, run, p)
}

// Registry selects an importer by family key.
type Registry struct {
	importers map[string]Importer
}

func NewRegistry(importers ...Importer) *Registry {
	r := &Registry{importers: make(map[string]Importer)}
	for _, imp := range importers {
		r.Register(imp)
	}
	return r
}

// Register adds imp. Registering the same family twice panics.
func (r *Registry) Register(imp Importer) {
	name := imp.Family()
	if _, dup := r.importers[name]; dup {
		panic(fmt.Sprintf("engine: importer %q registered twice", name))
	}
	r.importers[name] = imp
}

// Lookup returns the importer of family.
func (r *Registry) Lookup(family string) (Importer, bool) {
	imp, ok := r.importers[family]
	return imp, ok
}

// Families lists registered family keys, sorted.
func (r *Registry) Families() []string {
	out := make([]string, 0, len(r.importers))
	for name := range r.importers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
