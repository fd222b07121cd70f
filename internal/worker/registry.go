package worker

import (
	"fmt"
	"sort"

	"pipeflow/internal/domain"
)

// Registry holds the available worker classes. Registration happens at
// startup; lookups afterwards are read-only and need no locking.
type Registry struct {
	workers map[string]Worker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{workers: make(map[string]Worker)}
}

// Register adds a worker, validating its spec. It panics on a malformed or
// duplicate spec since that is a programming error surfaced at startup.
func (r *Registry) Register(w Worker) {
	spec := w.Spec()
	if spec.Class == "" {
		panic("worker registered with empty class name")
	}
	if _, exists := r.workers[spec.Class]; exists {
		panic(fmt.Sprintf("worker class %q registered twice", spec.Class))
	}
	seen := make(map[string]bool, len(spec.Params))
	for _, p := range spec.Params {
		if p.Name == "" {
			panic(fmt.Sprintf("worker class %q declares a param with no name", spec.Class))
		}
		if seen[p.Name] {
			panic(fmt.Sprintf("worker class %q declares param %q twice", spec.Class, p.Name))
		}
		seen[p.Name] = true
		if !domain.ValidParamType(p.Type) {
			panic(fmt.Sprintf("worker class %q param %q has unknown type %q", spec.Class, p.Name, p.Type))
		}
	}
	r.workers[spec.Class] = w
}

// Has reports whether a worker class is registered.
func (r *Registry) Has(class string) bool {
	_, ok := r.workers[class]
	return ok
}

// Get returns the worker for a class.
func (r *Registry) Get(class string) (Worker, error) {
	w, ok := r.workers[class]
	if !ok {
		return nil, domain.ErrNotFound("unknown worker class: %s", class)
	}
	return w, nil
}

// Specs returns every registered worker spec sorted by class name.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.workers))
	for _, w := range r.workers {
		specs = append(specs, w.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Class < specs[j].Class })
	return specs
}

// DefaultRegistry returns a Registry with every built-in worker class.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Delay{})
	r.Register(&BQScriptExecutor{})
	r.Register(&BQWaiter{})
	return r
}
