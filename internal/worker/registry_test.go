package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/domain"
)

// specWorker is a do-nothing worker with a configurable spec.
type specWorker struct {
	spec Spec
}

func (w *specWorker) Spec() Spec { return w.spec }

func (w *specWorker) Execute(context.Context, *Invocation) error { return nil }

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&specWorker{spec: Spec{Class: "A"}})
	r.Register(&specWorker{spec: Spec{Class: "B"}})

	assert.True(t, r.Has("A"))
	assert.False(t, r.Has("C"))

	w, err := r.Get("A")
	require.NoError(t, err)
	assert.Equal(t, "A", w.Spec().Class)

	_, err = r.Get("C")
	assert.ErrorAs(t, err, new(*domain.NotFoundError))
}

func TestRegistry_SpecsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&specWorker{spec: Spec{Class: "Zeta"}})
	r.Register(&specWorker{spec: Spec{Class: "Alpha"}})

	specs := r.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "Alpha", specs[0].Class)
	assert.Equal(t, "Zeta", specs[1].Class)
}

func TestRegistry_RegisterPanicsOnBadSpec(t *testing.T) {
	tests := []struct {
		name string
		prep func(r *Registry)
		spec Spec
	}{
		{"empty class", nil, Spec{}},
		{
			"duplicate class",
			func(r *Registry) { r.Register(&specWorker{spec: Spec{Class: "A"}}) },
			Spec{Class: "A"},
		},
		{"unnamed param", nil, Spec{Class: "A", Params: []ParamSpec{{Type: domain.ParamTypeString}}}},
		{"duplicate param", nil, Spec{Class: "A", Params: []ParamSpec{
			{Name: "x", Type: domain.ParamTypeString},
			{Name: "x", Type: domain.ParamTypeString},
		}}},
		{"bad param type", nil, Spec{Class: "A", Params: []ParamSpec{{Name: "x", Type: "uuid"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if tt.prep != nil {
				tt.prep(r)
			}
			assert.Panics(t, func() { r.Register(&specWorker{spec: tt.spec}) })
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, class := range []string{"Delay", "BQScriptExecutor", "BQWaiter"} {
		assert.True(t, r.Has(class), class)
	}
}
