package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/domain"
)

func TestInvocation_ParamAccessors(t *testing.T) {
	inv := &Invocation{Params: map[string]any{
		"s":     "hello",
		"n":     2.5,
		"i":     3,
		"b":     true,
		"wrong": []string{"not a scalar"},
	}}

	assert.Equal(t, "hello", inv.StringParam("s", "def"))
	assert.Equal(t, "def", inv.StringParam("missing", "def"))
	assert.Equal(t, "def", inv.StringParam("wrong", "def"))

	assert.Equal(t, 2.5, inv.NumberParam("n", 0))
	assert.Equal(t, 3.0, inv.NumberParam("i", 0))
	assert.Equal(t, 7.0, inv.NumberParam("missing", 7))
	assert.Equal(t, 7.0, inv.NumberParam("wrong", 7))

	assert.True(t, inv.BoolParam("b", false))
	assert.False(t, inv.BoolParam("missing", false))
}

func TestInvocation_RequiredString(t *testing.T) {
	inv := &Invocation{Params: map[string]any{"ok": "v", "empty": ""}}

	v, err := inv.RequiredString("ok")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	_, err = inv.RequiredString("empty")
	assert.ErrorAs(t, err, new(*domain.ValidationError))
	_, err = inv.RequiredString("missing")
	assert.ErrorAs(t, err, new(*domain.ValidationError))
}

func TestInvocation_Enqueue(t *testing.T) {
	inv := &Invocation{}
	assert.Empty(t, inv.Enqueues())

	inv.Enqueue("BQWaiter", map[string]any{"bq_job_id": "j1"}, 60)
	inv.Enqueue("Delay", nil, 0)

	followups := inv.Enqueues()
	require.Len(t, followups, 2)
	assert.Equal(t, "BQWaiter", followups[0].WorkerClass)
	assert.Equal(t, 60, followups[0].DelaySeconds)
	assert.Equal(t, "Delay", followups[1].WorkerClass)
}
