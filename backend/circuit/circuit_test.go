package circuit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidthInference(t *testing.T) {
	c := New([]Gate{
		NewGate(H, 0),
		NewControlledGate(CNOT, 0, 3),
	})
	assert.Equal(t, 4, c.Width())
	assert.Equal(t, 2, c.Size())
	assert.False(t, c.IsMixedState())
}

func TestMinWidth(t *testing.T) {
	c := New([]Gate{NewGate(X, 0)}, 5)
	assert.Equal(t, 5, c.Width())

	// A smaller minimum never shrinks the inferred width.
	c = New([]Gate{NewGate(X, 4)}, 2)
	assert.Equal(t, 5, c.Width())
}

func TestMixedState(t *testing.T) {
	c := New([]Gate{
		NewGate(H, 0),
		NewGate(MEASURE, 0),
		NewGate(X, 0),
	})
	assert.True(t, c.IsMixedState())
}

func TestAppendLeavesReceiverUntouched(t *testing.T) {
	base := New([]Gate{NewGate(H, 0)}, 2)
	extended := base.Append(NewGate(X, 1), NewGate(MEASURE, 1))

	assert.Equal(t, 1, base.Size())
	assert.False(t, base.IsMixedState())
	assert.Equal(t, 3, extended.Size())
	assert.True(t, extended.IsMixedState())
	assert.Equal(t, 2, extended.Width())
}

func TestFingerprint(t *testing.T) {
	a := New([]Gate{NewGate(H, 0), NewControlledGate(CNOT, 0, 1)})
	b := New([]Gate{NewGate(H, 0), NewControlledGate(CNOT, 0, 1)})
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := New([]Gate{NewGate(H, 0), NewControlledGate(CNOT, 1, 0)})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d := New([]Gate{NewRotationGate(RX, 0, 0.5)})
	e := New([]Gate{NewRotationGate(RX, 0, 0.25)})
	assert.NotEqual(t, d.Fingerprint(), e.Fingerprint())

	// Same gates, forced wider register: different prepared state.
	f := New([]Gate{NewGate(H, 0)}, 1)
	g := New([]Gate{NewGate(H, 0)}, 2)
	assert.NotEqual(t, f.Fingerprint(), g.Fingerprint())
}

func TestGateString(t *testing.T) {
	assert.Equal(t, "H q[0]", NewGate(H, 0).String())
	assert.Equal(t, "RX(0.5) q[1]", NewRotationGate(RX, 1, 0.5).String())
	assert.Equal(t, "CNOT q[0], q[1]", NewControlledGate(CNOT, 0, 1).String())
}

func TestGateUnmarshalWithoutControl(t *testing.T) {
	var g Gate
	require.NoError(t, json.Unmarshal([]byte(`{"gate":"H","target":0}`), &g))
	assert.Equal(t, NoControl, g.Control)
	assert.False(t, g.HasControl())
}

func TestGateJSONRoundTripControlZero(t *testing.T) {
	// Control qubit 0 must survive the wire format.
	data, err := json.Marshal(NewControlledGate(CNOT, 0, 1))
	require.NoError(t, err)

	var g Gate
	require.NoError(t, json.Unmarshal(data, &g))
	assert.Equal(t, NewControlledGate(CNOT, 0, 1), g)
	assert.True(t, g.HasControl())
}
