package backends

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perclft/QBridge/backend/circuit"
	"github.com/perclft/QBridge/backend/operator"
)

func TestNewAdapterKnownTargets(t *testing.T) {
	for _, target := range []string{TargetQube, TargetAer, TargetGraphQ, TargetIonQSim} {
		adapter, err := NewAdapter(target, Config{})
		require.NoError(t, err, target)
		assert.Equal(t, target, adapter.Target())
	}
}

func TestNewAdapterUnknownTarget(t *testing.T) {
	_, err := NewAdapter("cirq", Config{})
	var unknown *UnknownBackendError
	assert.ErrorAs(t, err, &unknown)
}

func TestQubeExactBell(t *testing.T) {
	adapter, err := NewAdapter(TargetQube, Config{Seed: 1})
	require.NoError(t, err)

	raw, err := adapter.Run(context.Background(), bellCircuit(), nil, nil, 0)
	require.NoError(t, err)
	require.NotNil(t, raw.Statevector)
	require.Len(t, raw.Statevector, 4)

	assert.InDelta(t, 1/math.Sqrt2, real(raw.Statevector[0]), 1e-12)
	assert.InDelta(t, 1/math.Sqrt2, real(raw.Statevector[3]), 1e-12)
	assert.Nil(t, raw.Samples)
	assert.Nil(t, raw.Probabilities)
}

func TestQubeSamplingBell(t *testing.T) {
	adapter, err := NewAdapter(TargetQube, Config{Seed: 42})
	require.NoError(t, err)

	raw, err := adapter.Run(context.Background(), bellCircuit(), nil, nil, 200)
	require.NoError(t, err)
	require.Len(t, raw.Samples, 200)

	// A bell state only ever samples |00> or |11>.
	for _, s := range raw.Samples {
		assert.Contains(t, []uint64{0, 3}, s)
	}
}

func TestQubeInitialState(t *testing.T) {
	adapter, err := NewAdapter(TargetQube, Config{Seed: 1})
	require.NoError(t, err)

	initial := []complex128{0, 1} // |1>
	circ := circuit.New([]circuit.Gate{circuit.NewGate(circuit.X, 0)})
	raw, err := adapter.Run(context.Background(), circ, nil, initial, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1, real(raw.Statevector[0]), 1e-12)
}

func TestQubeInitialStateDimensionMismatch(t *testing.T) {
	adapter, err := NewAdapter(TargetQube, Config{Seed: 1})
	require.NoError(t, err)

	_, err = adapter.Run(context.Background(), bellCircuit(), nil, []complex128{1, 0}, 0)
	var incompatible *IncompatibleInitialStateError
	assert.ErrorAs(t, err, &incompatible)
}

func TestQubeCancelledContext(t *testing.T) {
	adapter, err := NewAdapter(TargetQube, Config{Seed: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = adapter.Run(ctx, bellCircuit(), nil, nil, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQubeNativeExpectation(t *testing.T) {
	adapter, err := NewAdapter(TargetQube, Config{Seed: 1})
	require.NoError(t, err)
	fast, ok := adapter.(ExpectationBackend)
	require.True(t, ok)

	op := operator.New().AddTerm([]operator.Pauli{{Qubit: 0, Label: "Z"}}, 1.0)
	v, err := fast.ExpectationValue([]complex128{1, 0}, op)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)
}

func TestAerRejectsInitialStateWithNoise(t *testing.T) {
	adapter, err := NewAdapter(TargetAer, Config{Seed: 1})
	require.NoError(t, err)

	noise := &NoiseModel{OneQubitError: 0.01}
	_, err = adapter.Run(context.Background(), bellCircuit(), noise, []complex128{1, 0, 0, 0}, 100)
	var incompatible *IncompatibleInitialStateError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, TargetAer, incompatible.Target)
}

func TestAerExactAndSamplingAgree(t *testing.T) {
	adapter, err := NewAdapter(TargetAer, Config{Seed: 5})
	require.NoError(t, err)

	circ := circuit.New([]circuit.Gate{circuit.NewGate(circuit.X, 0)})

	exact, err := adapter.Run(context.Background(), circ, nil, nil, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1, real(exact.Statevector[1]), 1e-12)

	sampled, err := adapter.Run(context.Background(), circ, nil, nil, 50)
	require.NoError(t, err)
	for _, s := range sampled.Samples {
		assert.Equal(t, uint64(1), s)
	}
}

func TestAerNoisySamplingFlipsSomeShots(t *testing.T) {
	adapter, err := NewAdapter(TargetAer, Config{Seed: 9})
	require.NoError(t, err)

	circ := circuit.New([]circuit.Gate{circuit.NewGate(circuit.X, 0)})
	noise := &NoiseModel{OneQubitError: 0.5}
	raw, err := adapter.Run(context.Background(), circ, noise, nil, 500)
	require.NoError(t, err)

	zeros := 0
	for _, s := range raw.Samples {
		if s == 0 {
			zeros++
		}
	}
	assert.Greater(t, zeros, 0, "strong noise must corrupt some shots")
}

func TestGraphQRejectsNoise(t *testing.T) {
	adapter, err := NewAdapter(TargetGraphQ, Config{Seed: 1})
	require.NoError(t, err)

	_, err = adapter.Run(context.Background(), bellCircuit(), &NoiseModel{OneQubitError: 0.1}, nil, 100)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "noise")
}

func TestGraphQExactBell(t *testing.T) {
	adapter, err := NewAdapter(TargetGraphQ, Config{Seed: 1})
	require.NoError(t, err)

	raw, err := adapter.Run(context.Background(), bellCircuit(), nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, raw.Statevector, 4)
	assert.InDelta(t, 1/math.Sqrt2, real(raw.Statevector[0]), 1e-12)
	assert.InDelta(t, 1/math.Sqrt2, real(raw.Statevector[3]), 1e-12)
}

func TestGraphQSampling(t *testing.T) {
	adapter, err := NewAdapter(TargetGraphQ, Config{Seed: 3})
	require.NoError(t, err)

	raw, err := adapter.Run(context.Background(), bellCircuit(), nil, nil, 100)
	require.NoError(t, err)
	require.Len(t, raw.Samples, 100)
	for _, s := range raw.Samples {
		assert.Contains(t, []uint64{0, 3}, s)
	}
}

func TestGraphQNativeExpectation(t *testing.T) {
	adapter, err := NewAdapter(TargetGraphQ, Config{Seed: 1})
	require.NoError(t, err)
	fast, ok := adapter.(ExpectationBackend)
	require.True(t, ok)

	plus := []complex128{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)}
	op := operator.New().AddTerm([]operator.Pauli{{Qubit: 0, Label: "X"}}, 1.0)
	v, err := fast.ExpectationValue(plus, op)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)
}
