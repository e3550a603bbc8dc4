package backends

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner writes an executable shell script standing in for the external
// simulator binary and returns its path.
func fakeRunner(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake runner scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ionq-simd")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestIonQSimRunsExternalRunner(t *testing.T) {
	runner := fakeRunner(t, `echo '{"frequencies":[0.5,0.0,0.0,0.5]}'`)
	adapter, err := NewAdapter(TargetIonQSim, Config{RunnerPath: runner})
	require.NoError(t, err)

	raw, err := adapter.Run(context.Background(), bellCircuit(), nil, nil, 100)
	require.NoError(t, err)
	require.NotNil(t, raw.Probabilities)
	assert.Equal(t, []float64{0.5, 0, 0, 0.5}, raw.Probabilities)
	assert.Nil(t, raw.Statevector)
	assert.Nil(t, raw.Samples)
}

func TestIonQSimPassesCircuitFile(t *testing.T) {
	// The script echoes the circuit file back through its own output so the
	// test can confirm the flag wiring without parsing argv.
	runner := fakeRunner(t, `
if [ "$1" != "--circuit" ] || [ "$3" != "--shots" ]; then
  echo '{"error":"bad flags"}'
  exit 0
fi
if ! grep -q '"qubits":2' "$2"; then
  echo '{"error":"bad circuit payload"}'
  exit 0
fi
echo '{"frequencies":[1.0,0.0,0.0,0.0]}'`)
	adapter, err := NewAdapter(TargetIonQSim, Config{RunnerPath: runner})
	require.NoError(t, err)

	raw, err := adapter.Run(context.Background(), bellCircuit(), nil, nil, 64)
	require.NoError(t, err)
	assert.Equal(t, 1.0, raw.Probabilities[0])
}

func TestIonQSimSurfacesRunnerError(t *testing.T) {
	runner := fakeRunner(t, `echo '{"error":"qubit count exceeds device"}'`)
	adapter, err := NewAdapter(TargetIonQSim, Config{RunnerPath: runner})
	require.NoError(t, err)

	_, err = adapter.Run(context.Background(), bellCircuit(), nil, nil, 10)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "execute", execErr.Stage)
	assert.Contains(t, execErr.Error(), "qubit count exceeds device")
}

func TestIonQSimSurfacesRunnerCrash(t *testing.T) {
	runner := fakeRunner(t, `echo 'segfault' >&2; exit 3`)
	adapter, err := NewAdapter(TargetIonQSim, Config{RunnerPath: runner})
	require.NoError(t, err)

	_, err = adapter.Run(context.Background(), bellCircuit(), nil, nil, 10)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "execute", execErr.Stage)
	assert.Contains(t, execErr.Error(), "segfault")
}

func TestIonQSimRejectsBadFrequencyCount(t *testing.T) {
	runner := fakeRunner(t, `echo '{"frequencies":[1.0]}'`)
	adapter, err := NewAdapter(TargetIonQSim, Config{RunnerPath: runner})
	require.NoError(t, err)

	_, err = adapter.Run(context.Background(), bellCircuit(), nil, nil, 10)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "decode", execErr.Stage)
}

func TestIonQSimRejectsNoise(t *testing.T) {
	adapter, err := NewAdapter(TargetIonQSim, Config{RunnerPath: "unused"})
	require.NoError(t, err)

	_, err = adapter.Run(context.Background(), bellCircuit(), &NoiseModel{OneQubitError: 0.1}, nil, 10)
	assert.Error(t, err)
}

func TestIonQSimRejectsInitialState(t *testing.T) {
	adapter, err := NewAdapter(TargetIonQSim, Config{RunnerPath: "unused"})
	require.NoError(t, err)

	_, err = adapter.Run(context.Background(), bellCircuit(), nil, []complex128{1, 0, 0, 0}, 10)
	var incompatible *IncompatibleInitialStateError
	assert.ErrorAs(t, err, &incompatible)
}

func TestIonQSimRequiresShots(t *testing.T) {
	adapter, err := NewAdapter(TargetIonQSim, Config{RunnerPath: "unused"})
	require.NoError(t, err)

	_, err = adapter.Run(context.Background(), bellCircuit(), nil, nil, 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "shot")
}
