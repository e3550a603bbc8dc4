package backends

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perclft/QBridge/backend/circuit"
)

func bellCircuit() *circuit.Circuit {
	return circuit.New([]circuit.Gate{
		circuit.NewGate(circuit.H, 0),
		circuit.NewControlledGate(circuit.CNOT, 0, 1),
	})
}

func TestTranslateQASM(t *testing.T) {
	circ := circuit.New([]circuit.Gate{
		circuit.NewGate(circuit.H, 0),
		circuit.NewRotationGate(circuit.RZ, 1, math.Pi/4),
		circuit.NewControlledGate(circuit.CNOT, 0, 1),
		circuit.NewGate(circuit.MEASURE, 0),
	})
	qasm, err := TranslateQASM(circ)
	require.NoError(t, err)

	assert.Contains(t, qasm, "OPENQASM 2.0;")
	assert.Contains(t, qasm, "include \"qelib1.inc\";")
	assert.Contains(t, qasm, "qreg q[2];")
	assert.Contains(t, qasm, "h q[0];")
	assert.Contains(t, qasm, "rz(0.785398) q[1];")
	assert.Contains(t, qasm, "cx q[0], q[1];")
	assert.Contains(t, qasm, "measure q[0] -> c[0];")
}

func TestTranslateQuil(t *testing.T) {
	circ := circuit.New([]circuit.Gate{
		circuit.NewGate(circuit.H, 0),
		circuit.NewRotationGate(circuit.RX, 1, math.Pi),
		circuit.NewControlledGate(circuit.CZ, 0, 1),
		circuit.NewGate(circuit.MEASURE, 1),
	})
	quil, err := TranslateQuil(circ)
	require.NoError(t, err)

	assert.Contains(t, quil, "H 0\n")
	assert.Contains(t, quil, "RX(3.141593) 1\n")
	assert.Contains(t, quil, "CZ 0 1\n")
	assert.Contains(t, quil, "MEASURE 1 ro[1]\n")
}

func TestTranslateQuilRejectsUnmappedGate(t *testing.T) {
	circ := circuit.New([]circuit.Gate{circuit.NewGate(circuit.SDG, 0)})
	_, err := TranslateQuil(circ)
	var unsupported *UnsupportedGateError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, circuit.SDG, unsupported.Gate)
}

func TestTranslateIonQJSON(t *testing.T) {
	circ := circuit.New([]circuit.Gate{
		circuit.NewGate(circuit.H, 0),
		circuit.NewRotationGate(circuit.RY, 1, 0.5),
		circuit.NewControlledGate(circuit.CNOT, 0, 1),
	})
	ionq, err := TranslateIonQJSON(circ)
	require.NoError(t, err)

	assert.Equal(t, 2, ionq.Qubits)
	require.Len(t, ionq.Circuit, 3)

	assert.Equal(t, IonQGate{Gate: "h", Target: 0}, ionq.Circuit[0])

	require.NotNil(t, ionq.Circuit[1].Rotation)
	assert.Equal(t, "ry", ionq.Circuit[1].Gate)
	assert.Equal(t, 0.5, *ionq.Circuit[1].Rotation)

	require.NotNil(t, ionq.Circuit[2].Control)
	assert.Equal(t, "cnot", ionq.Circuit[2].Gate)
	assert.Equal(t, 0, *ionq.Circuit[2].Control)
	assert.Equal(t, 1, ionq.Circuit[2].Target)
}

func TestMarshalIonQJSONShape(t *testing.T) {
	blob, err := MarshalIonQJSON(bellCircuit())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(blob, &doc))
	assert.Contains(t, doc, "qubits")
	assert.Contains(t, doc, "circuit")

	// Optional fields stay out of gates that do not use them.
	var parsed IonQCircuit
	require.NoError(t, json.Unmarshal(blob, &parsed))
	assert.Nil(t, parsed.Circuit[0].Control)
	assert.Nil(t, parsed.Circuit[0].Rotation)
}

func TestTranslateIonQJSONRejectsSwap(t *testing.T) {
	circ := circuit.New([]circuit.Gate{circuit.NewControlledGate(circuit.SWAP, 0, 1)})
	_, err := TranslateIonQJSON(circ)
	var unsupported *UnsupportedGateError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, TargetIonQSim, unsupported.Target)
}

func TestTranslateProgramRoundTrip(t *testing.T) {
	circ := circuit.New([]circuit.Gate{
		circuit.NewGate(circuit.H, 0),
		circuit.NewRotationGate(circuit.RZ, 1, math.Pi/3),
		circuit.NewControlledGate(circuit.CNOT, 0, 1),
		circuit.NewGate(circuit.MEASURE, 0),
	})
	program, err := TranslateProgram(circ)
	require.NoError(t, err)
	assert.Contains(t, program, "ALLOCATE 2\n")

	width, ops, err := compileProgram(program)
	require.NoError(t, err)
	assert.Equal(t, 2, width)
	require.Len(t, ops, 4)
	assert.Equal(t, circuit.H, ops[0].Name)
	assert.InDelta(t, math.Pi/3, ops[1].Parameter, 1e-15)
	assert.Equal(t, 0, ops[2].Control)
	assert.Equal(t, circuit.MEASURE, ops[3].Name)
}

func TestCompileProgramRejectsMalformedLine(t *testing.T) {
	_, _, err := compileProgram("ALLOCATE 1\nRX not-a-number 0\n")
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "compile", execErr.Stage)
	assert.Contains(t, execErr.Error(), "line 2")
}

func TestCompileProgramRequiresHeader(t *testing.T) {
	_, _, err := compileProgram("H 0\n")
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Error(), "ALLOCATE")
}
