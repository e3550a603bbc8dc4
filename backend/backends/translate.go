// Circuit format conversion between the abstract format and each backend's
// native instruction format. To produce an equivalent circuit it is
// necessary to account for how gate names differ between source and target,
// and how the order and conventions of gate inputs may also differ.

package backends

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/perclft/QBridge/backend/circuit"
)

// ------------------------------------------------------------------
// OpenQASM 2.0
// ------------------------------------------------------------------

var gateQASM = map[string]string{
	circuit.H: "h", circuit.X: "x", circuit.Y: "y", circuit.Z: "z",
	circuit.S: "s", circuit.T: "t", circuit.SDG: "sdg", circuit.TDG: "tdg",
	circuit.RX: "rx", circuit.RY: "ry", circuit.RZ: "rz",
	circuit.CNOT: "cx", circuit.CZ: "cz", circuit.SWAP: "swap",
}

// TranslateQASM renders the abstract circuit as an OpenQASM 2.0 program.
func TranslateQASM(circ *circuit.Circuit) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "OPENQASM 2.0;\ninclude \"qelib1.inc\";\n\nqreg q[%d];\ncreg c[%d];\n\n", circ.Width(), circ.Width())
	for _, g := range circ.Gates() {
		if g.Name == circuit.MEASURE {
			fmt.Fprintf(&b, "measure q[%d] -> c[%d];\n", g.Target, g.Target)
			continue
		}
		name, ok := gateQASM[g.Name]
		if !ok {
			return "", &UnsupportedGateError{Gate: g.Name, Target: "qasm"}
		}
		switch {
		case g.IsRotation():
			fmt.Fprintf(&b, "%s(%f) q[%d];\n", name, g.Parameter, g.Target)
		case g.HasControl():
			fmt.Fprintf(&b, "%s q[%d], q[%d];\n", name, g.Control, g.Target)
		default:
			fmt.Fprintf(&b, "%s q[%d];\n", name, g.Target)
		}
	}
	return b.String(), nil
}

// ------------------------------------------------------------------
// Quil
// ------------------------------------------------------------------

var gateQuil = map[string]string{
	circuit.H: "H", circuit.X: "X", circuit.Y: "Y", circuit.Z: "Z",
	circuit.S: "S", circuit.T: "T",
	circuit.RX: "RX", circuit.RY: "RY", circuit.RZ: "RZ",
	circuit.CNOT: "CNOT", circuit.CZ: "CZ", circuit.SWAP: "SWAP",
}

// TranslateQuil renders the abstract circuit as a Quil program.
func TranslateQuil(circ *circuit.Circuit) (string, error) {
	var b strings.Builder
	for _, g := range circ.Gates() {
		if g.Name == circuit.MEASURE {
			fmt.Fprintf(&b, "MEASURE %d ro[%d]\n", g.Target, g.Target)
			continue
		}
		name, ok := gateQuil[g.Name]
		if !ok {
			return "", &UnsupportedGateError{Gate: g.Name, Target: "quil"}
		}
		switch {
		case g.IsRotation():
			fmt.Fprintf(&b, "%s(%f) %d\n", name, g.Parameter, g.Target)
		case g.HasControl():
			fmt.Fprintf(&b, "%s %d %d\n", name, g.Control, g.Target)
		default:
			fmt.Fprintf(&b, "%s %d\n", name, g.Target)
		}
	}
	return b.String(), nil
}

// ------------------------------------------------------------------
// IonQ JSON
// ------------------------------------------------------------------

// IonQGate is one instruction of the IonQ JSON circuit specification.
type IonQGate struct {
	Gate     string   `json:"gate"`
	Target   int      `json:"target"`
	Control  *int     `json:"control,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// IonQCircuit follows the IonQ JSON format: https://docs.ionq.co
type IonQCircuit struct {
	Qubits  int        `json:"qubits"`
	Circuit []IonQGate `json:"circuit"`
}

// TranslateIonQJSON converts the abstract circuit to the IonQ JSON format.
// The supported vocabulary maps by lowercasing the abstract name.
func TranslateIonQJSON(circ *circuit.Circuit) (*IonQCircuit, error) {
	gates := make([]IonQGate, 0, circ.Size())
	for _, g := range circ.Gates() {
		switch g.Name {
		case circuit.H, circuit.X, circuit.Y, circuit.Z, circuit.S, circuit.T:
			gates = append(gates, IonQGate{Gate: strings.ToLower(g.Name), Target: g.Target})
		case circuit.RX, circuit.RY, circuit.RZ:
			rot := g.Parameter
			gates = append(gates, IonQGate{Gate: strings.ToLower(g.Name), Target: g.Target, Rotation: &rot})
		case circuit.CNOT:
			ctrl := g.Control
			gates = append(gates, IonQGate{Gate: "cnot", Target: g.Target, Control: &ctrl})
		default:
			return nil, &UnsupportedGateError{Gate: g.Name, Target: TargetIonQSim}
		}
	}
	return &IonQCircuit{Qubits: circ.Width(), Circuit: gates}, nil
}

// MarshalIonQJSON renders the IonQ JSON circuit as bytes ready to hand to a
// runner or an API endpoint.
func MarshalIonQJSON(circ *circuit.Circuit) ([]byte, error) {
	ionq, err := TranslateIonQJSON(circ)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ionq)
}

// ------------------------------------------------------------------
// graphq program text
// ------------------------------------------------------------------

// TranslateProgram renders the abstract circuit as the line-oriented program
// text the graphq engine interprets: an ALLOCATE header followed by one
// instruction per line. Rotations carry their angle after the gate name;
// controlled gates list control before target.
func TranslateProgram(circ *circuit.Circuit) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "ALLOCATE %d\n", circ.Width())
	for _, g := range circ.Gates() {
		switch {
		case g.Name == circuit.MEASURE:
			fmt.Fprintf(&b, "MEASURE %d\n", g.Target)
		case g.IsRotation():
			fmt.Fprintf(&b, "%s %.17g %d\n", g.Name, g.Parameter, g.Target)
		case g.HasControl():
			if _, ok := gateQuil[g.Name]; !ok {
				return "", &UnsupportedGateError{Gate: g.Name, Target: TargetGraphQ}
			}
			fmt.Fprintf(&b, "%s %d %d\n", g.Name, g.Control, g.Target)
		default:
			switch g.Name {
			case circuit.H, circuit.X, circuit.Y, circuit.Z, circuit.S, circuit.T, circuit.SDG, circuit.TDG:
				fmt.Fprintf(&b, "%s %d\n", g.Name, g.Target)
			default:
				return "", &UnsupportedGateError{Gate: g.Name, Target: TargetGraphQ}
			}
		}
	}
	return b.String(), nil
}

// translateNative checks that every gate fits the in-process engine's
// vocabulary. The engine consumes abstract gates directly, so translation is
// validation only.
func translateNative(circ *circuit.Circuit, target string) error {
	for _, g := range circ.Gates() {
		switch g.Name {
		case circuit.H, circuit.X, circuit.Y, circuit.Z, circuit.S, circuit.T,
			circuit.SDG, circuit.TDG, circuit.RX, circuit.RY, circuit.RZ,
			circuit.CNOT, circuit.CZ, circuit.SWAP, circuit.MEASURE:
		default:
			return &UnsupportedGateError{Gate: g.Name, Target: target}
		}
	}
	return nil
}
