// Abstract circuit format
// Backend-independent gates, translated to each target's native form at run time

package circuit

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
)

// NoControl marks a gate without a control qubit.
const NoControl = -1

// Gate names of the abstract vocabulary.
const (
	H       = "H"
	X       = "X"
	Y       = "Y"
	Z       = "Z"
	S       = "S"
	T       = "T"
	SDG     = "SDG"
	TDG     = "TDG"
	RX      = "RX"
	RY      = "RY"
	RZ      = "RZ"
	CNOT    = "CNOT"
	CZ      = "CZ"
	SWAP    = "SWAP"
	MEASURE = "MEASURE"
)

// Gate is one instruction of the abstract format: a fixed single-qubit gate,
// a parametrized rotation, a two-qubit controlled gate, or a measurement.
type Gate struct {
	Name      string  `json:"gate"`
	Target    int     `json:"target"`
	Control   int     `json:"control"`
	Parameter float64 `json:"parameter,omitempty"`
}

// UnmarshalJSON decodes a gate, defaulting an absent control to NoControl.
// Qubit 0 is a valid control index, so the zero value cannot stand in for
// "no control".
func (g *Gate) UnmarshalJSON(data []byte) error {
	type gate Gate
	aux := gate{Control: NoControl}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*g = Gate(aux)
	return nil
}

// NewGate builds a fixed single-qubit gate or measurement.
func NewGate(name string, target int) Gate {
	return Gate{Name: name, Target: target, Control: NoControl}
}

// NewRotationGate builds a parametrized rotation gate.
func NewRotationGate(name string, target int, parameter float64) Gate {
	return Gate{Name: name, Target: target, Control: NoControl, Parameter: parameter}
}

// NewControlledGate builds a two-qubit controlled gate.
func NewControlledGate(name string, control, target int) Gate {
	return Gate{Name: name, Target: target, Control: control}
}

// HasControl reports whether the gate carries a control qubit.
func (g Gate) HasControl() bool { return g.Control != NoControl }

// IsRotation reports whether the gate carries a rotation parameter.
func (g Gate) IsRotation() bool {
	switch g.Name {
	case RX, RY, RZ:
		return true
	}
	return false
}

func (g Gate) String() string {
	switch {
	case g.HasControl():
		return fmt.Sprintf("%s q[%d], q[%d]", g.Name, g.Control, g.Target)
	case g.IsRotation():
		return fmt.Sprintf("%s(%g) q[%d]", g.Name, g.Parameter, g.Target)
	default:
		return fmt.Sprintf("%s q[%d]", g.Name, g.Target)
	}
}

// Circuit is an ordered gate sequence in the abstract format. It is owned by
// the caller and read-only to the simulation core; build it once and reuse.
type Circuit struct {
	gates      []Gate
	width      int
	mixedState bool
}

// New builds a circuit from a gate sequence. The width is the highest qubit
// index referenced plus one, unless a larger minimum width is forced.
func New(gates []Gate, minWidth ...int) *Circuit {
	c := &Circuit{gates: append([]Gate(nil), gates...)}
	for _, g := range c.gates {
		if g.Target >= c.width {
			c.width = g.Target + 1
		}
		if g.HasControl() && g.Control >= c.width {
			c.width = g.Control + 1
		}
		if g.Name == MEASURE {
			c.mixedState = true
		}
	}
	if len(minWidth) > 0 && minWidth[0] > c.width {
		c.width = minWidth[0]
	}
	return c
}

// Width returns the qubit count.
func (c *Circuit) Width() int { return c.width }

// Size returns the gate count.
func (c *Circuit) Size() int { return len(c.gates) }

// IsMixedState reports whether the circuit contains a MEASURE instruction and
// is therefore assumed to prepare a mixed state, requiring per-shot simulation.
func (c *Circuit) IsMixedState() bool { return c.mixedState }

// Gates returns the gate sequence. Callers must not mutate the slice.
func (c *Circuit) Gates() []Gate { return c.gates }

// Append returns a new circuit with extra gates appended, at least as wide as
// the receiver. The receiver is left untouched.
func (c *Circuit) Append(gates ...Gate) *Circuit {
	combined := make([]Gate, 0, len(c.gates)+len(gates))
	combined = append(combined, c.gates...)
	combined = append(combined, gates...)
	return New(combined, c.width)
}

// Fingerprint returns a stable hex digest identifying the circuit, used as a
// cache key for prepared states and service-side result caching.
func (c *Circuit) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(c.width))
	h.Write(buf[:])
	for _, g := range c.gates {
		h.Write([]byte(g.Name))
		binary.BigEndian.PutUint64(buf[:], uint64(g.Target))
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], uint64(int64(g.Control)))
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(g.Parameter))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
