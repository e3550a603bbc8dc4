// In-process statevector engine
// Plays the role of a linked simulator library for the local backends

package statevec

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/perclft/QBridge/backend/circuit"
)

// State holds the complex amplitudes of a qubit register. Basis index bit q
// carries qubit q, so index 0b01 is qubit 0 in |1> and qubit 1 in |0>.
type State struct {
	amps    []complex128
	nQubits int
}

// NewState allocates a register of nQubits in the all-zero state.
func NewState(nQubits int) *State {
	amps := make([]complex128, 1<<nQubits)
	amps[0] = 1
	return &State{amps: amps, nQubits: nQubits}
}

// Load replaces the register content with the given amplitudes. The length
// must be a power of two matching the register dimension.
func (s *State) Load(amps []complex128) error {
	if len(amps) != len(s.amps) {
		return fmt.Errorf("statevec: cannot load %d amplitudes into a %d-qubit register", len(amps), s.nQubits)
	}
	copy(s.amps, amps)
	return nil
}

// SetZero resets the register to the all-zero state.
func (s *State) SetZero() {
	for i := range s.amps {
		s.amps[i] = 0
	}
	s.amps[0] = 1
}

// Clone returns an independent copy of the register.
func (s *State) Clone() *State {
	amps := make([]complex128, len(s.amps))
	copy(amps, s.amps)
	return &State{amps: amps, nQubits: s.nQubits}
}

// NumQubits returns the register width.
func (s *State) NumQubits() int { return s.nQubits }

// Amplitudes returns a copy of the current amplitudes.
func (s *State) Amplitudes() []complex128 {
	amps := make([]complex128, len(s.amps))
	copy(amps, s.amps)
	return amps
}

// Apply executes one abstract gate on the register. MEASURE is not handled
// here; callers collapse explicitly through Measure.
func (s *State) Apply(g circuit.Gate) error {
	switch g.Name {
	case circuit.H:
		s.applyH(g.Target)
	case circuit.X:
		s.applyX(g.Target)
	case circuit.Y:
		s.applyY(g.Target)
	case circuit.Z:
		s.applyZ(g.Target)
	case circuit.S:
		s.applyPhase(g.Target, 1i)
	case circuit.SDG:
		s.applyPhase(g.Target, -1i)
	case circuit.T:
		s.applyPhase(g.Target, cmplx.Exp(complex(0, math.Pi/4)))
	case circuit.TDG:
		s.applyPhase(g.Target, cmplx.Exp(complex(0, -math.Pi/4)))
	case circuit.RX:
		s.applyRX(g.Target, g.Parameter)
	case circuit.RY:
		s.applyRY(g.Target, g.Parameter)
	case circuit.RZ:
		s.applyRZ(g.Target, g.Parameter)
	case circuit.CNOT:
		s.applyCX(g.Control, g.Target)
	case circuit.CZ:
		s.applyCZ(g.Control, g.Target)
	case circuit.SWAP:
		s.applySWAP(g.Control, g.Target)
	default:
		return fmt.Errorf("statevec: unknown gate %q", g.Name)
	}
	return nil
}

func (s *State) applyH(q int) {
	f := complex(1.0/math.Sqrt2, 0)
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			a, b := s.amps[i], s.amps[j]
			s.amps[i] = f * (a + b)
			s.amps[j] = f * (a - b)
		}
	}
}

func (s *State) applyX(q int) {
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
		}
	}
}

func (s *State) applyY(q int) {
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			s.amps[i], s.amps[j] = -1i*s.amps[j], 1i*s.amps[i]
		}
	}
}

func (s *State) applyZ(q int) {
	bit := 1 << q
	for i := range s.amps {
		if i&bit != 0 {
			s.amps[i] = -s.amps[i]
		}
	}
}

func (s *State) applyPhase(q int, factor complex128) {
	bit := 1 << q
	for i := range s.amps {
		if i&bit != 0 {
			s.amps[i] *= factor
		}
	}
}

func (s *State) applyRX(q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			a, b := s.amps[i], s.amps[j]
			s.amps[i] = c*a + js*b
			s.amps[j] = js*a + c*b
		}
	}
}

func (s *State) applyRY(q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			a, b := s.amps[i], s.amps[j]
			s.amps[i] = c*a - sn*b
			s.amps[j] = sn*a + c*b
		}
	}
}

func (s *State) applyRZ(q int, theta float64) {
	bit := 1 << q
	phase := cmplx.Exp(complex(0, theta/2))
	for i := range s.amps {
		if i&bit != 0 {
			s.amps[i] *= phase
		} else {
			s.amps[i] *= cmplx.Conj(phase)
		}
	}
}

func (s *State) applyCX(control, target int) {
	cBit, tBit := 1<<control, 1<<target
	for i := range s.amps {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
		}
	}
}

func (s *State) applyCZ(control, target int) {
	cBit, tBit := 1<<control, 1<<target
	for i := range s.amps {
		if i&cBit != 0 && i&tBit != 0 {
			s.amps[i] = -s.amps[i]
		}
	}
}

func (s *State) applySWAP(q1, q2 int) {
	bit1, bit2 := 1<<q1, 1<<q2
	for i := range s.amps {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
		}
	}
}

// Measure collapses qubit q to a classical bit drawn from its marginal
// probability and renormalizes the register.
func (s *State) Measure(q int, rng *rand.Rand) int {
	bit := 1 << q
	prob1 := 0.0
	for i, a := range s.amps {
		if i&bit != 0 {
			prob1 += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	outcome := 0
	if rng.Float64() < prob1 {
		outcome = 1
	}
	keep := prob1
	if outcome == 0 {
		keep = 1 - prob1
	}
	norm := complex(math.Sqrt(keep), 0)
	for i := range s.amps {
		hit := i&bit != 0
		if hit == (outcome == 1) {
			if norm != 0 {
				s.amps[i] /= norm
			}
		} else {
			s.amps[i] = 0
		}
	}
	return outcome
}

// Sample draws one basis-state index from the register's probability
// distribution without collapsing it.
func (s *State) Sample(rng *rand.Rand) uint64 {
	r := rng.Float64()
	acc := 0.0
	for i, a := range s.amps {
		acc += real(a)*real(a) + imag(a)*imag(a)
		if r < acc {
			return uint64(i)
		}
	}
	return uint64(len(s.amps) - 1)
}

// InnerReal returns the real part of <s|other>, the overlap used for
// amplitude-based expectation values.
func (s *State) InnerReal(other *State) float64 {
	sum := 0.0
	for i, a := range s.amps {
		b := other.amps[i]
		sum += real(a)*real(b) + imag(a)*imag(b)
	}
	return sum
}
