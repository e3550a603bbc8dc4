// Multi-term Pauli operators
// The observable side of the expectation-value contract

package operator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/perclft/QBridge/backend/circuit"
)

// Pauli is one (qubit index, Pauli label) factor of a term.
type Pauli struct {
	Qubit int    `json:"qubit"`
	Label string `json:"label"` // "X", "Y" or "Z"
}

// Term is a product of single-qubit Pauli factors with a real coefficient.
// An empty factor list is the identity term.
type Term struct {
	Paulis      []Pauli `json:"paulis"`
	Coefficient float64 `json:"coefficient"`
}

// Key returns a canonical string for the term's Pauli content, e.g. "X0 Z2".
func (t Term) Key() string {
	if len(t.Paulis) == 0 {
		return "I"
	}
	parts := make([]string, len(t.Paulis))
	for i, p := range t.Paulis {
		parts[i] = fmt.Sprintf("%s%d", p.Label, p.Qubit)
	}
	return strings.Join(parts, " ")
}

// MaxQubit returns the highest qubit index referenced, or -1 for identity.
func (t Term) MaxQubit() int {
	max := -1
	for _, p := range t.Paulis {
		if p.Qubit > max {
			max = p.Qubit
		}
	}
	return max
}

// Mask returns the lsq-first bitstring mask of the term over nQubits, with a
// "1" at every qubit the term acts on. Parity of the AND between this mask
// and a measured bitstring gives the sample sign for the term.
func (t Term) Mask(nQubits int) string {
	mask := make([]byte, nQubits)
	for i := range mask {
		mask[i] = '0'
	}
	for _, p := range t.Paulis {
		mask[p.Qubit] = '1'
	}
	return string(mask)
}

// BasisGates returns the rotation gates mapping each factor's measurement
// basis onto the computational basis: RY(-pi/2) for X, RX(pi/2) for Y,
// nothing for Z. The result is empty for a Z-only or identity term.
func (t Term) BasisGates() []circuit.Gate {
	var gates []circuit.Gate
	for _, p := range t.Paulis {
		switch p.Label {
		case "X":
			gates = append(gates, circuit.NewRotationGate(circuit.RY, p.Qubit, -math.Pi/2))
		case "Y":
			gates = append(gates, circuit.NewRotationGate(circuit.RX, p.Qubit, math.Pi/2))
		}
	}
	return gates
}

// PauliGates returns the term's factors as plain Pauli gates, used when the
// term is applied as an auxiliary circuit to prepared amplitudes.
func (t Term) PauliGates() []circuit.Gate {
	gates := make([]circuit.Gate, len(t.Paulis))
	for i, p := range t.Paulis {
		gates[i] = circuit.NewGate(p.Label, p.Qubit)
	}
	return gates
}

// Operator is a sum of Pauli terms, the abstract form of a qubit Hamiltonian.
type Operator struct {
	terms map[string]Term
}

func New() *Operator {
	return &Operator{terms: make(map[string]Term)}
}

// AddTerm accumulates a term into the operator. Factors are sorted by qubit
// index. Coefficients of physical Hamiltonians are real; complex input is
// coerced via AddComplexTerm.
func (o *Operator) AddTerm(paulis []Pauli, coefficient float64) *Operator {
	sorted := append([]Pauli(nil), paulis...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Qubit < sorted[j].Qubit })
	t := Term{Paulis: sorted, Coefficient: coefficient}
	if prev, ok := o.terms[t.Key()]; ok {
		t.Coefficient += prev.Coefficient
	}
	o.terms[t.Key()] = t
	return o
}

// AddComplexTerm accumulates a term with a complex coefficient, keeping only
// the real part. Hermitian operators carry no imaginary content, so this is a
// validity assumption rather than a truncation.
func (o *Operator) AddComplexTerm(paulis []Pauli, coefficient complex128) *Operator {
	return o.AddTerm(paulis, real(coefficient))
}

// Terms returns the terms sorted by canonical key, identity first.
func (o *Operator) Terms() []Term {
	keys := make([]string, 0, len(o.terms))
	for k := range o.terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Term, 0, len(keys))
	if t, ok := o.terms["I"]; ok {
		out = append(out, t)
	}
	for _, k := range keys {
		if k == "I" {
			continue
		}
		out = append(out, o.terms[k])
	}
	return out
}

// NumTerms returns the term count.
func (o *Operator) NumTerms() int { return len(o.terms) }

// MaxQubit returns the highest qubit index referenced by any term.
func (o *Operator) MaxQubit() int {
	max := -1
	for _, t := range o.terms {
		if m := t.MaxQubit(); m > max {
			max = m
		}
	}
	return max
}

func (o *Operator) String() string {
	terms := o.Terms()
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = fmt.Sprintf("%g [%s]", t.Coefficient, t.Key())
	}
	return strings.Join(parts, " + ")
}
