package operator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perclft/QBridge/backend/circuit"
)

func TestAddTermAccumulates(t *testing.T) {
	op := New().
		AddTerm([]Pauli{{Qubit: 0, Label: "Z"}}, 0.5).
		AddTerm([]Pauli{{Qubit: 0, Label: "Z"}}, 0.25)

	assert.Equal(t, 1, op.NumTerms())
	assert.InDelta(t, 0.75, op.Terms()[0].Coefficient, 1e-12)
}

func TestAddTermSortsFactors(t *testing.T) {
	op := New().AddTerm([]Pauli{{Qubit: 2, Label: "X"}, {Qubit: 0, Label: "Y"}}, 1.0)
	assert.Equal(t, "Y0 X2", op.Terms()[0].Key())
}

func TestAddComplexTermKeepsRealPart(t *testing.T) {
	op := New().AddComplexTerm([]Pauli{{Qubit: 0, Label: "X"}}, complex(1.5, 42.0))
	assert.InDelta(t, 1.5, op.Terms()[0].Coefficient, 1e-12)
}

func TestIdentityTermFirst(t *testing.T) {
	op := New().
		AddTerm([]Pauli{{Qubit: 0, Label: "Z"}}, 1.0).
		AddTerm(nil, -0.5)

	terms := op.Terms()
	assert.Equal(t, "I", terms[0].Key())
	assert.InDelta(t, -0.5, terms[0].Coefficient, 1e-12)
}

func TestMask(t *testing.T) {
	term := Term{Paulis: []Pauli{{Qubit: 0, Label: "Z"}, {Qubit: 2, Label: "X"}}}
	assert.Equal(t, "101", term.Mask(3))
	assert.Equal(t, "1010", term.Mask(4))
}

func TestBasisGates(t *testing.T) {
	term := Term{Paulis: []Pauli{
		{Qubit: 0, Label: "X"},
		{Qubit: 1, Label: "Y"},
		{Qubit: 2, Label: "Z"},
	}}
	gates := term.BasisGates()
	assert.Len(t, gates, 2) // Z needs no rotation

	assert.Equal(t, circuit.RY, gates[0].Name)
	assert.Equal(t, 0, gates[0].Target)
	assert.InDelta(t, -math.Pi/2, gates[0].Parameter, 1e-12)

	assert.Equal(t, circuit.RX, gates[1].Name)
	assert.Equal(t, 1, gates[1].Target)
	assert.InDelta(t, math.Pi/2, gates[1].Parameter, 1e-12)
}

func TestMaxQubit(t *testing.T) {
	op := New().
		AddTerm([]Pauli{{Qubit: 1, Label: "Z"}}, 1.0).
		AddTerm([]Pauli{{Qubit: 4, Label: "X"}, {Qubit: 2, Label: "Y"}}, 0.5)
	assert.Equal(t, 4, op.MaxQubit())

	identity := New().AddTerm(nil, 1.0)
	assert.Equal(t, -1, identity.MaxQubit())
}
