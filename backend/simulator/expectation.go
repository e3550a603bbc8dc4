// Expectation-value engine
// <psi|H|psi> for multi-term Pauli operators, analytically from amplitudes
// where the backend allows it, statistically from sampled outcomes otherwise

package simulator

import (
	"context"

	"github.com/perclft/QBridge/backend/backends"
	"github.com/perclft/QBridge/backend/circuit"
	"github.com/perclft/QBridge/backend/operator"
)

// PreparedState is the explicit product of one state preparation: the
// circuit fingerprint it came from, the prepared amplitudes and the matching
// frequency table. Passing it around explicitly replaces any hidden
// "last prepared state" slot, so a stale state can never be reused for a
// different circuit.
type PreparedState struct {
	Fingerprint string
	Amplitudes  []complex128
	Frequencies Frequencies
}

// GetExpectationValue computes the expectation value of the operator with
// regard to the state prepared by the circuit. With amplitudes available and
// no noise, the value is computed analytically; otherwise individual shots
// are run and the workflow is akin to an actual QPU.
func (s *Simulator) GetExpectationValue(ctx context.Context, op *operator.Operator, statePrep *circuit.Circuit) (float64, error) {
	// Reject out-of-range terms before any simulation is attempted.
	for _, term := range op.Terms() {
		if m := term.MaxQubit(); m >= statePrep.Width() {
			return 0, &OperatorWidthError{Term: term.Key(), QubitIndex: m, CircuitWidth: statePrep.Width()}
		}
	}

	if s.noise != nil || !s.caps.StatevectorAvailable || statePrep.IsMixedState() || statePrep.Size() == 0 {
		return s.expectationFromFrequencies(ctx, op, statePrep)
	}
	return s.expectationFromStatevector(ctx, op, statePrep)
}

// expectationFromStatevector prepares the state once and reduces every term
// against the prepared amplitudes.
func (s *Simulator) expectationFromStatevector(ctx context.Context, op *operator.Operator, statePrep *circuit.Circuit) (float64, error) {
	res, err := s.Simulate(ctx, statePrep, ReturnStatevector())
	if err != nil {
		return 0, err
	}
	prepared := &PreparedState{
		Fingerprint: statePrep.Fingerprint(),
		Amplitudes:  res.Statevector,
		Frequencies: res.Frequencies,
	}

	// Backend-native fast expectation routine, when exposed and no shot
	// sampling is forced.
	if fast, ok := s.adapter.(backends.ExpectationBackend); ok && s.nShots == 0 {
		return fast.ExpectationValue(prepared.Amplitudes, op)
	}

	nQubits := statePrep.Width()
	total := 0.0
	for _, term := range op.Terms() {
		if len(term.Paulis) == 0 {
			total += term.Coefficient
			continue
		}

		if s.nShots == 0 {
			// Apply the term as an auxiliary circuit to the prepared
			// amplitudes and take the real inner product.
			pauliCirc := circuit.New(term.PauliGates(), nQubits)
			pauliRes, err := s.Simulate(ctx, pauliCirc, ReturnStatevector(), WithInitialState(prepared.Amplitudes))
			if err != nil {
				return 0, err
			}
			delta := 0.0
			for i, a := range prepared.Amplitudes {
				b := pauliRes.Statevector[i]
				delta += real(a)*real(b) + imag(a)*imag(b)
			}
			total += term.Coefficient * delta
			continue
		}

		// Shots forced on an exact-capable backend: draw samples from the
		// exact distribution in the rotated measurement basis.
		freqs := prepared.Frequencies
		if basis := term.BasisGates(); len(basis) > 0 {
			basisRes, err := s.Simulate(ctx, circuit.New(basis, nQubits), WithInitialState(prepared.Amplitudes))
			if err != nil {
				return 0, err
			}
			freqs = basisRes.Frequencies
		}
		termValue, err := ExpectationFromFrequenciesOneTerm(term, freqs)
		if err != nil {
			return 0, err
		}
		total += term.Coefficient * termValue
	}
	return total, nil
}

// expectationFromFrequencies appends each term's measurement-basis rotation
// to the state preparation, simulates, and reduces the observed frequencies
// to a signed parity sum.
func (s *Simulator) expectationFromFrequencies(ctx context.Context, op *operator.Operator, statePrep *circuit.Circuit) (float64, error) {
	var plainFreqs Frequencies // state-prep frequencies, reused across no-rotation terms

	total := 0.0
	for _, term := range op.Terms() {
		if len(term.Paulis) == 0 {
			total += term.Coefficient
			continue
		}

		var freqs Frequencies
		if basis := term.BasisGates(); len(basis) > 0 {
			res, err := s.Simulate(ctx, statePrep.Append(basis...))
			if err != nil {
				return 0, err
			}
			freqs = res.Frequencies
		} else {
			if plainFreqs == nil {
				res, err := s.Simulate(ctx, statePrep)
				if err != nil {
					return 0, err
				}
				plainFreqs = res.Frequencies
			}
			freqs = plainFreqs
		}

		termValue, err := ExpectationFromFrequenciesOneTerm(term, freqs)
		if err != nil {
			return 0, err
		}
		total += term.Coefficient * termValue
	}
	return total, nil
}

// ExpectationFromFrequenciesOneTerm reduces a single term against a
// canonical frequency table: each observed bitstring contributes its
// frequency signed by the parity of the AND between the bitstring and the
// term's qubit mask.
func ExpectationFromFrequenciesOneTerm(term operator.Term, freqs Frequencies) (float64, error) {
	if len(freqs) == 0 {
		return 0, ErrEmptyFrequencyTable
	}
	nQubits := 0
	for state := range freqs {
		nQubits = len(state)
		break
	}
	mask := term.Mask(nQubits)

	value := 0.0
	for state, freq := range freqs {
		ones := 0
		for i := 0; i < nQubits && i < len(state); i++ {
			if mask[i] == '1' && state[i] == '1' {
				ones++
			}
		}
		if ones%2 == 0 {
			value += freq
		} else {
			value -= freq
		}
	}
	return value, nil
}
