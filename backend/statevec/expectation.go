package statevec

import (
	"github.com/perclft/QBridge/backend/operator"
)

// ExpectationValue computes <s|O|s> directly from the amplitudes, the
// engine-native fast path used when the full operator fits the register.
func (s *State) ExpectationValue(op *operator.Operator) (float64, error) {
	total := 0.0
	for _, term := range op.Terms() {
		if len(term.Paulis) == 0 {
			total += term.Coefficient
			continue
		}
		rotated := s.Clone()
		for _, g := range term.PauliGates() {
			if err := rotated.Apply(g); err != nil {
				return 0, err
			}
		}
		total += term.Coefficient * s.InnerReal(rotated)
	}
	return total, nil
}
