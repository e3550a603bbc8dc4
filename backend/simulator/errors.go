// Request-validation error taxonomy
// All failures here are fatal to the call: no retry, no partial result

package simulator

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeShots is returned for a negative shot count. Zero means
	// exact simulation; anything below is a caller bug.
	ErrNegativeShots = errors.New("shot count must not be negative; use zero for exact simulation")

	// ErrMixedStateRequiresShots is returned when a circuit containing a
	// MEASURE instruction, assumed to prepare a mixed state, is simulated
	// without a finite shot count.
	ErrMixedStateRequiresShots = errors.New("circuit contains a MEASURE instruction and prepares a mixed state; set a finite shot count")

	// ErrEmptyCircuitWidth is returned for a circuit with no qubits: an
	// identity unitary of unknown dimension cannot be simulated.
	ErrEmptyCircuitWidth = errors.New("cannot simulate an empty circuit with unknown qubit count")

	// ErrEmptyFrequencyTable guards the expectation-value reduction against
	// an empty histogram. A valid simulation always returns at least one
	// state, so hitting this indicates a backend defect.
	ErrEmptyFrequencyTable = errors.New("frequency table is empty; a valid simulation always returns at least one state")
)

// UnsupportedNoiseModelError reports a noise model passed to a backend that
// does not support noisy simulation.
type UnsupportedNoiseModelError struct {
	Target string
}

func (e *UnsupportedNoiseModelError) Error() string {
	return fmt.Sprintf("backend %q does not support noise models", e.Target)
}

// ShotsRequiredError reports a configuration that cannot run analytically:
// a backend lacking amplitude access, or any noisy run, must specify a
// finite shot count.
type ShotsRequiredError struct {
	Target string
	Reason string
}

func (e *ShotsRequiredError) Error() string {
	return fmt.Sprintf("backend %q needs a shot count: %s", e.Target, e.Reason)
}

// OperatorWidthError reports an operator term referencing a qubit index
// beyond the state-preparation circuit.
type OperatorWidthError struct {
	Term         string
	QubitIndex   int
	CircuitWidth int
}

func (e *OperatorWidthError) Error() string {
	return fmt.Sprintf("operator term [%s] references qubit %d but the circuit has only %d qubit(s)",
		e.Term, e.QubitIndex, e.CircuitWidth)
}
