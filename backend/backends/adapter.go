// Backend adapter contract
// One adapter per backend, selected once at orchestrator construction

package backends

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/perclft/QBridge/backend/circuit"
	"github.com/perclft/QBridge/backend/operator"
)

// NoiseModel is a backend-specific noise configuration. The simulation core
// treats it as a capability-gating token and forwards it verbatim; adapters
// that support noisy simulation interpret it as symmetric Pauli error
// probabilities applied after each gate of a shot.
type NoiseModel struct {
	OneQubitError float64 `json:"one_qubit_error" toml:"one_qubit_error"`
	TwoQubitError float64 `json:"two_qubit_error" toml:"two_qubit_error"`
}

// RawResult is a backend's native output before normalization. Exactly one
// field is populated: Statevector after an exact amplitude pass, Samples
// after per-shot execution, Probabilities when the backend only reports a
// dense outcome distribution. All three use the backend's native bit order.
type RawResult struct {
	Statevector   []complex128
	Samples       []uint64
	Probabilities []float64
}

// Adapter translates an abstract circuit into a backend's native executable
// form, drives the backend's execution primitive and returns its raw output.
// shots == 0 requests a single exact amplitude pass; shots > 0 requests that
// many independent repetitions, resetting the register (or reloading the
// initial state) between them. Bit-order normalization never happens here.
type Adapter interface {
	Target() string
	Run(ctx context.Context, circ *circuit.Circuit, noise *NoiseModel, initialState []complex128, shots int) (*RawResult, error)
}

// ExpectationBackend is implemented by adapters exposing a native fast
// expectation-value routine over prepared amplitudes.
type ExpectationBackend interface {
	ExpectationValue(amplitudes []complex128, op *operator.Operator) (float64, error)
}

// IncompatibleInitialStateError reports a backend whose native API cannot
// combine an initial statevector with the requested run configuration.
type IncompatibleInitialStateError struct {
	Target string
	Reason string
}

func (e *IncompatibleInitialStateError) Error() string {
	return fmt.Sprintf("backend %q cannot load an initial statevector: %s", e.Target, e.Reason)
}

// UnsupportedGateError reports a gate the target backend cannot express.
// Raised by the per-backend translators and propagated unchanged.
type UnsupportedGateError struct {
	Gate   string
	Target string
}

func (e *UnsupportedGateError) Error() string {
	return fmt.Sprintf("gate %q not supported by backend %q", e.Gate, e.Target)
}

// ExecutionError reports a failure inside an external backend's compile or
// execute step, kept distinct from request-validation errors so callers can
// tell bad input from backend breakage.
type ExecutionError struct {
	Target string
	Stage  string // "compile", "execute" or "decode"
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("backend %q %s failed: %v", e.Target, e.Stage, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewAdapter builds the adapter for a registered target. The capability
// registry decides what the orchestrator may ask of it; this factory only
// knows how to construct each variant.
func NewAdapter(target string, cfg Config) (Adapter, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	switch target {
	case TargetQube:
		return newQubeBackend(cfg), nil
	case TargetAer:
		return newAerBackend(cfg), nil
	case TargetGraphQ:
		return newGraphQBackend(cfg), nil
	case TargetIonQSim:
		return newIonQSimBackend(cfg), nil
	default:
		return nil, &UnknownBackendError{Target: target}
	}
}

// Config carries adapter construction parameters. Zero values resolve to
// environment-driven defaults.
type Config struct {
	Logger *zap.Logger

	// Seed fixes the sampling RNG; 0 seeds from the clock.
	Seed int64

	// RunnerPath is the external simulator binary driven by ionq-sim.
	RunnerPath string
	// RunnerTimeout bounds one external compile/execute invocation.
	RunnerTimeout int // seconds; 0 means the default
	// WorkDir receives transient circuit files; "" means the OS temp dir.
	WorkDir string
}
