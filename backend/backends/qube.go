// ------------------------------------------------------------------
// qube backend — in-process statevector engine
// ------------------------------------------------------------------

package backends

import (
	"context"
	"math"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/perclft/QBridge/backend/circuit"
	"github.com/perclft/QBridge/backend/operator"
	"github.com/perclft/QBridge/backend/statevec"
)

// AccelPolicy selects the register allocation hardware for the qube engine.
// Resolved once at adapter construction instead of probing the library on
// every call.
type AccelPolicy string

const (
	AccelCPU AccelPolicy = "cpu"
	AccelGPU AccelPolicy = "gpu"
)

func resolveAccelPolicy() AccelPolicy {
	if os.Getenv("QBRIDGE_ACCEL") == string(AccelGPU) {
		return AccelGPU
	}
	return AccelCPU
}

// QubeBackend drives the bundled statevector engine directly. Statevector
// access, noisy simulation, msq-first native bit order.
type QubeBackend struct {
	log   *zap.Logger
	rng   *rand.Rand
	accel AccelPolicy
}

func newQubeBackend(cfg Config) *QubeBackend {
	accel := resolveAccelPolicy()
	if accel == AccelGPU {
		// No GPU build of the engine is linked in; honoring the policy on a
		// CPU-only build means falling back, not failing the run.
		cfg.Logger.Warn("gpu acceleration requested but engine is a cpu build, falling back",
			zap.String("backend", TargetQube))
		accel = AccelCPU
	}
	return &QubeBackend{
		log:   cfg.Logger,
		rng:   newRand(cfg.Seed),
		accel: accel,
	}
}

func (b *QubeBackend) Target() string { return TargetQube }

func (b *QubeBackend) Run(ctx context.Context, circ *circuit.Circuit, noise *NoiseModel, initialState []complex128, shots int) (*RawResult, error) {
	if err := translateNative(circ, TargetQube); err != nil {
		return nil, err
	}

	state := statevec.NewState(circ.Width())
	if initialState != nil {
		if err := state.Load(initialState); err != nil {
			return nil, &IncompatibleInitialStateError{Target: TargetQube, Reason: err.Error()}
		}
	}

	if shots == 0 {
		for _, g := range circ.Gates() {
			if g.Name == circuit.MEASURE {
				state.Measure(g.Target, b.rng)
				continue
			}
			if err := state.Apply(g); err != nil {
				return nil, err
			}
		}
		return &RawResult{Statevector: state.Amplitudes()}, nil
	}

	samples := make([]uint64, 0, shots)
	for i := 0; i < shots; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, g := range circ.Gates() {
			if g.Name == circuit.MEASURE {
				state.Measure(g.Target, b.rng)
				continue
			}
			if err := state.Apply(g); err != nil {
				return nil, err
			}
			applyNoise(state, g, noise, b.rng)
		}
		samples = append(samples, state.Sample(b.rng))
		if initialState != nil {
			if err := state.Load(initialState); err != nil {
				return nil, &IncompatibleInitialStateError{Target: TargetQube, Reason: err.Error()}
			}
		} else {
			state.SetZero()
		}
	}
	return &RawResult{Samples: samples}, nil
}

// ExpectationValue is the engine-native fast path over prepared amplitudes.
func (b *QubeBackend) ExpectationValue(amplitudes []complex128, op *operator.Operator) (float64, error) {
	nQubits := int(math.Round(math.Log2(float64(len(amplitudes)))))
	state := statevec.NewState(nQubits)
	if err := state.Load(amplitudes); err != nil {
		return 0, err
	}
	return state.ExpectationValue(op)
}

// applyNoise draws a symmetric Pauli error on every qubit a gate touched.
// The noise model is backend-specific configuration; the qube engine reads
// it as per-gate flip probabilities.
func applyNoise(state *statevec.State, g circuit.Gate, noise *NoiseModel, rng *rand.Rand) {
	if noise == nil {
		return
	}
	p := noise.OneQubitError
	if g.HasControl() {
		p = noise.TwoQubitError
	}
	if p <= 0 {
		return
	}
	qubits := []int{g.Target}
	if g.HasControl() {
		qubits = append(qubits, g.Control)
	}
	paulis := []string{circuit.X, circuit.Y, circuit.Z}
	for _, q := range qubits {
		if rng.Float64() < p {
			state.Apply(circuit.NewGate(paulis[rng.Intn(len(paulis))], q))
		}
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
