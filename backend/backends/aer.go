// ------------------------------------------------------------------
// aer backend — statevector or sampling run, selected per request
// ------------------------------------------------------------------

package backends

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/perclft/QBridge/backend/circuit"
	"github.com/perclft/QBridge/backend/statevec"
)

// AerBackend mirrors a qiskit-style simulator: two execution primitives,
// an exact statevector run and a shot-based sampling run, with noise passed
// as a run parameter of the sampling primitive. Its native API cannot seed a
// register and apply a noise model in the same run.
type AerBackend struct {
	log *zap.Logger
	rng *rand.Rand
}

func newAerBackend(cfg Config) *AerBackend {
	return &AerBackend{log: cfg.Logger, rng: newRand(cfg.Seed)}
}

func (b *AerBackend) Target() string { return TargetAer }

func (b *AerBackend) Run(ctx context.Context, circ *circuit.Circuit, noise *NoiseModel, initialState []complex128, shots int) (*RawResult, error) {
	if err := translateNative(circ, TargetAer); err != nil {
		return nil, err
	}
	if initialState != nil && noise != nil {
		return nil, &IncompatibleInitialStateError{
			Target: TargetAer,
			Reason: "initial state loading and noise models are mutually exclusive",
		}
	}
	if shots == 0 {
		return b.runStatevector(circ, initialState)
	}
	return b.runSampling(ctx, circ, noise, initialState, shots)
}

// runStatevector is the exact primitive: one pass, amplitudes out.
func (b *AerBackend) runStatevector(circ *circuit.Circuit, initialState []complex128) (*RawResult, error) {
	state := statevec.NewState(circ.Width())
	if initialState != nil {
		if err := state.Load(initialState); err != nil {
			return nil, &IncompatibleInitialStateError{Target: TargetAer, Reason: err.Error()}
		}
	}
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

// runSampling is the shot primitive: the full register is measured at the
// end of every repetition, with the noise model active throughout.
func (b *AerBackend) runSampling(ctx context.Context, circ *circuit.Circuit, noise *NoiseModel, initialState []complex128, shots int) (*RawResult, error) {
	state := statevec.NewState(circ.Width())
	samples := make([]uint64, 0, shots)
	for i := 0; i < shots; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if initialState != nil {
			if err := state.Load(initialState); err != nil {
				return nil, &IncompatibleInitialStateError{Target: TargetAer, Reason: err.Error()}
			}
		} else {
			state.SetZero()
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
		var outcome uint64
		for q := 0; q < circ.Width(); q++ {
			if state.Measure(q, b.rng) == 1 {
				outcome |= 1 << uint(q)
			}
		}
		samples = append(samples, outcome)
	}
	return &RawResult{Samples: samples}, nil
}
