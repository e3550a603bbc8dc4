// Simulation orchestrator
// Wraps the heterogeneous backends and abstracts their differences: noisy
// and noiseless runs, shot sampling, mixed-state circuits, and statevector
// emulation where the target exposes amplitudes.

package simulator

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/perclft/QBridge/backend/backends"
	"github.com/perclft/QBridge/backend/circuit"
)

// Simulator dispatches abstract circuits to one target backend, selected at
// construction, and normalizes its output into canonical frequency tables.
// It is reused across many calls but is not reentrant: configuration must
// not be mutated while a call is in flight.
type Simulator struct {
	target  string
	caps    backends.CapabilityDescriptor
	adapter backends.Adapter

	nShots        int // 0 means exact/analytic where possible
	noise         *backends.NoiseModel
	freqThreshold float64

	rng *rand.Rand
	log *zap.Logger
}

// Option configures a Simulator at construction.
type Option func(*config)

type config struct {
	shots     int
	noise     *backends.NoiseModel
	threshold float64
	seed      int64
	logger    *zap.Logger
	adapter   backends.Config
}

// WithShots sets the number of shots drawn per simulation. Zero keeps the
// exact/analytic behavior where the backend allows it.
func WithShots(n int) Option { return func(c *config) { c.shots = n } }

// WithNoiseModel attaches a backend-specific noise model, forwarded verbatim
// to the adapter.
func WithNoiseModel(nm *backends.NoiseModel) Option { return func(c *config) { c.noise = nm } }

// WithFreqThreshold overrides the probability threshold below which basis
// states are dropped from exact frequency tables.
func WithFreqThreshold(t float64) Option { return func(c *config) { c.threshold = t } }

// WithSeed fixes the sampling RNG for reproducible runs.
func WithSeed(seed int64) Option { return func(c *config) { c.seed = seed } }

// WithLogger injects a logger; the default is zap's global logger.
func WithLogger(l *zap.Logger) Option { return func(c *config) { c.logger = l } }

// WithAdapterConfig forwards construction parameters to the backend adapter,
// such as the external runner path for ionq-sim.
func WithAdapterConfig(ac backends.Config) Option { return func(c *config) { c.adapter = ac } }

// New builds a Simulator for the given target backend. The target must
// resolve in the capability registry; a noise model requires noisy
// simulation support, and a missing shot count requires amplitude access
// with no noise model.
func New(target string, opts ...Option) (*Simulator, error) {
	cfg := config{threshold: DefaultFreqThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.L()
	}

	caps, err := backends.Lookup(target)
	if err != nil {
		return nil, err
	}
	if err := validate(target, caps, cfg.shots, cfg.noise); err != nil {
		return nil, err
	}

	adapterCfg := cfg.adapter
	if adapterCfg.Logger == nil {
		adapterCfg.Logger = cfg.logger
	}
	if adapterCfg.Seed == 0 {
		adapterCfg.Seed = cfg.seed
	}
	adapter, err := backends.NewAdapter(target, adapterCfg)
	if err != nil {
		return nil, err
	}

	seed := cfg.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		target:        target,
		caps:          caps,
		adapter:       adapter,
		nShots:        cfg.shots,
		noise:         cfg.noise,
		freqThreshold: cfg.threshold,
		rng:           rand.New(rand.NewSource(seed)),
		log:           cfg.logger,
	}, nil
}

func validate(target string, caps backends.CapabilityDescriptor, shots int, noise *backends.NoiseModel) error {
	if shots < 0 {
		return ErrNegativeShots
	}
	if noise != nil && !caps.NoisySimulation {
		return &UnsupportedNoiseModelError{Target: target}
	}
	if shots == 0 && (!caps.StatevectorAvailable || noise != nil) {
		reason := "noisy runs draw individual shots"
		if !caps.StatevectorAvailable {
			reason = "the backend has no amplitude access"
		}
		return &ShotsRequiredError{Target: target, Reason: reason}
	}
	return nil
}

// Target returns the backend identifier this simulator dispatches to.
func (s *Simulator) Target() string { return s.target }

// Shots returns the configured shot count; zero means exact.
func (s *Simulator) Shots() int { return s.nShots }

// SetShots changes the shot count, re-running construction-time validation
// against the unchanged noise model.
func (s *Simulator) SetShots(n int) error {
	if err := validate(s.target, s.caps, n, s.noise); err != nil {
		return err
	}
	s.nShots = n
	return nil
}

// SetNoiseModel changes the noise model, re-running construction-time
// validation against the unchanged shot count.
func (s *Simulator) SetNoiseModel(nm *backends.NoiseModel) error {
	if err := validate(s.target, s.caps, s.nShots, nm); err != nil {
		return err
	}
	s.noise = nm
	return nil
}

// SetFreqThreshold changes the sparse-table probability threshold.
func (s *Simulator) SetFreqThreshold(t float64) { s.freqThreshold = t }

// Result is the outcome of one Simulate call: the canonical frequency table
// and, when requested and not collapsed by sampling, the statevector in
// canonical order.
type Result struct {
	Frequencies Frequencies
	Statevector []complex128
}

// RunOption configures one Simulate call.
type RunOption func(*runConfig)

type runConfig struct {
	returnStatevector bool
	initialState      []complex128
}

// ReturnStatevector requests the prepared statevector alongside the
// frequencies, where the backend can produce one.
func ReturnStatevector() RunOption { return func(c *runConfig) { c.returnStatevector = true } }

// WithInitialState seeds the backend register with the given amplitudes
// instead of the all-zero state.
func WithInitialState(amps []complex128) RunOption {
	return func(c *runConfig) { c.initialState = amps }
}

// Simulate performs the state preparation corresponding to the circuit on
// the target backend and returns the frequencies of the observed states.
func (s *Simulator) Simulate(ctx context.Context, circ *circuit.Circuit, opts ...RunOption) (*Result, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if circ.IsMixedState() && s.nShots == 0 {
		return nil, ErrMixedStateRequiresShots
	}
	if circ.Width() == 0 {
		return nil, ErrEmptyCircuitWidth
	}

	// Identity unitary: no backend invocation needed.
	if circ.Size() == 0 {
		res := &Result{Frequencies: Frequencies{strings.Repeat("0", circ.Width()): 1.0}}
		if cfg.returnStatevector {
			sv := make([]complex128, 1<<circ.Width())
			sv[0] = 1
			res.Statevector = sv
		}
		return res, nil
	}

	shotsToRun := 0
	if circ.IsMixedState() || s.noise != nil || !s.caps.StatevectorAvailable {
		shotsToRun = s.nShots
	}

	raw, err := s.adapter.Run(ctx, circ, s.noise, cfg.initialState, shotsToRun)
	if err != nil {
		return nil, err
	}
	return s.normalize(raw, circ.Width(), cfg.returnStatevector), nil
}

// normalize maps a backend's raw output onto the canonical representation.
func (s *Simulator) normalize(raw *backends.RawResult, width int, returnStatevector bool) *Result {
	res := &Result{}
	switch {
	case raw.Statevector != nil:
		res.Frequencies = StatevectorToFrequencies(raw.Statevector, s.caps.BitOrder, width, s.freqThreshold, s.nShots, s.rng)
		if returnStatevector {
			res.Statevector = raw.Statevector
		}
	case raw.Samples != nil:
		res.Frequencies = SamplesToFrequencies(raw.Samples, s.caps.BitOrder, width)
	default:
		res.Frequencies = ProbabilitiesToFrequencies(raw.Probabilities, s.caps.BitOrder, width, s.freqThreshold, 0, s.rng)
	}
	return res
}
