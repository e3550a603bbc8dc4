// ------------------------------------------------------------------
// ionq-sim backend — external compiled simulator driven out-of-process
// ------------------------------------------------------------------

package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/perclft/QBridge/backend/circuit"
)

const defaultRunnerTimeout = 120 * time.Second

// IonQSimBackend writes the IonQ JSON form of a circuit to a transient file
// and hands it to an external simulator binary, reading an estimated outcome
// distribution back from stdout. No amplitude access, no noise support; the
// runner reports basis indices with qubit 0 least significant.
type IonQSimBackend struct {
	log     *zap.Logger
	runner  string
	timeout time.Duration
	workDir string
}

func newIonQSimBackend(cfg Config) *IonQSimBackend {
	runner := cfg.RunnerPath
	if runner == "" {
		runner = os.Getenv("QBRIDGE_IONQ_RUNNER")
	}
	if runner == "" {
		runner = "ionq-simd"
	}
	timeout := defaultRunnerTimeout
	if cfg.RunnerTimeout > 0 {
		timeout = time.Duration(cfg.RunnerTimeout) * time.Second
	}
	return &IonQSimBackend{
		log:     cfg.Logger,
		runner:  runner,
		timeout: timeout,
		workDir: cfg.WorkDir,
	}
}

func (b *IonQSimBackend) Target() string { return TargetIonQSim }

// runnerOutput is the result document the external simulator prints.
type runnerOutput struct {
	Frequencies []float64 `json:"frequencies"`
	Error       string    `json:"error,omitempty"`
}

func (b *IonQSimBackend) Run(ctx context.Context, circ *circuit.Circuit, noise *NoiseModel, initialState []complex128, shots int) (*RawResult, error) {
	if noise != nil {
		return nil, fmt.Errorf("backend %q does not run noise models", TargetIonQSim)
	}
	if initialState != nil {
		return nil, &IncompatibleInitialStateError{
			Target: TargetIonQSim,
			Reason: "the external runner always starts from the all-zero register",
		}
	}
	if shots <= 0 {
		return nil, fmt.Errorf("backend %q has no amplitude access and needs a shot count", TargetIonQSim)
	}

	payload, err := MarshalIonQJSON(circ)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(b.workDir, "qbridge-circuit-*.json")
	if err != nil {
		return nil, &ExecutionError{Target: TargetIonQSim, Stage: "compile", Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return nil, &ExecutionError{Target: TargetIonQSim, Stage: "compile", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &ExecutionError{Target: TargetIonQSim, Stage: "compile", Err: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, b.runner,
		"--circuit", tmp.Name(),
		"--shots", strconv.Itoa(shots))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.log.Debug("invoking external simulator",
		zap.String("runner", b.runner),
		zap.Int("qubits", circ.Width()),
		zap.Int("shots", shots))

	if err := cmd.Run(); err != nil {
		return nil, &ExecutionError{
			Target: TargetIonQSim,
			Stage:  "execute",
			Err:    errors.Wrap(err, stderr.String()),
		}
	}

	var out runnerOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, &ExecutionError{Target: TargetIonQSim, Stage: "decode", Err: err}
	}
	if out.Error != "" {
		return nil, &ExecutionError{Target: TargetIonQSim, Stage: "execute", Err: fmt.Errorf("%s", out.Error)}
	}
	if want := 1 << circ.Width(); len(out.Frequencies) != want {
		return nil, &ExecutionError{
			Target: TargetIonQSim,
			Stage:  "decode",
			Err:    fmt.Errorf("runner reported %d frequencies for a %d-qubit circuit, want %d", len(out.Frequencies), circ.Width(), want),
		}
	}
	return &RawResult{Probabilities: out.Frequencies}, nil
}
