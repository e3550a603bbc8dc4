// Backend capability registry
// Static descriptors of what each simulation backend can and cannot do

package backends

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// BitOrder names the convention mapping statevector index bits to qubit
// identity. MSQFirst backends produce basis indices whose ordinary binary
// representation starts with the most significant qubit and must be reversed
// to reach the canonical least-significant-qubit-first bitstring.
type BitOrder string

const (
	MSQFirst BitOrder = "msq_first"
	LSQFirst BitOrder = "lsq_first"
)

// CapabilityDescriptor records what a backend supports. Descriptors are
// immutable; they are looked up once at orchestrator construction.
type CapabilityDescriptor struct {
	StatevectorAvailable bool     `toml:"statevector_available"`
	BitOrder             BitOrder `toml:"statevector_bit_order"`
	NoisySimulation      bool     `toml:"noisy_simulation_supported"`
}

// Registered backend identifiers.
const (
	TargetQube    = "qube"
	TargetAer     = "aer"
	TargetGraphQ  = "graphq"
	TargetIonQSim = "ionq-sim"
)

var capabilityTable = map[string]CapabilityDescriptor{
	TargetQube:    {StatevectorAvailable: true, BitOrder: MSQFirst, NoisySimulation: true},
	TargetAer:     {StatevectorAvailable: true, BitOrder: MSQFirst, NoisySimulation: true},
	TargetGraphQ:  {StatevectorAvailable: true, BitOrder: MSQFirst, NoisySimulation: false},
	TargetIonQSim: {StatevectorAvailable: false, BitOrder: MSQFirst, NoisySimulation: false},
}

// UnknownBackendError is returned when a target does not resolve in the
// capability registry.
type UnknownBackendError struct {
	Target string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown backend %q (available: %s)", e.Target, strings.Join(Targets(), ", "))
}

// Lookup resolves a backend identifier to its capability descriptor.
func Lookup(target string) (CapabilityDescriptor, error) {
	desc, ok := capabilityTable[target]
	if !ok {
		return CapabilityDescriptor{}, &UnknownBackendError{Target: target}
	}
	return desc, nil
}

// Targets lists the registered backend identifiers, sorted.
func Targets() []string {
	names := make([]string, 0, len(capabilityTable))
	for name := range capabilityTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadCapabilityFile reads per-backend descriptor overrides from a TOML file
// keyed by backend identifier and merges them over the built-in table.
// Unknown identifiers register new backends only for lookup purposes; the
// adapter factory still has to know how to drive them.
func LoadCapabilityFile(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read capability file %s", path)
	}
	overrides := make(map[string]CapabilityDescriptor)
	if err := toml.Unmarshal(blob, &overrides); err != nil {
		return errors.Wrapf(err, "failed to decode capability file %s", path)
	}
	// Validate everything before touching the table so a bad entry never
	// leaves a half-merged registry behind.
	for name, desc := range overrides {
		if desc.BitOrder != MSQFirst && desc.BitOrder != LSQFirst {
			return fmt.Errorf("capability file %s: backend %q has invalid bit order %q", path, name, desc.BitOrder)
		}
	}
	for name, desc := range overrides {
		capabilityTable[name] = desc
	}
	return nil
}
