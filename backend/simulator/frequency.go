// Frequency normalizer
// The single point where backend-native outputs become canonical
// least-significant-qubit-first frequency tables

package simulator

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/perclft/QBridge/backend/backends"
)

// DefaultFreqThreshold is the probability below which basis states are
// dropped from exact frequency tables.
const DefaultFreqThreshold = 1e-10

// Frequencies maps canonical lsq-first bitstrings to probabilities. The
// string "100" means qubit 0 measured in |1> and qubits 1 and 2 in |0>.
// Exact tables are sparse and sum to 1 within the threshold's tolerance.
type Frequencies map[string]float64

// IntToBitstring converts basis index i to a bitstring over nQubits, in
// ordinary binary zero-padded on the left, reversed iff the backend's
// native order is msq-first. Every backend's raw output is routed through
// here; no other code converts indices to bitstrings.
func IntToBitstring(i uint64, nQubits int, order backends.BitOrder) string {
	bs := strconv.FormatUint(i, 2)
	if pad := nQubits - len(bs); pad > 0 {
		bs = strings.Repeat("0", pad) + bs
	}
	if order == backends.MSQFirst {
		return reverse(bs)
	}
	return bs
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// StatevectorToFrequencies reduces raw amplitudes in the backend's native
// order to a canonical frequency table. With shots == 0 the exact sparse
// distribution is returned; otherwise shots categorical samples are drawn
// from the retained states and empirical frequencies returned instead,
// reconciling "exact-capable backend, explicit shot count" requests.
func StatevectorToFrequencies(amps []complex128, order backends.BitOrder, nQubits int, threshold float64, shots int, rng *rand.Rand) Frequencies {
	probs := make([]float64, len(amps))
	for i, a := range amps {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return ProbabilitiesToFrequencies(probs, order, nQubits, threshold, shots, rng)
}

// ProbabilitiesToFrequencies applies the threshold filter and bit-order
// normalization to a dense native-index probability array, optionally
// re-sampling a finite number of shots.
func ProbabilitiesToFrequencies(probs []float64, order backends.BitOrder, nQubits int, threshold float64, shots int, rng *rand.Rand) Frequencies {
	type entry struct {
		state uint64
		prob  float64
	}
	kept := make([]entry, 0, len(probs))
	for i, p := range probs {
		if p >= threshold {
			kept = append(kept, entry{state: uint64(i), prob: p})
		}
	}

	if shots == 0 || len(kept) == 0 {
		freqs := make(Frequencies, len(kept))
		for _, e := range kept {
			freqs[IntToBitstring(e.state, nQubits, order)] = e.prob
		}
		return freqs
	}

	// Draw categorical samples from the retained distribution.
	total := 0.0
	for _, e := range kept {
		total += e.prob
	}
	counts := make(map[uint64]int, len(kept))
	for s := 0; s < shots; s++ {
		r := rng.Float64() * total
		acc := 0.0
		picked := kept[len(kept)-1].state
		for _, e := range kept {
			acc += e.prob
			if r < acc {
				picked = e.state
				break
			}
		}
		counts[picked]++
	}
	freqs := make(Frequencies, len(counts))
	for state, n := range counts {
		freqs[IntToBitstring(state, nQubits, order)] = float64(n) / float64(shots)
	}
	return freqs
}

// SamplesToFrequencies reduces per-shot native outcomes to empirical
// frequencies. No threshold applies: every observed outcome is reported.
func SamplesToFrequencies(samples []uint64, order backends.BitOrder, nQubits int) Frequencies {
	counts := make(map[uint64]int)
	for _, s := range samples {
		counts[s]++
	}
	freqs := make(Frequencies, len(counts))
	for state, n := range counts {
		freqs[IntToBitstring(state, nQubits, order)] = float64(n) / float64(len(samples))
	}
	return freqs
}
