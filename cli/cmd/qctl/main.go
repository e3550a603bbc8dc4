package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/perclft/QBridge/backend/backends"
	"github.com/perclft/QBridge/backend/circuit"
	"github.com/perclft/QBridge/backend/simulator"
)

// The circuit file DSL
type CircuitFile struct {
	Name   string `json:"name"`
	Qubits int    `json:"qubits"`
	Ops    []struct {
		Gate    string  `json:"gate"`
		Target  int     `json:"target"`
		Control *int    `json:"control"`
		Angle   float64 `json:"angle"` // For Rotations
	} `json:"ops"`
	Noise *backends.NoiseModel `json:"noise"`
}

func main() {
	fileArg := flag.String("file", "", "Path to circuit JSON file")
	target := flag.String("target", backends.TargetQube, "Simulation backend")
	shots := flag.Int("shots", 0, "Shot count (0 = exact)")
	seed := flag.Int64("seed", 0, "Sampling RNG seed (0 = clock)")
	threshold := flag.Float64("threshold", simulator.DefaultFreqThreshold, "Frequency threshold")
	showState := flag.Bool("statevector", false, "Also print the final statevector")
	capsFile := flag.String("capabilities", "", "Optional capability override TOML")
	flag.Parse()

	if *fileArg == "" {
		fmt.Printf("❌ Usage: qctl -file <circuit.json> [-target %s] [-shots n] [-statevector]\n",
			strings.Join(backends.Targets(), "|"))
		os.Exit(1)
	}

	if *capsFile != "" {
		if err := backends.LoadCapabilityFile(*capsFile); err != nil {
			log.Fatalf("Failed to load capability file: %v", err)
		}
	}

	// 1. Read & Parse Circuit
	data, err := os.ReadFile(*fileArg)
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}

	var file CircuitFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Fatalf("Invalid JSON format: %v", err)
	}

	circ, err := buildCircuit(&file)
	if err != nil {
		log.Fatalf("Invalid circuit: %v", err)
	}

	// 2. Build the Simulator
	opts := []simulator.Option{
		simulator.WithShots(*shots),
		simulator.WithSeed(*seed),
		simulator.WithFreqThreshold(*threshold),
	}
	if file.Noise != nil {
		opts = append(opts, simulator.WithNoiseModel(file.Noise))
	}
	sim, err := simulator.New(*target, opts...)
	if err != nil {
		log.Fatalf("Cannot build simulator: %v", err)
	}

	// 3. Run
	fmt.Printf("⚡ Running Circuit: '%s' (%d qubits, %d ops, target=%s)\n",
		file.Name, circ.Width(), circ.Size(), *target)

	runOpts := []simulator.RunOption{}
	if *showState {
		runOpts = append(runOpts, simulator.ReturnStatevector())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := sim.Simulate(ctx, circ, runOpts...)
	if err != nil {
		log.Fatalf("💥 Simulation failed: %v", err)
	}
	fmt.Printf("✅ Done in %s\n", time.Since(start))

	printFrequencies(res.Frequencies)
	if *showState && res.Statevector != nil {
		printStatevector(res.Statevector)
	}
}

func buildCircuit(file *CircuitFile) (*circuit.Circuit, error) {
	gates := make([]circuit.Gate, 0, len(file.Ops))
	for i, op := range file.Ops {
		name := strings.ToUpper(op.Gate)
		if name == "M" {
			name = circuit.MEASURE
		}
		switch name {
		case circuit.RX, circuit.RY, circuit.RZ:
			gates = append(gates, circuit.NewRotationGate(name, op.Target, op.Angle))
		case circuit.CNOT, circuit.CZ, circuit.SWAP:
			if op.Control == nil {
				return nil, fmt.Errorf("op %d: gate %s needs a control qubit", i, name)
			}
			gates = append(gates, circuit.NewControlledGate(name, *op.Control, op.Target))
		default:
			gates = append(gates, circuit.NewGate(name, op.Target))
		}
	}
	return circuit.New(gates, file.Qubits), nil
}

func printFrequencies(freqs simulator.Frequencies) {
	fmt.Println("\n--- 🔬 Measurement Frequencies (lsq first) ---")
	states := make([]string, 0, len(freqs))
	for bs := range freqs {
		states = append(states, bs)
	}
	sort.Strings(states)
	for _, bs := range states {
		fmt.Printf(" |%s> : %.6f\n", bs, freqs[bs])
	}
}

func printStatevector(vec []complex128) {
	fmt.Println("\n--- 🌊 Final Statevector (Non-Zero) ---")
	for i, amp := range vec {
		mag := real(amp)*real(amp) + imag(amp)*imag(amp)
		if mag > 0.0001 {
			sign := "+"
			im := imag(amp)
			if im < 0 {
				sign = "-"
				im = -im
			}
			fmt.Printf(" |%d> : (%.3f %s %.3fi)\n", i, real(amp), sign, im)
		}
	}
}
