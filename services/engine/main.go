package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/perclft/QBridge/backend/backends"
	"github.com/perclft/QBridge/backend/circuit"
	"github.com/perclft/QBridge/backend/simulator"
)

// ------------------------------------------------------------------
// Cache Types
// ------------------------------------------------------------------

type CachedEntry struct {
	Frequencies map[string]float64 `json:"frequencies"`
	Target      string             `json:"target"`
	Shots       int                `json:"shots"`
	CachedAt    int64              `json:"cached_at"`
	ExpiresAt   int64              `json:"expires_at"`
	HitCount    int32              `json:"hit_count"`
}

// cacheKey identifies one simulation result. Circuits with the same
// fingerprint but different shot/noise configuration must not collide.
func cacheKey(fingerprint, target string, shots int, noise *backends.NoiseModel) string {
	noisePart := "none"
	if noise != nil {
		noisePart = fmt.Sprintf("%g:%g", noise.OneQubitError, noise.TwoQubitError)
	}
	return fmt.Sprintf("result:%s:%s:%d:%s", fingerprint, target, shots, noisePart)
}

// ------------------------------------------------------------------
// Engine Server
// ------------------------------------------------------------------

type EngineServer struct {
	rdb        *redis.Client
	defaultTTL time.Duration
	seed       int64

	hits   int64
	misses int64
}

func NewEngineServer(rdb *redis.Client, defaultTTL time.Duration, seed int64) *EngineServer {
	return &EngineServer{
		rdb:        rdb,
		defaultTTL: defaultTTL,
		seed:       seed,
	}
}

// simulatorFor builds a fresh orchestrator per request. A Simulator is not
// reentrant, so concurrent handlers must never share one.
func (s *EngineServer) simulatorFor(target string, shots int, noise *backends.NoiseModel) (*simulator.Simulator, error) {
	opts := []simulator.Option{
		simulator.WithShots(shots),
		simulator.WithSeed(s.seed),
	}
	if noise != nil {
		opts = append(opts, simulator.WithNoiseModel(noise))
	}
	return simulator.New(target, opts...)
}

// ------------------------------------------------------------------
// RunCircuit - Simulate with cache lookup
// ------------------------------------------------------------------

func (s *EngineServer) RunCircuit(ctx context.Context, req *SimulateRequest) (*SimulateResponse, error) {
	if len(req.Operations) == 0 && req.NumQubits == 0 {
		return nil, status.Error(codes.InvalidArgument, "circuit is empty")
	}

	circ, err := buildCircuit(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid circuit: %v", err)
	}

	var noise *backends.NoiseModel
	if req.Noise != nil {
		noise = &backends.NoiseModel{
			OneQubitError: req.Noise.OneQubitError,
			TwoQubitError: req.Noise.TwoQubitError,
		}
	}

	key := cacheKey(circ.Fingerprint(), req.Target, int(req.Shots), noise)
	if entry, ok := s.lookup(ctx, key); ok {
		freqs, err := structpb.NewStruct(toInterfaceMap(entry.Frequencies))
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to encode frequencies: %v", err)
		}
		return &SimulateResponse{
			RunId:       uuid.New().String(),
			Target:      entry.Target,
			Frequencies: freqs,
			CacheHit:    true,
		}, nil
	}

	sim, err := s.simulatorFor(req.Target, int(req.Shots), noise)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "cannot build simulator: %v", err)
	}

	res, err := sim.Simulate(ctx, circ)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "simulation failed: %v", err)
	}

	s.store(ctx, key, &CachedEntry{
		Frequencies: res.Frequencies,
		Target:      req.Target,
		Shots:       int(req.Shots),
	}, time.Duration(req.TtlSeconds)*time.Second)

	freqs, err := structpb.NewStruct(toInterfaceMap(res.Frequencies))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode frequencies: %v", err)
	}
	return &SimulateResponse{
		RunId:       uuid.New().String(),
		Target:      req.Target,
		Frequencies: freqs,
		CacheHit:    false,
	}, nil
}

func (s *EngineServer) lookup(ctx context.Context, key string) (*CachedEntry, bool) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		atomic.AddInt64(&s.misses, 1)
		return nil, false
	}
	if err != nil {
		// Cache breakage degrades to a normal run.
		log.Printf("Redis lookup failed, running without cache: %v", err)
		return nil, false
	}

	var entry CachedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Printf("Corrupt cache entry %s, dropping: %v", key, err)
		s.rdb.Del(ctx, key)
		return nil, false
	}

	entry.HitCount++
	atomic.AddInt64(&s.hits, 1)
	if updated, err := json.Marshal(entry); err == nil {
		s.rdb.Set(ctx, key, updated, redis.KeepTTL)
	}

	log.Printf("✅ Cache HIT: %s (hits=%d)", key, entry.HitCount)
	return &entry, true
}

func (s *EngineServer) store(ctx context.Context, key string, entry *CachedEntry, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := time.Now().Unix()
	entry.CachedAt = now
	entry.ExpiresAt = now + int64(ttl.Seconds())

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("Failed to cache %s: %v", key, err)
		return
	}
	log.Printf("💾 Cached result: %s (TTL=%v)", key, ttl)
}

// ------------------------------------------------------------------
// GetCacheStats - Cache statistics
// ------------------------------------------------------------------

func (s *EngineServer) GetCacheStats(ctx context.Context, req *Empty) (*CacheStats, error) {
	keys, _ := s.rdb.Keys(ctx, "result:*").Result()

	hits := atomic.LoadInt64(&s.hits)
	misses := atomic.LoadInt64(&s.misses)
	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return &CacheStats{
		TotalEntries: int64(len(keys)),
		TotalHits:    hits,
		TotalMisses:  misses,
		HitRate:      hitRate,
	}, nil
}

// ------------------------------------------------------------------
// ListBackends - Expose the capability registry
// ------------------------------------------------------------------

func (s *EngineServer) ListBackends(ctx context.Context, req *Empty) (*BackendList, error) {
	targets := backends.Targets()
	infos := make([]*BackendInfo, 0, len(targets))
	for _, target := range targets {
		desc, err := backends.Lookup(target)
		if err != nil {
			continue
		}
		infos = append(infos, &BackendInfo{
			Target:               target,
			StatevectorAvailable: desc.StatevectorAvailable,
			BitOrder:             string(desc.BitOrder),
			NoisySimulation:      desc.NoisySimulation,
		})
	}
	return &BackendList{Backends: infos}, nil
}

// ------------------------------------------------------------------
// Circuit construction from the wire format
// ------------------------------------------------------------------

func buildCircuit(req *SimulateRequest) (*circuit.Circuit, error) {
	gates := make([]circuit.Gate, 0, len(req.Operations))
	for i, op := range req.Operations {
		name := strings.ToUpper(op.Gate)
		switch name {
		case circuit.RX, circuit.RY, circuit.RZ:
			gates = append(gates, circuit.NewRotationGate(name, int(op.Target), op.Angle))
		case circuit.CNOT, circuit.CZ, circuit.SWAP:
			gates = append(gates, circuit.NewControlledGate(name, int(op.Control), int(op.Target)))
		case circuit.H, circuit.X, circuit.Y, circuit.Z, circuit.S, circuit.T,
			circuit.SDG, circuit.TDG, circuit.MEASURE:
			gates = append(gates, circuit.NewGate(name, int(op.Target)))
		default:
			return nil, fmt.Errorf("op %d: unknown gate %q", i, op.Gate)
		}
	}
	return circuit.New(gates, int(req.NumQubits)), nil
}

func toInterfaceMap(freqs map[string]float64) map[string]interface{} {
	out := make(map[string]interface{}, len(freqs))
	for k, v := range freqs {
		out[k] = v
	}
	return out
}

// ------------------------------------------------------------------
// Placeholder types (would be generated from protobuf)
// ------------------------------------------------------------------

type SimulateRequest struct {
	Target     string
	NumQubits  int32
	Operations []*GateOperation
	Shots      int32
	Noise      *NoiseConfig
	TtlSeconds int32
}

type GateOperation struct {
	Gate    string
	Target  int32
	Control int32
	Angle   float64
}

type NoiseConfig struct {
	OneQubitError float64
	TwoQubitError float64
}

type SimulateResponse struct {
	RunId       string
	Target      string
	Frequencies *structpb.Struct
	CacheHit    bool
}

type Empty struct{}

type CacheStats struct {
	TotalEntries int64
	TotalHits    int64
	TotalMisses  int64
	HitRate      float64
}

type BackendInfo struct {
	Target               string
	StatevectorAvailable bool
	BitOrder             string
	NoisySimulation      bool
}

type BackendList struct {
	Backends []*BackendInfo
}

// ------------------------------------------------------------------
// Main
// ------------------------------------------------------------------

func main() {
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis address")
	port := flag.Int("port", 50051, "gRPC port")
	ttlMinutes := flag.Int("default-ttl", 60, "Default cache TTL in minutes")
	seed := flag.Int64("seed", 0, "Sampling RNG seed (0 = clock)")
	flag.Parse()

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     *redisAddr,
		Password: "",
		DB:       1,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis (DB 1 - Result Cache)")

	defaultTTL := time.Duration(*ttlMinutes) * time.Minute
	server := NewEngineServer(rdb, defaultTTL, *seed)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	// RegisterSimulationEngineServer(grpcServer, server)

	log.Printf("⚡ Simulation Engine starting on port %d", *port)
	log.Printf("   Redis: %s (DB 1)", *redisAddr)
	log.Printf("   Backends: %s", strings.Join(backends.Targets(), ", "))

	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("Failed to serve: %v", err)
	}

	_ = server
}
