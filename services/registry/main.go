package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RunRecord represents a row in the runs table
type RunRecord struct {
	ID          string             `json:"id"`
	Target      string             `json:"target"`
	Fingerprint string             `json:"fingerprint"`
	NumQubits   int32              `json:"num_qubits"`
	Shots       int32              `json:"shots"`
	Noisy       bool               `json:"noisy"`
	Frequencies map[string]float64 `json:"frequencies"`
	DurationMs  int64              `json:"duration_ms"`
	CreatedAt   time.Time          `json:"created_at"`
}

// RegistryServer implements the RunRegistry gRPC service
type RegistryServer struct {
	db *sql.DB
}

func NewRegistryServer(db *sql.DB) *RegistryServer {
	return &RegistryServer{db: db}
}

// InitDB creates the runs table if it doesn't exist
func InitDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id UUID PRIMARY KEY,
		target VARCHAR(50) NOT NULL,
		fingerprint CHAR(64) NOT NULL,
		num_qubits INTEGER NOT NULL,
		shots INTEGER NOT NULL DEFAULT 0,
		noisy BOOLEAN NOT NULL DEFAULT false,
		frequencies JSONB NOT NULL,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun records a completed simulation run
func (s *RegistryServer) SaveRun(ctx context.Context, req *SaveRunRequest) (*RunMetadata, error) {
	if req.Fingerprint == "" {
		return nil, status.Error(codes.InvalidArgument, "fingerprint required")
	}
	if len(req.Frequencies) == 0 {
		return nil, status.Error(codes.InvalidArgument, "frequencies required")
	}

	id := uuid.New().String()
	now := time.Now()

	freqJSON, err := json.Marshal(req.Frequencies)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to serialize frequencies: %v", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, target, fingerprint, num_qubits, shots, noisy, frequencies, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id,
		req.Target,
		req.Fingerprint,
		req.NumQubits,
		req.Shots,
		req.Noisy,
		string(freqJSON),
		req.DurationMs,
		now,
	)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to save run: %v", err)
	}

	return &RunMetadata{
		Id:          id,
		Target:      req.Target,
		Fingerprint: req.Fingerprint,
		NumQubits:   req.NumQubits,
		Shots:       req.Shots,
		Noisy:       req.Noisy,
		CreatedAt:   now.Unix(),
	}, nil
}

// GetRun retrieves a run by ID, frequencies included
func (s *RegistryServer) GetRun(ctx context.Context, req *GetRunRequest) (*RunDetail, error) {
	var (
		rec      RunRecord
		freqJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, target, fingerprint, num_qubits, shots, noisy, frequencies, duration_ms, created_at
		FROM runs WHERE id = $1
	`, req.RunId).Scan(
		&rec.ID, &rec.Target, &rec.Fingerprint, &rec.NumQubits,
		&rec.Shots, &rec.Noisy, &freqJSON, &rec.DurationMs, &rec.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, status.Errorf(codes.NotFound, "run not found: %s", req.RunId)
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "database error: %v", err)
	}

	if err := json.Unmarshal([]byte(freqJSON), &rec.Frequencies); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to deserialize frequencies: %v", err)
	}

	return &RunDetail{
		Metadata: &RunMetadata{
			Id:          rec.ID,
			Target:      rec.Target,
			Fingerprint: rec.Fingerprint,
			NumQubits:   rec.NumQubits,
			Shots:       rec.Shots,
			Noisy:       rec.Noisy,
			DurationMs:  rec.DurationMs,
			CreatedAt:   rec.CreatedAt.Unix(),
		},
		Frequencies: rec.Frequencies,
	}, nil
}

// ListRuns returns run metadata matching the given filters
func (s *RegistryServer) ListRuns(ctx context.Context, req *ListRunsRequest) (*RunList, error) {
	query := `SELECT id, target, fingerprint, num_qubits, shots, noisy, duration_ms, created_at FROM runs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if req.Target != "" {
		query += fmt.Sprintf(" AND target = $%d", argIdx)
		args = append(args, req.Target)
		argIdx++
	}
	if req.Fingerprint != "" {
		query += fmt.Sprintf(" AND fingerprint = $%d", argIdx)
		args = append(args, req.Fingerprint)
		argIdx++
	}

	// Pagination
	pageSize := int(req.PageSize)
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	page := int(req.Page)
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", pageSize, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "query failed: %v", err)
	}
	defer rows.Close()

	var runs []*RunMetadata
	for rows.Next() {
		var (
			m         RunMetadata
			createdAt time.Time
		)
		err := rows.Scan(
			&m.Id, &m.Target, &m.Fingerprint, &m.NumQubits,
			&m.Shots, &m.Noisy, &m.DurationMs, &createdAt,
		)
		if err != nil {
			continue
		}
		m.CreatedAt = createdAt.Unix()
		runs = append(runs, &m)
	}

	return &RunList{
		Runs:     runs,
		Page:     int32(page),
		PageSize: int32(pageSize),
	}, nil
}

// DeleteRun removes a run from the registry
func (s *RegistryServer) DeleteRun(ctx context.Context, req *DeleteRunRequest) (*Empty, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = $1`, req.RunId)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "delete failed: %v", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, status.Errorf(codes.NotFound, "run not found")
	}

	return &Empty{}, nil
}

// Placeholder types - these would be generated from protobuf
type SaveRunRequest struct {
	Target      string
	Fingerprint string
	NumQubits   int32
	Shots       int32
	Noisy       bool
	Frequencies map[string]float64
	DurationMs  int64
}

type GetRunRequest struct {
	RunId string
}

type ListRunsRequest struct {
	Target      string
	Fingerprint string
	Page        int32
	PageSize    int32
}

type DeleteRunRequest struct {
	RunId string
}

type RunMetadata struct {
	Id          string
	Target      string
	Fingerprint string
	NumQubits   int32
	Shots       int32
	Noisy       bool
	DurationMs  int64
	CreatedAt   int64
}

type RunDetail struct {
	Metadata    *RunMetadata
	Frequencies map[string]float64
}

type RunList struct {
	Runs     []*RunMetadata
	Page     int32
	PageSize int32
}

type Empty struct{}

func main() {
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "qbridge", "PostgreSQL user")
	dbPass := flag.String("db-pass", "quantum", "PostgreSQL password")
	dbName := flag.String("db-name", "qbridge", "PostgreSQL database")
	grpcPort := flag.Int("port", 50052, "gRPC port")
	flag.Parse()

	// Connect to PostgreSQL
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		*dbHost, *dbPort, *dbUser, *dbPass, *dbName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Database ping failed: %v", err)
	}

	// Initialize schema
	if err := InitDB(db); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully")

	// Start gRPC server
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", *grpcPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	server := grpc.NewServer()
	// RegisterRunRegistryServer(server, NewRegistryServer(db))

	log.Printf("🗄️ Run Registry starting on port %d", *grpcPort)
	if err := server.Serve(lis); err != nil {
		log.Fatalf("Failed to serve: %v", err)
	}
}
