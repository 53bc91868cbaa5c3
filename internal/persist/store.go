// Package persist implements the Prime Registry's optional durable snapshot
// store and the Stream Orchestrator's batch-verification audit log, both
// backed by Postgres via pgx. Grounded on the teacher's internal/db.PostgresStore:
// same pgxpool.Pool-wrapping struct, same Connect/Close/InitSchema/transactional-
// insert shape. Unlike the teacher (which os.ReadFile's a schema path relative to
// the working directory), the schema is embedded with go:embed so InitSchema
// does not depend on the process's current directory.
package persist

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primeforge/codec-engine/internal/registry"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a pgx connection pool for the registry snapshot table and the
// batch-verification audit log. A nil *Store is never constructed by this
// package; callers that want to run without persistence simply don't call
// Connect and pass a nil *Store around, matching the teacher's
// "continue without persisting" posture in cmd/engine/main.go.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against connStr and verifies it with a ping.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("persist: unable to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("persist: ping failed: %w", err)
	}
	log.Println("[Persist] connected to registry snapshot store")
	return &Store{pool: pool}, nil
}

// Close releases the pool. Safe to call on a Store whose pool failed to open.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the registry_snapshot, batch_verification_audit and
// comparator_run tables if they do not already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("persist: failed to apply schema: %w", err)
	}
	log.Println("[Persist] schema initialized")
	return nil
}

// SaveSnapshot encodes primes in the canonical on-disk layout and inserts a
// new snapshot version row.
func (s *Store) SaveSnapshot(ctx context.Context, primes []*big.Int) error {
	var buf bytes.Buffer
	if err := registry.WriteSnapshot(&buf, primes); err != nil {
		return fmt.Errorf("persist: encode snapshot: %w", err)
	}

	const insertSQL = `
		INSERT INTO registry_snapshot (prime_count, payload)
		VALUES ($1, $2)
	`
	if _, err := s.pool.Exec(ctx, insertSQL, len(primes), buf.Bytes()); err != nil {
		return fmt.Errorf("persist: insert snapshot: %w", err)
	}
	return nil
}

// LoadLatestSnapshot reads back the most recently saved snapshot, or
// (nil, nil) if none has ever been saved.
func (s *Store) LoadLatestSnapshot(ctx context.Context) ([]*big.Int, error) {
	const selectSQL = `
		SELECT payload FROM registry_snapshot
		ORDER BY version DESC
		LIMIT 1
	`
	var payload []byte
	err := s.pool.QueryRow(ctx, selectSQL).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("persist: select snapshot: %w", err)
	}

	r := bytes.NewReader(payload)
	primes, err := registry.ReadSnapshot(byteReader{r})
	if err != nil {
		return nil, fmt.Errorf("persist: decode snapshot: %w", err)
	}
	return primes, nil
}

// byteReader adapts a *bytes.Reader (which already implements both Read and
// ReadByte) to registry.ReadSnapshot's required interface, documenting the
// dependency explicitly rather than relying on structural typing alone.
type byteReader struct{ *bytes.Reader }

// SaveBatchAudit records the outcome of one batch-verification pass,
// satisfying §4.6's "Batch verification" supplemented by 3.8's audit trail.
// aggregateDigest is the checksum prime BatchChecksum returned, stored as
// decimal text since it is an arbitrary-precision registry prime, not a
// fixed-width machine integer.
func (s *Store) SaveBatchAudit(ctx context.Context, runID uuid.UUID, batchIndex int64, chunkCount int, valid bool, aggregateDigest *big.Int) error {
	const insertSQL = `
		INSERT INTO batch_verification_audit (run_id, batch_index, chunk_count, valid, aggregate_digest)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, insertSQL, runID, batchIndex, chunkCount, valid, aggregateDigest.String())
	if err != nil {
		return fmt.Errorf("persist: insert batch audit: %w", err)
	}
	return nil
}

// SaveComparatorRun records one A/B strategy comparison, the persistence
// half of the Stream Orchestrator's Comparator (internal/stream/compare.go).
func (s *Store) SaveComparatorRun(ctx context.Context, runID uuid.UUID, productionLatency, shadowLatency, deltaLatency float64, productionErrors, shadowErrors int) error {
	const insertSQL = `
		INSERT INTO comparator_run (run_id, production_latency, shadow_latency, delta_latency, production_errors, shadow_errors)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, insertSQL, runID, productionLatency, shadowLatency, deltaLatency, productionErrors, shadowErrors)
	if err != nil {
		return fmt.Errorf("persist: insert comparator run: %w", err)
	}
	return nil
}
