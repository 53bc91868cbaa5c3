// Command codec is a minimal wiring demonstration: it constructs a Codec,
// an optional snapshot store, and a Stream Orchestrator, then encodes and
// decodes a small sample program. It is not a CLI or HTTP surface — see
// spec.md §1's Non-goals — only enough wiring to show the pieces fit
// together, the same role cmd/engine/main.go plays for the teacher.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/primeforge/codec-engine/internal/checksum"
	"github.com/primeforge/codec-engine/internal/encoding"
	"github.com/primeforge/codec-engine/internal/persist"
	"github.com/primeforge/codec-engine/internal/registry"
	"github.com/primeforge/codec-engine/internal/resilience"
	"github.com/primeforge/codec-engine/internal/stream"
	"github.com/primeforge/codec-engine/internal/vm"
	"github.com/primeforge/codec-engine/pkg/models"
)

func main() {
	log.Println("[Codec] starting prime-factorization codec demo")

	reg := registry.New()
	chk := checksum.New(reg)
	enc := encoding.New(reg, chk)

	snapshotDSN := getEnvOrDefault("CODEC_SNAPSHOT_DSN", "")
	var store *persist.Store
	if snapshotDSN != "" {
		s, err := persist.Connect(context.Background(), snapshotDSN)
		if err != nil {
			log.Printf("[Codec] warning: failed to connect to snapshot store, continuing without persisting: %v", err)
		} else {
			store = s
			defer store.Close()
			if err := store.InitSchema(context.Background()); err != nil {
				log.Printf("[Codec] warning: schema init failed: %v", err)
			}
		}
	} else {
		log.Println("[Codec] CODEC_SNAPSHOT_DSN not set, running without snapshot persistence")
	}

	limiter := resilience.NewRateLimiter(50, 10)
	breaker := resilience.NewCircuitBreaker(5, 10*time.Second)

	hub := stream.NewHub()
	go hub.Run()
	defer hub.Close()

	alertMgr := stream.NewAlertManager(256, hub)
	backpressure := stream.NewBackpressure(64, 16, func(level stream.BackpressureLevel) {
		alertMgr.Emit(stream.SeverityWarning, "backpressure", "level changed to "+level.String())
	})

	// Encode a tiny PUSH 2, PUSH 3, ADD, PRINT, HALT program, then decode
	// it and run it on the stack machine using the internal encoding and
	// vm packages directly.
	program := []models.Chunk{
		{Opcode: vm.OpPush, HasOperand: true, Operand: 2},
		{Opcode: vm.OpPush, HasOperand: true, Operand: 3},
		{Opcode: vm.OpAdd},
		{Opcode: vm.OpPrint},
		{Opcode: vm.OpHalt},
	}

	if err := limiter.Allow(); err != nil {
		log.Fatalf("[Codec] rate limit rejected startup encode: %v", err)
	}

	encodedProgram, err := enc.EncodeProgram(program)
	if err != nil {
		log.Fatalf("[Codec] failed to encode program: %v", err)
	}

	for i, v := range encodedProgram {
		if err := breaker.Allow(); err != nil {
			log.Printf("[Codec] circuit open, skipping broadcast of op %d: %v", i, err)
			continue
		}
		backpressure.Enqueue()
		if err := hub.BroadcastValue(v); err != nil {
			log.Printf("[Codec] failed to broadcast encoded op %d: %v", i, err)
			breaker.RecordFailure()
		} else {
			breaker.RecordSuccess()
		}
		backpressure.Dequeue()
	}

	machine := vm.New()
	decoded := make([]models.Chunk, len(encodedProgram))
	for i, v := range encodedProgram {
		d, err := enc.DecodeChunk(v)
		if err != nil {
			log.Fatalf("[Codec] failed to decode op %d: %v", i, err)
		}
		decoded[i] = d.Chunk
	}
	if err := machine.Execute(decoded); err != nil {
		log.Fatalf("[Codec] vm execution failed: %v", err)
	}

	for _, v := range machine.Output() {
		log.Printf("[Codec] PRINT -> %s", v)
	}

	if store != nil {
		if err := store.SaveSnapshot(context.Background(), reg.Snapshot()); err != nil {
			log.Printf("[Codec] warning: failed to save registry snapshot: %v", err)
		}
	}

	log.Println("[Codec] demo complete")
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
