package stream

import (
	"sync"

	"github.com/primeforge/codec-engine/pkg/models"
)

// bufferRecord tracks one registered buffer's current and peak size.
type bufferRecord struct {
	size int
	peak int
}

// MemoryManager enforces a total byte/element budget across every buffer
// the orchestrator registers (decode queues, batch accumulators, NTT
// vectors), refusing growth that would exceed it and shrinking a buffer
// when a caller asks for it via Shrink. There is no teacher counterpart
// for a byte-budget tracker; this is built directly from spec.md's memory
// manager requirements.
type MemoryManager struct {
	mu sync.Mutex

	limit     int
	used      int
	growth    float64
	buffers   map[string]*bufferRecord
}

// NewMemoryManager returns a manager that refuses allocation past limit
// units, growing registered buffers by growthFactor (e.g. 1.5) per Grow call.
func NewMemoryManager(limit int, growthFactor float64) *MemoryManager {
	if growthFactor < 1.0 {
		growthFactor = 1.0
	}
	return &MemoryManager{
		limit:   limit,
		growth:  growthFactor,
		buffers: make(map[string]*bufferRecord),
	}
}

// Register creates a named buffer of the given initial size, failing with
// ErrMemoryPressure if it would exceed the manager's limit.
func (m *MemoryManager) Register(name string, initialSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.used+initialSize > m.limit {
		return models.ErrMemoryPressure
	}
	m.buffers[name] = &bufferRecord{size: initialSize, peak: initialSize}
	m.used += initialSize
	return nil
}

// Grow increases a registered buffer's size by its growth factor,
// refusing the increase (and leaving the buffer unchanged) if it would
// exceed the manager's limit.
func (m *MemoryManager) Grow(name string) (newSize int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.buffers[name]
	if !ok {
		return 0, &models.ConfigurationError{Reason: "unknown buffer: " + name}
	}

	grown := int(float64(buf.size) * m.growth)
	if grown <= buf.size {
		grown = buf.size + 1
	}
	delta := grown - buf.size
	if m.used+delta > m.limit {
		return buf.size, models.ErrMemoryPressure
	}

	buf.size = grown
	if buf.size > buf.peak {
		buf.peak = buf.size
	}
	m.used += delta
	return buf.size, nil
}

// Shrink shrinks a registered buffer to target, releasing the difference
// from the accounted usage. A target at or above the buffer's current size
// leaves it unchanged. Nothing in this package calls Shrink on its own.
func (m *MemoryManager) Shrink(name string, target int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.buffers[name]
	if !ok {
		return &models.ConfigurationError{Reason: "unknown buffer: " + name}
	}
	if target >= buf.size {
		return nil
	}
	m.used -= buf.size - target
	buf.size = target
	return nil
}

// Unregister releases a buffer's accounted size entirely.
func (m *MemoryManager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if buf, ok := m.buffers[name]; ok {
		m.used -= buf.size
		delete(m.buffers, name)
	}
}

// Used reports total accounted usage across all registered buffers.
func (m *MemoryManager) Used() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}

// Utilization reports Used()/limit as a fraction in [0, 1].
func (m *MemoryManager) Utilization() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit == 0 {
		return 0
	}
	return float64(m.used) / float64(m.limit)
}
