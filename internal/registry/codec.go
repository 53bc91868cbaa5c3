package registry

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

// Snapshot returns the registry's current prime table as an ordered slice,
// safe for the caller to encode independently of further registry growth.
func (r *Registry) Snapshot() []*big.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*big.Int, len(r.primes))
	for i, p := range r.primes {
		out[i] = new(big.Int).Set(p)
	}
	return out
}

// WriteSnapshot encodes primes to w in the canonical on-disk layout (§6):
// a varint count, followed by each prime as a varint byte-length prefix and
// its big-endian magnitude bytes.
func WriteSnapshot(w io.Writer, primes []*big.Int) error {
	var buf [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(buf[:], uint64(len(primes)))
	if _, err := w.Write(buf[:n]); err != nil {
		return fmt.Errorf("registry: write count: %w", err)
	}

	for i, p := range primes {
		b := p.Bytes()
		n := binary.PutUvarint(buf[:], uint64(len(b)))
		if _, err := w.Write(buf[:n]); err != nil {
			return fmt.Errorf("registry: write length of prime %d: %w", i, err)
		}
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("registry: write prime %d: %w", i, err)
		}
	}
	return nil
}

// byteAndBlockReader is what ReadSnapshot needs: varint decoding needs
// ReadByte, bulk magnitude decoding needs Read. bufio.Reader satisfies both.
type byteAndBlockReader interface {
	io.Reader
	io.ByteReader
}

// ReadSnapshot decodes a byte stream produced by WriteSnapshot back into an
// ordered slice of primes.
func ReadSnapshot(r byteAndBlockReader) ([]*big.Int, error) {
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("registry: read count: %w", err)
	}

	out := make([]*big.Int, 0, count)
	for i := uint64(0); i < count; i++ {
		length, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("registry: read length of prime %d: %w", i, err)
		}
		b := make([]byte, length)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("registry: read prime %d: %w", i, err)
		}
		out = append(out, new(big.Int).SetBytes(b))
	}
	return out, nil
}

// LoadSnapshot replaces the registry's table wholesale with primes, which
// must be sorted ascending and start at 2 — the format WriteSnapshot/
// ReadSnapshot round-trip. Intended for startup, before concurrent access
// begins.
func (r *Registry) LoadSnapshot(primes []*big.Int) error {
	if len(primes) == 0 || primes[0].Cmp(two) != 0 {
		return fmt.Errorf("registry: snapshot must start with P0=2")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primes = make([]*big.Int, len(primes))
	r.index = make(map[string]int, len(primes))
	for i, p := range primes {
		cp := new(big.Int).Set(p)
		r.primes[i] = cp
		r.index[cp.String()] = i
	}
	return nil
}
