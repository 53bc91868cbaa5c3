//go:build !nttgpu

package ntt

import "math/big"

// forwardImpl is the portable O(n^2) summation transform. Builds tagged
// with nttgpu use ntt_gpu.go instead, which logs a warning and runs this
// same transform; no accelerated kernel ships with the module.
func forwardImpl(t *Transform, values []*big.Int) []*big.Int {
	return t.transform(values, t.principalRoot(len(values)))
}
