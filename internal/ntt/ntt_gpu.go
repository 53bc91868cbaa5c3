//go:build nttgpu

package ntt

import (
	"log"
	"math/big"
)

// forwardImpl is the hardware-offload seam for builds tagged nttgpu. No
// accelerated kernel ships with this module; it logs and falls back to the
// portable transform so a nttgpu build still runs correctly on machines
// without the expected device.
func forwardImpl(t *Transform, values []*big.Int) []*big.Int {
	log.Println("[WARNING] nttgpu build tag set but no accelerated kernel is linked; falling back to CPU transform")
	return t.transform(values, t.principalRoot(len(values)))
}
