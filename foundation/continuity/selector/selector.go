// Package selector implements deterministic chunk selection. The combined
// entropy hash seeds a counter mode hash expansion that draws unique chunk
// indices, so any verifier holding the same entropy and chunk count
// reproduces the exact ordered sequence a prover committed to.
package selector

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ardanlabs/proofchain/foundation/continuity/entropy"
)

// ErrInsufficientChunks is returned when the file holds fewer chunks than
// the selection asks for.
var ErrInsufficientChunks = errors.New("total chunks is less than the selection count")

// ErrDrawsExhausted is returned when duplicate rejection fails to produce
// enough unique indices within the draw budget. With a sha256 expansion
// this requires an astronomically unlucky draw sequence.
var ErrDrawsExhausted = errors.New("unable to draw enough unique chunk indices")

// maxDrawFactor bounds the number of counter draws at factor * count.
const maxDrawFactor = 4096

// =============================================================================

// Select maps the entropy's combined hash to an ordered sequence of count
// unique chunk indices in [0, totalChunks). The order of selection matters:
// it is part of what the commitment hash binds.
func Select(mse entropy.MultiSourceEntropy, totalChunks uint64, count uint16) ([]uint64, error) {
	if count == 0 {
		return nil, errors.New("selection count must be greater than zero")
	}
	if totalChunks < uint64(count) {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientChunks, totalChunks, count)
	}

	selected := make([]uint64, 0, count)
	seen := make(map[uint64]bool, count)

	maxDraws := uint64(count) * maxDrawFactor

	var counter uint64
	var buf [8]byte

	h := sha256.New()

	for uint16(len(selected)) < count {
		if counter >= maxDraws {
			return nil, ErrDrawsExhausted
		}

		binary.BigEndian.PutUint64(buf[:], counter)
		counter++

		h.Reset()
		h.Write(mse.CombinedHash[:])
		h.Write(buf[:])

		idx := binary.BigEndian.Uint64(h.Sum(nil)[:8]) % totalChunks

		// Reject duplicates and advance the counter.
		if seen[idx] {
			continue
		}

		seen[idx] = true
		selected = append(selected, idx)
	}

	return selected, nil
}

// Verify re-runs the selection and compares the claimed sequence in full.
// Any permutation mismatch fails, preventing a prover from declaring a
// cheaper to fetch ordering of the same indices.
func Verify(mse entropy.MultiSourceEntropy, totalChunks uint64, claimed []uint64) bool {
	if len(claimed) == 0 || len(claimed) > 0xFFFF {
		return false
	}

	expected, err := Select(mse, totalChunks, uint16(len(claimed)))
	if err != nil {
		return false
	}

	for i := range expected {
		if expected[i] != claimed[i] {
			return false
		}
	}

	return true
}
