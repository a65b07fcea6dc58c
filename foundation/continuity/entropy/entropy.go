// Package entropy implements the multi source entropy engine. Blockchain
// entropy, optional beacon entropy, and locally generated randomness are
// folded into a single combined hash that seeds chunk selection and VDF
// input derivation.
//
// The local entropy is generated by the prover and committed alongside the
// external sources, so any verifier holding the commitment can recompute
// the combined hash. A verifier therefore trusts the prover's self reported
// local entropy; unpredictability still holds because the combined hash is
// anchored to the blockchain entropy the prover cannot choose. This is a
// known tension in the trust model, not an accident.
package entropy

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// EntropySize is the required length in bytes of every entropy source.
const EntropySize = 32

// ErrMissingBlockchainSource is returned from Combine when the mandatory
// blockchain entropy source is absent.
var ErrMissingBlockchainSource = errors.New("missing blockchain entropy source")

// =============================================================================

// MultiSourceEntropy represents entropy collected from multiple sources for
// one proving epoch. Only CombinedHash is consensus critical; the timestamp
// is informational.
type MultiSourceEntropy struct {
	BlockchainEntropy [32]byte  `json:"blockchain_entropy"`
	BeaconEntropy     []byte    `json:"beacon_entropy,omitempty"` // 32 bytes or nil.
	LocalEntropy      [32]byte  `json:"local_entropy"`
	Timestamp         time.Time `json:"timestamp"`
	CombinedHash      [32]byte  `json:"combined_hash"`
}

// Combine folds the blockchain entropy, the optional beacon entropy, and
// freshly generated local randomness into a MultiSourceEntropy value. The
// blockchain source is the only mandatory input.
func Combine(blockchainEntropy []byte, beaconEntropy []byte) (MultiSourceEntropy, error) {
	if len(blockchainEntropy) == 0 {
		return MultiSourceEntropy{}, ErrMissingBlockchainSource
	}
	if len(blockchainEntropy) != EntropySize {
		return MultiSourceEntropy{}, fmt.Errorf("blockchain entropy must be %d bytes, got %d", EntropySize, len(blockchainEntropy))
	}
	if beaconEntropy != nil && len(beaconEntropy) != EntropySize {
		return MultiSourceEntropy{}, fmt.Errorf("beacon entropy must be %d bytes, got %d", EntropySize, len(beaconEntropy))
	}

	var local [32]byte
	if _, err := rand.Read(local[:]); err != nil {
		return MultiSourceEntropy{}, fmt.Errorf("generating local entropy: %w", err)
	}

	mse := MultiSourceEntropy{
		LocalEntropy: local,
		Timestamp:    time.Now().UTC().Truncate(time.Second),
	}
	copy(mse.BlockchainEntropy[:], blockchainEntropy)

	if beaconEntropy != nil {
		mse.BeaconEntropy = make([]byte, EntropySize)
		copy(mse.BeaconEntropy, beaconEntropy)
	}

	mse.CombinedHash = combinedHash(mse)

	return mse, nil
}

// Recombine recomputes the combined hash from the committed fields. A
// verifier uses this to check a commitment's entropy is internally
// consistent before re-deriving chunk selection from it.
func Recombine(mse MultiSourceEntropy) [32]byte {
	return combinedHash(mse)
}

// Validate checks the entropy structure is internally consistent.
func (mse MultiSourceEntropy) Validate() error {
	if mse.BeaconEntropy != nil && len(mse.BeaconEntropy) != EntropySize {
		return fmt.Errorf("beacon entropy must be %d bytes, got %d", EntropySize, len(mse.BeaconEntropy))
	}

	if hash := combinedHash(mse); !bytes.Equal(hash[:], mse.CombinedHash[:]) {
		return errors.New("combined hash does not match entropy sources")
	}

	return nil
}

// =============================================================================

// combinedHash computes the deterministic hash over the ordered
// concatenation of the entropy sources. An absent beacon is folded in as a
// fixed length zero buffer, never omitted from the layout.
func combinedHash(mse MultiSourceEntropy) [32]byte {
	beacon := make([]byte, EntropySize)
	if mse.BeaconEntropy != nil {
		copy(beacon, mse.BeaconEntropy)
	}

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(mse.Timestamp.Unix()))

	h := sha256.New()
	h.Write(mse.BlockchainEntropy[:])
	h.Write(beacon)
	h.Write(mse.LocalEntropy[:])
	h.Write(ts[:])

	var hash [32]byte
	h.Sum(hash[:0])

	return hash
}
