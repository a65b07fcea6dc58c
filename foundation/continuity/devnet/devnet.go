// Package devnet provides deterministic development implementations of the
// external collaborators a proving node needs. A production deployment
// replaces these with adapters to a real chain and randomness beacon.
package devnet

import (
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// blockInterval is the simulated block production rate.
const blockInterval = 12 * time.Second

// Chain simulates a blockchain whose height advances with wall clock time
// and whose block hashes are derived from the network id. Every node
// configured with the same network id and genesis time observes the same
// heights and hashes.
type Chain struct {
	networkID uint16
	genesis   time.Time
	now       func() time.Time
}

// NewChain constructs a simulated chain for the specified network id,
// anchored at the specified genesis time.
func NewChain(networkID uint16, genesis time.Time) *Chain {
	return &Chain{
		networkID: networkID,
		genesis:   genesis,
		now:       time.Now,
	}
}

// CurrentHeight returns the height implied by the time elapsed since genesis.
func (c *Chain) CurrentHeight() (uint64, error) {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 0, nil
	}

	return uint64(elapsed / blockInterval), nil
}

// BlockHash returns the deterministic hash for the specified height.
func (c *Chain) BlockHash(height uint64) ([32]byte, error) {
	var network [2]byte
	binary.BigEndian.PutUint16(network[:], c.networkID)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)

	h := sha256.New()
	h.Write([]byte("devnet.block.v1"))
	h.Write(network[:])
	h.Write(buf[:])

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash, nil
}

// EntropySource returns the entropy bytes the chain contributes for the
// current height.
func (c *Chain) EntropySource() ([]byte, error) {
	height, err := c.CurrentHeight()
	if err != nil {
		return nil, err
	}

	hash, err := c.BlockHash(height)
	if err != nil {
		return nil, err
	}

	h := sha256.Sum256(append([]byte("devnet.entropy.v1"), hash[:]...))
	return h[:], nil
}

// =============================================================================

// Beacon simulates an external randomness beacon by deriving a round value
// from the chain's current block. It exists so beacon plumbing can be
// exercised without a drand deployment.
type Beacon struct {
	chain *Chain
}

// NewBeacon constructs a simulated beacon tied to the specified chain.
func NewBeacon(chain *Chain) *Beacon {
	return &Beacon{chain: chain}
}

// Entropy returns the beacon bytes for the chain's current block.
func (b *Beacon) Entropy() ([]byte, error) {
	src, err := b.chain.EntropySource()
	if err != nil {
		return nil, err
	}

	h := sha256.Sum256(append([]byte("devnet.beacon.v1"), src...))
	return h[:], nil
}
