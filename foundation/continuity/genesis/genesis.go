// Package genesis maintains access to the consensus parameters file. Every
// value in this file is consensus critical: all participants must run with
// bit identical parameters or their proofs become mutually unverifiable.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultPath is where the node expects the consensus parameters file.
const DefaultPath = "zblock/genesis.json"

// Genesis represents the consensus parameters for the network.
type Genesis struct {
	Date                 time.Time `json:"date"`
	NetworkID            uint16    `json:"network_id"`            // Unique id for this running network.
	ChunksPerBlock       uint16    `json:"chunks_per_block"`      // Number of chunks selected per commitment.
	ChunkSizeBytes       uint32    `json:"chunk_size_bytes"`      // Fixed size of an addressable chunk.
	VdfTargetSeconds     uint32    `json:"vdf_target_seconds"`    // Wall clock target for one VDF proof.
	VdfMemoryBytes       uint64    `json:"vdf_memory_bytes"`      // Scratch buffer size for the memory hard VDF.
	VdfSampleCount       uint16    `json:"vdf_sample_count"`      // Checkpoint samples recorded per proof.
	VdfSpotChecks        uint16    `json:"vdf_spot_checks"`       // Checkpoint windows replayed during verification.
	ChallengeProbability float64   `json:"challenge_probability"` // Fraction of commitments fully verified in a batch.
	ChainsPerGroup       uint32    `json:"chains_per_group"`      // Target number of chains per aggregation group.
}

// =============================================================================

// Load opens and consumes the consensus parameters file from the
// default path.
func Load() (Genesis, error) {
	return LoadFromFile(DefaultPath)
}

// LoadFromFile opens and consumes the specified consensus parameters file.
func LoadFromFile(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the parameters are usable. A zero value in any of these
// fields is a deployment mistake, not untrusted input, so the node refuses
// to start.
func (g Genesis) Validate() error {
	switch {
	case g.ChunksPerBlock == 0:
		return fmt.Errorf("chunks_per_block must be greater than zero")
	case g.ChunkSizeBytes == 0:
		return fmt.Errorf("chunk_size_bytes must be greater than zero")
	case g.VdfTargetSeconds == 0:
		return fmt.Errorf("vdf_target_seconds must be greater than zero")
	case g.VdfMemoryBytes < 4096:
		return fmt.Errorf("vdf_memory_bytes must be at least 4096, got %d", g.VdfMemoryBytes)
	case g.VdfSampleCount == 0:
		return fmt.Errorf("vdf_sample_count must be greater than zero")
	case g.VdfSpotChecks == 0 || g.VdfSpotChecks > g.VdfSampleCount:
		return fmt.Errorf("vdf_spot_checks must be in [1, %d], got %d", g.VdfSampleCount, g.VdfSpotChecks)
	case g.ChallengeProbability <= 0 || g.ChallengeProbability > 1:
		return fmt.Errorf("challenge_probability must be in (0, 1], got %g", g.ChallengeProbability)
	case g.ChainsPerGroup == 0:
		return fmt.Errorf("chains_per_group must be greater than zero")
	}

	return nil
}
