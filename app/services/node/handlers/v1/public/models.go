package public

import (
	"fmt"

	"github.com/ardanlabs/proofchain/business/sys/validate"
	"github.com/ardanlabs/proofchain/foundation/continuity/commitment"
	"github.com/ardanlabs/proofchain/foundation/continuity/hierarchy"
)

// submitCommitment represents a signed commitment submission from another
// prover. The signature values travel alongside the commitment so the
// receiving node can check the submitter owns the claimed prover key.
type submitCommitment struct {
	ChainID     string                      `json:"chain_id" validate:"required"`
	TotalChunks uint64                      `json:"total_chunks" validate:"required,gt=0"`
	Commitment  commitment.SignedCommitment `json:"commitment"`
}

// Validate checks the submission against its declared tags.
func (sc submitCommitment) Validate() error {
	return validate.Check(sc)
}

// =============================================================================

// parseLevel converts a level name from the route into a hierarchy level.
func parseLevel(name string) (hierarchy.Level, error) {
	switch name {
	case "chain":
		return hierarchy.LevelChain, nil
	case "group":
		return hierarchy.LevelGroup, nil
	case "region":
		return hierarchy.LevelRegion, nil
	case "global":
		return hierarchy.LevelGlobal, nil
	}

	return 0, fmt.Errorf("unknown hierarchy level %q", name)
}
