// Package verifier implements full and compact proof verification against
// the consensus rules. Full verification replays the commitment checks and
// spot checks the embedded VDF proof; compact verification walks a merkle
// inclusion path against an aggregate root without touching any other
// chain's proof.
package verifier

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/ardanlabs/proofchain/foundation/continuity/commitment"
	"github.com/ardanlabs/proofchain/foundation/continuity/genesis"
	"github.com/ardanlabs/proofchain/foundation/continuity/hierarchy"
	"github.com/ardanlabs/proofchain/foundation/continuity/merkle"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ardanlabs/proofchain/foundation/continuity/vdf"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru"
)

// ErrVdfInvalid indicates the embedded VDF proof failed verification.
var ErrVdfInvalid = errors.New("vdf proof failed verification")

// ErrProverMismatch indicates the commitment was built by a different
// prover than the one presenting it.
var ErrProverMismatch = errors.New("commitment prover key does not match")

// defaultCacheSize bounds the verified commitment cache.
const defaultCacheSize = 16384

// =============================================================================

// Verifier validates commitments and aggregate proofs. Fully verified
// commitment hashes are cached so repeated submissions of the same
// commitment skip the VDF spot checks.
type Verifier struct {
	params genesis.Genesis
	policy vdf.Policy
	cache  *lru.Cache
}

// New constructs a Verifier for the specified consensus parameters.
func New(params genesis.Genesis) (*Verifier, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consensus parameters: %w", err)
	}

	cache, err := lru.New(defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("constructing verification cache: %w", err)
	}

	v := Verifier{
		params: params,
		policy: vdf.Policy{
			MemoryBytes: params.VdfMemoryBytes,
			SampleCount: params.VdfSampleCount,
			SpotChecks:  params.VdfSpotChecks,
		},
		cache: cache,
	}

	return &v, nil
}

// VerifyFull validates a single commitment end to end: prover identity,
// VDF input binding, VDF spot checks, commitment integrity, blockchain
// context, and chunk selection. A nil error means the proof is accepted.
func (v *Verifier) VerifyFull(sc commitment.StorageCommitment, proverKey signature.ProverKey, expectedBlockHash [32]byte, totalChunks uint64) error {
	if sc.ProverKey != proverKey {
		return ErrProverMismatch
	}

	if _, exists := v.cache.Get(sc.CommitmentHash); exists {
		return nil
	}

	if len(sc.SelectedChunks) != int(v.params.ChunksPerBlock) {
		return fmt.Errorf("%w: expected %d selected chunks, got %d", commitment.ErrSelectionMismatch, v.params.ChunksPerBlock, len(sc.SelectedChunks))
	}

	if sc.VdfProof.InputState != commitment.VdfInput(sc.Entropy, sc.ProverKey) {
		return fmt.Errorf("%w: input state not bound to entropy and prover", ErrVdfInvalid)
	}

	if !vdf.Verify(sc.VdfProof, v.policy) {
		return ErrVdfInvalid
	}

	if err := commitment.Verify(sc, expectedBlockHash, totalChunks); err != nil {
		return err
	}

	v.cache.Add(sc.CommitmentHash, true)

	return nil
}

// VerifyCompact validates a compact aggregate inclusion proof: the chain's
// commitment hash must fold into the presented aggregate root along the
// supplied path. No other chain's proof is inspected.
func (v *Verifier) VerifyCompact(cp hierarchy.CompactProof, expectedRoot [32]byte) bool {
	if cp.Root != expectedRoot {
		return false
	}

	return merkle.VerifyInclusion(cp.CommitmentHash[:], cp.Path, cp.Order, expectedRoot[:], nil)
}

// VerifyBatch validates a set of commitments. Every commitment gets the
// integrity check; a random sample, sized by the consensus challenge
// probability, additionally gets the full VDF spot checks. Failures are
// aggregated so one bad commitment does not mask another.
func (v *Verifier) VerifyBatch(scs []commitment.StorageCommitment, expectedBlockHash [32]byte, totalChunks uint64) error {
	var result *multierror.Error

	for i, sc := range scs {
		if challenged, err := v.challenge(); err == nil && challenged {
			if err := v.VerifyFull(sc, sc.ProverKey, expectedBlockHash, totalChunks); err != nil {
				result = multierror.Append(result, fmt.Errorf("commitment[%d] %s: %w", i, signature.HashHex(sc.CommitmentHash), err))
			}
			continue
		}

		if err := commitment.Verify(sc, expectedBlockHash, totalChunks); err != nil {
			result = multierror.Append(result, fmt.Errorf("commitment[%d] %s: %w", i, signature.HashHex(sc.CommitmentHash), err))
		}
	}

	return result.ErrorOrNil()
}

// =============================================================================

// challenge draws whether a commitment in a batch receives full
// verification. The draw uses OS randomness so a prover cannot predict
// which submissions will be challenged.
func (v *Verifier) challenge() (bool, error) {
	const precision = 1_000_000

	n, err := rand.Int(rand.Reader, big.NewInt(precision))
	if err != nil {
		return false, err
	}

	return float64(n.Int64()) < v.params.ChallengeProbability*precision, nil
}
