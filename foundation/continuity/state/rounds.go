package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/proofchain/foundation/continuity/commitment"
	"github.com/ardanlabs/proofchain/foundation/continuity/entropy"
	"github.com/ardanlabs/proofchain/foundation/continuity/hierarchy"
	"github.com/ardanlabs/proofchain/foundation/continuity/selector"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ardanlabs/proofchain/foundation/continuity/storage"
	"github.com/ardanlabs/proofchain/foundation/continuity/vdf"
)

// ProveRound executes one full proving round: entropy collection, chunk
// selection, chunk hashing, the memory hard VDF, commitment construction,
// and the hierarchy update. The context cancels the VDF mid flight; on
// cancellation the context error is returned and no commitment is
// produced.
func (s *State) ProveRound(ctx context.Context) (commitment.StorageCommitment, error) {
	s.evHandler("state: ProveRound: started: chain[%s]", s.chainID)
	defer s.evHandler("state: ProveRound: completed: chain[%s]", s.chainID)

	// Collect the blockchain context for this round.
	height, err := s.blockchain.CurrentHeight()
	if err != nil {
		return commitment.StorageCommitment{}, fmt.Errorf("querying current height: %w", err)
	}

	blockHash, err := s.blockchain.BlockHash(height)
	if err != nil {
		return commitment.StorageCommitment{}, fmt.Errorf("querying block hash: %w", err)
	}

	blockchainEntropy, err := s.blockchain.EntropySource()
	if err != nil {
		return commitment.StorageCommitment{}, fmt.Errorf("querying entropy source: %w", err)
	}

	// The beacon is a secondary source. A beacon outage must not stop
	// proving; the entropy layout zero fills an absent beacon.
	var beaconEntropy []byte
	if s.beacon != nil {
		beaconEntropy, err = s.beacon.Entropy()
		if err != nil {
			s.evHandler("state: ProveRound: beacon unavailable, continuing without: %s", err)
			beaconEntropy = nil
		}
	}

	mse, err := entropy.Combine(blockchainEntropy, beaconEntropy)
	if err != nil {
		return commitment.StorageCommitment{}, fmt.Errorf("combining entropy: %w", err)
	}

	s.evHandler("state: ProveRound: entropy combined: blk[%d]", height)

	// Derive the chunk challenge for this round.
	selected, err := selector.Select(mse, s.chunks.TotalChunks(), s.params.ChunksPerBlock)
	if err != nil {
		return commitment.StorageCommitment{}, fmt.Errorf("selecting chunks: %w", err)
	}

	chunkHashes := make([][32]byte, len(selected))
	for i, idx := range selected {
		data, err := s.chunks.ReadChunk(idx)
		if err != nil {
			return commitment.StorageCommitment{}, fmt.Errorf("reading chunk %d: %w", idx, err)
		}
		chunkHashes[i] = storage.HashChunk(data)
	}

	s.evHandler("state: ProveRound: chunks hashed: count[%d]", len(selected))

	// Spend the wall clock time.
	input := commitment.VdfInput(mse, s.proverKey)

	proof, err := vdf.Prove(ctx, input, s.iterations, s.policy)
	if err != nil {
		return commitment.StorageCommitment{}, fmt.Errorf("proving vdf: %w", err)
	}

	s.evHandler("state: ProveRound: vdf complete: iterations[%d] elapsed[%dms]", proof.Iterations, proof.ComputationTimeMs)

	sc, err := commitment.Build(s.proverKey, s.chunks.DataHash(), height, blockHash, selected, chunkHashes, proof, mse)
	if err != nil {
		return commitment.StorageCommitment{}, fmt.Errorf("building commitment: %w", err)
	}

	if err := s.acceptCommitment(s.chainID, sc); err != nil {
		return commitment.StorageCommitment{}, err
	}

	s.mu.Lock()
	s.latestCommitment = sc
	s.haveCommitment = true
	s.mu.Unlock()

	return sc, nil
}

// SignCommitment signs a commitment with this node's private key so it can
// be submitted to other nodes.
func (s *State) SignCommitment(sc commitment.StorageCommitment) (commitment.SignedCommitment, error) {
	return sc.Sign(s.privateKey)
}

// SubmitCommitment verifies a signed commitment produced by another prover
// and, when valid, folds it into the aggregation hierarchy. The signature
// must recover to the prover key the commitment claims.
func (s *State) SubmitCommitment(chainID string, signed commitment.SignedCommitment, totalChunks uint64) error {
	s.evHandler("state: SubmitCommitment: chain[%s] commitment[%s]", chainID, signature.HashHex(signed.CommitmentHash))

	if err := signed.VerifySignature(); err != nil {
		return fmt.Errorf("verifying submission signature: %w", err)
	}

	expectedBlockHash, err := s.blockchain.BlockHash(signed.BlockHeight)
	if err != nil {
		return fmt.Errorf("querying block hash: %w", err)
	}

	if err := s.verifier.VerifyFull(signed.StorageCommitment, signed.ProverKey, expectedBlockHash, totalChunks); err != nil {
		return fmt.Errorf("verifying commitment: %w", err)
	}

	return s.acceptCommitment(chainID, signed.StorageCommitment)
}

// acceptCommitment registers or updates the chain's commitment in the
// hierarchy.
func (s *State) acceptCommitment(chainID string, sc commitment.StorageCommitment) error {
	if err := s.hierarchy.UpdateChain(chainID, sc); err != nil {
		if !errors.Is(err, hierarchy.ErrNotFound) {
			return fmt.Errorf("updating hierarchy: %w", err)
		}

		if err := s.hierarchy.RegisterChain(chainID, sc); err != nil {
			return fmt.Errorf("registering chain: %w", err)
		}

		s.evHandler("state: acceptCommitment: chain registered: chain[%s]", chainID)
	}

	return nil
}
