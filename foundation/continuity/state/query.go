package state

import (
	"github.com/ardanlabs/proofchain/foundation/continuity/commitment"
	"github.com/ardanlabs/proofchain/foundation/continuity/genesis"
	"github.com/ardanlabs/proofchain/foundation/continuity/hierarchy"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
)

// RetrieveGenesis returns a copy of the consensus parameters.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.params
}

// ChainID returns the id of this node's storage chain.
func (s *State) ChainID() string {
	return s.chainID
}

// ProverKey returns this node's 32 byte prover identity.
func (s *State) ProverKey() signature.ProverKey {
	return s.proverKey
}

// LatestCommitment returns the most recent commitment this node produced
// and whether one exists yet.
func (s *State) LatestCommitment() (commitment.StorageCommitment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.latestCommitment, s.haveCommitment
}

// TotalChunks returns the number of addressable chunks in this node's
// stored data.
func (s *State) TotalChunks() uint64 {
	return s.chunks.TotalChunks()
}

// AggregateProof returns the root and child roots of the specified
// hierarchy node.
func (s *State) AggregateProof(level hierarchy.Level, id string) (hierarchy.AggregateProof, error) {
	return s.hierarchy.AggregateProof(level, id)
}

// CompactProof returns the inclusion path from the specified chain's
// commitment up to the root at the specified level.
func (s *State) CompactProof(chainID string, level hierarchy.Level) (hierarchy.CompactProof, error) {
	return s.hierarchy.CompactProof(chainID, level)
}

// GlobalRoot returns the current global aggregate root.
func (s *State) GlobalRoot() [32]byte {
	return s.hierarchy.GlobalRoot()
}

// ChainCount returns the number of chains in the hierarchy.
func (s *State) ChainCount() int {
	return s.hierarchy.ChainCount()
}

// GroupCount returns the number of groups in the hierarchy.
func (s *State) GroupCount() int {
	return s.hierarchy.GroupCount()
}

// RegionCount returns the number of regions in the hierarchy.
func (s *State) RegionCount() int {
	return s.hierarchy.RegionCount()
}

// DeregisterChain removes a chain from the hierarchy.
func (s *State) DeregisterChain(chainID string) error {
	return s.hierarchy.DeregisterChain(chainID)
}

// VerifyFull validates a commitment end to end against this node's
// consensus rules.
func (s *State) VerifyFull(sc commitment.StorageCommitment, proverKey signature.ProverKey, expectedBlockHash [32]byte, totalChunks uint64) error {
	return s.verifier.VerifyFull(sc, proverKey, expectedBlockHash, totalChunks)
}

// VerifyCompact validates a compact inclusion proof against the supplied
// aggregate root.
func (s *State) VerifyCompact(cp hierarchy.CompactProof, expectedRoot [32]byte) bool {
	return s.verifier.VerifyCompact(cp, expectedRoot)
}
