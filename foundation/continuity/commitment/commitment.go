// Package commitment implements the storage commitment builder and
// verifier. A commitment binds prover identity, data identity, blockchain
// context, the selected chunks and their hashes, the VDF proof, and the
// entropy structure into one hash computed over a fixed serialization
// order. The ordering is consensus critical: every implementation must
// serialize identically or commitment hashes diverge.
package commitment

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"math/big"

	"github.com/ardanlabs/proofchain/foundation/continuity/entropy"
	"github.com/ardanlabs/proofchain/foundation/continuity/selector"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ardanlabs/proofchain/foundation/continuity/vdf"
)

// ErrIntegrityMismatch indicates the commitment hash does not match the
// commitment's own fields: the value was tampered with after construction.
var ErrIntegrityMismatch = errors.New("commitment hash does not match fields")

// ErrSelectionMismatch indicates the committed chunk selection does not
// match the deterministic selection for the committed entropy: the prover
// used a stale or incorrect entropy context.
var ErrSelectionMismatch = errors.New("chunk selection does not match entropy")

// =============================================================================

// StorageCommitment represents one prover's claim of possessing specific
// chunks of a file at a specific blockchain height. Built once per proving
// round and immutable afterwards.
type StorageCommitment struct {
	ProverKey      signature.ProverKey        `json:"prover_key"`
	DataHash       [32]byte                   `json:"data_hash"`
	BlockHeight    uint64                     `json:"block_height"`
	BlockHash      [32]byte                   `json:"block_hash"`
	SelectedChunks []uint64                   `json:"selected_chunks"`
	ChunkHashes    [][32]byte                 `json:"chunk_hashes"`
	VdfProof       vdf.Proof                  `json:"vdf_proof"`
	Entropy        entropy.MultiSourceEntropy `json:"entropy"`
	CommitmentHash [32]byte                   `json:"commitment_hash"`
}

// Build constructs a commitment and computes its hash over the fixed
// serialization order of every field.
func Build(proverKey signature.ProverKey, dataHash [32]byte, blockHeight uint64, blockHash [32]byte, selectedChunks []uint64, chunkHashes [][32]byte, vdfProof vdf.Proof, mse entropy.MultiSourceEntropy) (StorageCommitment, error) {
	if len(selectedChunks) == 0 {
		return StorageCommitment{}, errors.New("commitment requires at least one selected chunk")
	}
	if len(selectedChunks) != len(chunkHashes) {
		return StorageCommitment{}, fmt.Errorf("selected chunks and chunk hashes differ in length: %d vs %d", len(selectedChunks), len(chunkHashes))
	}

	sc := StorageCommitment{
		ProverKey:      proverKey,
		DataHash:       dataHash,
		BlockHeight:    blockHeight,
		BlockHash:      blockHash,
		SelectedChunks: selectedChunks,
		ChunkHashes:    chunkHashes,
		VdfProof:       vdfProof,
		Entropy:        mse,
	}
	sc.CommitmentHash = computeHash(sc)

	return sc, nil
}

// Hash recomputes the commitment hash from the commitment's fields.
func Hash(sc StorageCommitment) [32]byte {
	return computeHash(sc)
}

// VerifyIntegrity recomputes the commitment hash and compares it against
// the stored value. Any single bit change to any field fails the check.
func VerifyIntegrity(sc StorageCommitment) error {
	if computeHash(sc) != sc.CommitmentHash {
		return ErrIntegrityMismatch
	}

	return nil
}

// Verify performs the full commitment check: integrity, blockchain context,
// entropy consistency, and the re-derivation of the chunk selection. The
// two failure modes carry distinct errors so callers can distinguish
// tampering from a stale entropy context.
func Verify(sc StorageCommitment, expectedBlockHash [32]byte, totalChunks uint64) error {
	if err := VerifyIntegrity(sc); err != nil {
		return err
	}

	if len(sc.SelectedChunks) == 0 || len(sc.SelectedChunks) != len(sc.ChunkHashes) {
		return fmt.Errorf("%w: malformed chunk sequences", ErrSelectionMismatch)
	}

	if sc.BlockHash != expectedBlockHash {
		return fmt.Errorf("%w: commitment block hash does not match expected block hash", ErrSelectionMismatch)
	}

	if err := sc.Entropy.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrSelectionMismatch, err)
	}

	if !selector.Verify(sc.Entropy, totalChunks, sc.SelectedChunks) {
		return ErrSelectionMismatch
	}

	return nil
}

// =============================================================================

// SignedCommitment represents a commitment paired with the signature its
// prover produced over the commitment hash. Submissions travel in this
// form so receiving nodes can check the submitter holds the private key
// behind the embedded prover key.
type SignedCommitment struct {
	StorageCommitment
	V *big.Int `json:"v"`
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

// Sign uses the specified private key to sign the commitment for
// submission to other nodes.
func (sc StorageCommitment) Sign(privateKey *ecdsa.PrivateKey) (SignedCommitment, error) {
	if signature.PublicKeyToProverKey(&privateKey.PublicKey) != sc.ProverKey {
		return SignedCommitment{}, errors.New("private key does not match the commitment's prover key")
	}

	v, r, s, err := signature.Sign(sc.CommitmentHash, privateKey)
	if err != nil {
		return SignedCommitment{}, err
	}

	signed := SignedCommitment{
		StorageCommitment: sc,
		V:                 v,
		R:                 r,
		S:                 s,
	}

	return signed, nil
}

// VerifySignature checks the signature was produced by the prover the
// commitment claims to come from.
func (sc SignedCommitment) VerifySignature() error {
	if sc.V == nil || sc.R == nil || sc.S == nil {
		return errors.New("commitment is missing signature values")
	}

	return signature.VerifySignature(sc.CommitmentHash, sc.ProverKey, sc.V, sc.R, sc.S)
}

// =============================================================================

// vdfInputTag domain-separates VDF input derivation from other hashing.
const vdfInputTag = "proofchain.vdf.input.v1"

// VdfInput derives the VDF input state from the combined entropy hash and
// the prover's identity. Binding the prover key into the input prevents one
// prover's VDF computation from being replayed by another.
func VdfInput(mse entropy.MultiSourceEntropy, proverKey signature.ProverKey) [32]byte {
	h := sha256.New()
	h.Write([]byte(vdfInputTag))
	h.Write(mse.CombinedHash[:])
	h.Write(proverKey[:])

	var out [32]byte
	h.Sum(out[:0])

	return out
}

// =============================================================================

// computeHash serializes every field in fixed order into a sha256 hash.
// No field may be reordered or omitted.
func computeHash(sc StorageCommitment) [32]byte {
	var buf [8]byte

	h := sha256.New()

	// 1. Prover identity and data identity.
	h.Write(sc.ProverKey[:])
	h.Write(sc.DataHash[:])

	// 2. Blockchain context.
	binary.BigEndian.PutUint64(buf[:], sc.BlockHeight)
	h.Write(buf[:])
	h.Write(sc.BlockHash[:])

	// 3. Chunk selection, in selection order.
	binary.BigEndian.PutUint64(buf[:], uint64(len(sc.SelectedChunks)))
	h.Write(buf[:])
	for _, idx := range sc.SelectedChunks {
		binary.BigEndian.PutUint64(buf[:], idx)
		h.Write(buf[:])
	}
	for _, ch := range sc.ChunkHashes {
		h.Write(ch[:])
	}

	// 4. VDF proof.
	writeVdfProof(h, sc.VdfProof, buf[:])

	// 5. Entropy structure.
	writeEntropy(h, sc.Entropy, buf[:])

	var out [32]byte
	h.Sum(out[:0])

	return out
}

func writeVdfProof(h hash.Hash, proof vdf.Proof, buf []byte) {
	h.Write(proof.InputState[:])
	h.Write(proof.OutputState[:])

	binary.BigEndian.PutUint64(buf, proof.Iterations)
	h.Write(buf)

	binary.BigEndian.PutUint64(buf, uint64(len(proof.MemoryAccessSamples)))
	h.Write(buf)
	for _, sample := range proof.MemoryAccessSamples {
		binary.BigEndian.PutUint64(buf, sample.Iteration)
		h.Write(buf)
		binary.BigEndian.PutUint64(buf, sample.Offset)
		h.Write(buf)
		h.Write(sample.Value[:])
	}

	binary.BigEndian.PutUint64(buf, proof.ComputationTimeMs)
	h.Write(buf)
	binary.BigEndian.PutUint64(buf, proof.MemoryUsageBytes)
	h.Write(buf)
}

func writeEntropy(h hash.Hash, mse entropy.MultiSourceEntropy, buf []byte) {
	h.Write(mse.BlockchainEntropy[:])

	// An absent beacon serializes as a zero presence byte plus a zero
	// buffer so the layout never changes shape.
	beacon := make([]byte, entropy.EntropySize)
	var present byte
	if mse.BeaconEntropy != nil {
		present = 1
		copy(beacon, mse.BeaconEntropy)
	}
	h.Write([]byte{present})
	h.Write(beacon)

	h.Write(mse.LocalEntropy[:])

	binary.BigEndian.PutUint64(buf, uint64(mse.Timestamp.Unix()))
	h.Write(buf)

	h.Write(mse.CombinedHash[:])
}
