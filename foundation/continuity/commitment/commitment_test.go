package commitment_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"testing"

	"github.com/ardanlabs/proofchain/foundation/continuity/commitment"
	"github.com/ardanlabs/proofchain/foundation/continuity/entropy"
	"github.com/ardanlabs/proofchain/foundation/continuity/selector"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ardanlabs/proofchain/foundation/continuity/storage"
	"github.com/ardanlabs/proofchain/foundation/continuity/vdf"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const testTotalChunks = 4096

// buildTestCommitment runs a complete proving round against an in memory
// data set using small VDF parameters.
func buildTestCommitment(t *testing.T) (commitment.StorageCommitment, entropy.MultiSourceEntropy) {
	t.Helper()

	var proverKey signature.ProverKey
	copy(proverKey[:], []byte("test prover key test prover key!"))

	blockHash := sha256.Sum256([]byte("block 42"))
	blockchainEntropy := sha256.Sum256(blockHash[:])
	beaconEntropy := sha256.Sum256([]byte("beacon round 7"))

	mse, err := entropy.Combine(blockchainEntropy[:], beaconEntropy[:])
	if err != nil {
		t.Fatalf("unable to combine entropy: %v", err)
	}

	selected, err := selector.Select(mse, testTotalChunks, 4)
	if err != nil {
		t.Fatalf("unable to select chunks: %v", err)
	}

	chunkHashes := make([][32]byte, 0, len(selected))
	for _, idx := range selected {
		chunkHashes = append(chunkHashes, storage.HashChunk([]byte(fmt.Sprintf("chunk %d", idx))))
	}

	policy := vdf.Policy{MemoryBytes: 64 << 10, SampleCount: 4, SpotChecks: 2}
	proof, err := vdf.Prove(context.Background(), commitment.VdfInput(mse, proverKey), 1024, policy)
	if err != nil {
		t.Fatalf("unable to produce vdf proof: %v", err)
	}

	dataHash := sha256.Sum256([]byte("the stored file"))

	sc, err := commitment.Build(proverKey, dataHash, 42, blockHash, selected, chunkHashes, proof, mse)
	if err != nil {
		t.Fatalf("unable to build commitment: %v", err)
	}

	return sc, mse
}

// =============================================================================

func Test_BuildVerify(t *testing.T) {
	t.Log("Given the need to build and verify storage commitments.")
	{
		t.Logf("\tTest 0:\tWhen building from an honest proving round.")
		{
			sc, _ := buildTestCommitment(t)
			t.Logf("\t%s\tTest 0:\tShould be able to build a commitment.", success)

			if sc.CommitmentHash != commitment.Hash(sc) {
				t.Errorf("\t%s\tTest 0:\tShould carry its own recomputable hash.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould carry its own recomputable hash.", success)
			}

			if err := commitment.VerifyIntegrity(sc); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould pass the integrity check: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pass the integrity check.", success)
			}

			if err := commitment.Verify(sc, sc.BlockHash, testTotalChunks); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould pass full verification: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pass full verification.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen build inputs are malformed.")
		{
			sc, mse := buildTestCommitment(t)

			if _, err := commitment.Build(sc.ProverKey, sc.DataHash, 42, sc.BlockHash, nil, nil, sc.VdfProof, mse); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject an empty selection.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject an empty selection.", success)
			}

			if _, err := commitment.Build(sc.ProverKey, sc.DataHash, 42, sc.BlockHash, sc.SelectedChunks, sc.ChunkHashes[:1], sc.VdfProof, mse); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject mismatched sequence lengths.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject mismatched sequence lengths.", success)
			}
		}
	}
}

func Test_Tampering(t *testing.T) {
	t.Log("Given the need to detect any post build mutation.")
	{
		t.Logf("\tTest 0:\tWhen mutating each committed field.")
		{
			sc, _ := buildTestCommitment(t)

			mutations := map[string]func(sc *commitment.StorageCommitment){
				"prover key":     func(sc *commitment.StorageCommitment) { sc.ProverKey[0] ^= 0x01 },
				"data hash":      func(sc *commitment.StorageCommitment) { sc.DataHash[0] ^= 0x01 },
				"block height":   func(sc *commitment.StorageCommitment) { sc.BlockHeight++ },
				"block hash":     func(sc *commitment.StorageCommitment) { sc.BlockHash[0] ^= 0x01 },
				"chunk index":    func(sc *commitment.StorageCommitment) { sc.SelectedChunks[0]++ },
				"chunk hash":     func(sc *commitment.StorageCommitment) { sc.ChunkHashes[0][0] ^= 0x01 },
				"vdf output":     func(sc *commitment.StorageCommitment) { sc.VdfProof.OutputState[0] ^= 0x01 },
				"vdf iterations": func(sc *commitment.StorageCommitment) { sc.VdfProof.Iterations++ },
				"vdf sample":     func(sc *commitment.StorageCommitment) { sc.VdfProof.MemoryAccessSamples[0].Offset++ },
				"local entropy":  func(sc *commitment.StorageCommitment) { sc.Entropy.LocalEntropy[0] ^= 0x01 },
				"combined hash":  func(sc *commitment.StorageCommitment) { sc.Entropy.CombinedHash[0] ^= 0x01 },
			}

			for name, mutate := range mutations {
				fresh, _ := buildTestCommitment(t)
				mutate(&fresh)

				if err := commitment.VerifyIntegrity(fresh); !errors.Is(err, commitment.ErrIntegrityMismatch) {
					t.Errorf("\t%s\tTest 0:\tShould detect a mutated %s.", failed, name)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould detect every field mutation.", success)

			tampered := sc
			tampered.CommitmentHash[0] ^= 0x01
			if err := commitment.VerifyIntegrity(tampered); !errors.Is(err, commitment.ErrIntegrityMismatch) {
				t.Errorf("\t%s\tTest 0:\tShould detect a mutated commitment hash.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould detect a mutated commitment hash.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the blockchain context is wrong.")
		{
			sc, _ := buildTestCommitment(t)

			otherBlock := sha256.Sum256([]byte("block 43"))
			if err := commitment.Verify(sc, otherBlock, testTotalChunks); !errors.Is(err, commitment.ErrSelectionMismatch) {
				t.Errorf("\t%s\tTest 1:\tShould reject a commitment for the wrong block: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a commitment for the wrong block.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen the selection was not derived from the entropy.")
		{
			sc, mse := buildTestCommitment(t)

			// Rebuild with rotated chunk indices so the hash is internally
			// consistent but the selection no longer matches the entropy.
			rotated := append([]uint64{sc.SelectedChunks[len(sc.SelectedChunks)-1]}, sc.SelectedChunks[:len(sc.SelectedChunks)-1]...)
			forged, err := commitment.Build(sc.ProverKey, sc.DataHash, sc.BlockHeight, sc.BlockHash, rotated, sc.ChunkHashes, sc.VdfProof, mse)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to build the forged commitment: %v", failed, err)
			}

			if err := commitment.Verify(forged, forged.BlockHash, testTotalChunks); !errors.Is(err, commitment.ErrSelectionMismatch) {
				t.Errorf("\t%s\tTest 2:\tShould reject a selection the entropy does not produce: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject a selection the entropy does not produce.", success)
			}
		}
	}
}

func Test_VdfInput(t *testing.T) {
	t.Log("Given the need to bind the VDF input to entropy and prover.")
	{
		t.Logf("\tTest 0:\tWhen deriving inputs for different provers.")
		{
			_, mse := buildTestCommitment(t)

			var keyA, keyB signature.ProverKey
			keyA[0] = 0xAA
			keyB[0] = 0xBB

			if commitment.VdfInput(mse, keyA) == commitment.VdfInput(mse, keyB) {
				t.Errorf("\t%s\tTest 0:\tShould derive distinct inputs per prover.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould derive distinct inputs per prover.", success)
			}

			if commitment.VdfInput(mse, keyA) != commitment.VdfInput(mse, keyA) {
				t.Errorf("\t%s\tTest 0:\tShould derive deterministically.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould derive deterministically.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen deriving inputs for different entropy.")
		{
			_, mseA := buildTestCommitment(t)
			_, mseB := buildTestCommitment(t)

			var key signature.ProverKey
			key[0] = 0xAA

			if commitment.VdfInput(mseA, key) == commitment.VdfInput(mseB, key) {
				t.Errorf("\t%s\tTest 1:\tShould derive distinct inputs per round.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould derive distinct inputs per round.", success)
			}
		}
	}
}

func Test_SignedCommitment(t *testing.T) {
	t.Log("Given the need to sign commitments for submission.")
	{
		t.Logf("\tTest 0:\tWhen signing with the prover's own key.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a key: %v", failed, err)
			}

			sc := commitment.StorageCommitment{
				ProverKey:      signature.PublicKeyToProverKey(&privateKey.PublicKey),
				CommitmentHash: sha256.Sum256([]byte("round 9 commitment")),
			}

			signed, err := sc.Sign(privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the commitment: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to sign the commitment.", success)

			if err := signed.VerifySignature(); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould verify the signature: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould verify the signature.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the key or signature does not match the prover.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a key: %v", failed, err)
			}
			otherKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a key: %v", failed, err)
			}

			sc := commitment.StorageCommitment{
				ProverKey:      signature.PublicKeyToProverKey(&privateKey.PublicKey),
				CommitmentHash: sha256.Sum256([]byte("round 9 commitment")),
			}

			if _, err := sc.Sign(otherKey); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould refuse to sign with another prover's key.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould refuse to sign with another prover's key.", success)
			}

			signed, err := sc.Sign(privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign the commitment: %v", failed, err)
			}

			signed.CommitmentHash[0] ^= 0x01
			if err := signed.VerifySignature(); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a signature over a different hash.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a signature over a different hash.", success)
			}

			unsigned := commitment.SignedCommitment{StorageCommitment: sc}
			if err := unsigned.VerifySignature(); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject missing signature values.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject missing signature values.", success)
			}
		}
	}
}
