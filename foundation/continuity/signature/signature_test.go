package signature_test

import (
	"crypto/sha256"
	"testing"

	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_SignVerify(t *testing.T) {
	t.Log("Given the need to sign and verify commitment hashes.")
	{
		t.Logf("\tTest 0:\tWhen signing with a prover's private key.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a key: %v", failed, err)
			}
			proverKey := signature.PublicKeyToProverKey(&privateKey.PublicKey)

			commitmentHash := sha256.Sum256([]byte("commitment"))

			v, r, s, err := signature.Sign(commitmentHash, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the hash: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to sign the hash.", success)

			if err := signature.VerifySignature(commitmentHash, proverKey, v, r, s); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould verify the signature: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould verify the signature.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the signature belongs to a different prover.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a key: %v", failed, err)
			}

			otherKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a key: %v", failed, err)
			}
			otherProver := signature.PublicKeyToProverKey(&otherKey.PublicKey)

			commitmentHash := sha256.Sum256([]byte("commitment"))

			v, r, s, err := signature.Sign(commitmentHash, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign the hash: %v", failed, err)
			}

			if err := signature.VerifySignature(commitmentHash, otherProver, v, r, s); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a different prover's identity.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a different prover's identity.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen the signed hash is altered.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to generate a key: %v", failed, err)
			}
			proverKey := signature.PublicKeyToProverKey(&privateKey.PublicKey)

			commitmentHash := sha256.Sum256([]byte("commitment"))

			v, r, s, err := signature.Sign(commitmentHash, privateKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to sign the hash: %v", failed, err)
			}

			altered := commitmentHash
			altered[0] ^= 0x01

			if err := signature.VerifySignature(altered, proverKey, v, r, s); err == nil {
				t.Errorf("\t%s\tTest 2:\tShould reject an altered hash.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject an altered hash.", success)
			}
		}
	}
}

func Test_ProverKey(t *testing.T) {
	t.Log("Given the need to round trip prover identities.")
	{
		t.Logf("\tTest 0:\tWhen encoding and decoding a prover key.")
		{
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a key: %v", failed, err)
			}
			proverKey := signature.PublicKeyToProverKey(&privateKey.PublicKey)

			decoded, err := signature.ProverKeyFromHex(proverKey.String())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the hex form: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to decode the hex form.", success)

			if decoded != proverKey {
				t.Errorf("\t%s\tTest 0:\tShould round trip to the same key.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould round trip to the same key.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the hex form is malformed.")
		{
			if _, err := signature.ProverKeyFromHex("not hex"); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a malformed string.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a malformed string.", success)
			}

			if _, err := signature.ProverKeyFromHex("0x0102"); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a short key.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a short key.", success)
			}
		}
	}
}
