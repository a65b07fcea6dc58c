// Package signature provides prover identity and signing support for the
// proof of storage continuity protocol.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// proofchainID is an arbitrary number for signing messages. This will make
// it clear that the signature comes from the proofchain network.
// Ethereum and Bitcoin do this as well, but they use the value of 27.
const proofchainID = 31

// =============================================================================

// ProverKey represents the 32 byte public identity of a prover on the
// network. It is derived from the prover's ECDSA public key.
type ProverKey [32]byte

// PublicKeyToProverKey derives the 32 byte prover identity from an ECDSA
// public key by hashing the uncompressed public key bytes.
func PublicKeyToProverKey(pub *ecdsa.PublicKey) ProverKey {
	return ProverKey(sha256.Sum256(crypto.FromECDSAPub(pub)))
}

// String implements the fmt.Stringer interface and returns the prover key
// in a hex encoded format.
func (pk ProverKey) String() string {
	return hexutil.Encode(pk[:])
}

// ProverKeyFromHex converts a hex encoded string into a prover key.
func ProverKeyFromHex(s string) (ProverKey, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return ProverKey{}, fmt.Errorf("decoding prover key: %w", err)
	}

	if len(data) != 32 {
		return ProverKey{}, fmt.Errorf("prover key must be 32 bytes, got %d", len(data))
	}

	var pk ProverKey
	copy(pk[:], data)

	return pk, nil
}

// =============================================================================

// Hash returns a sha256 hash over the specified bytes.
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashHex returns the hash in a hex encoded format with the 0x prefix.
func HashHex(hash [32]byte) string {
	return hexutil.Encode(hash[:])
}

// =============================================================================

// Sign uses the specified private key to sign a commitment hash.
func Sign(commitmentHash [32]byte, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {

	// Prepare the hash for signing.
	data := stamp(commitmentHash)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, errors.New("invalid signature")
	}

	// Convert the 65 byte signature into the [R|S|V] format.
	v, r, s = toSignatureValues(sig)

	return v, r, s, nil
}

// VerifySignature verifies the signature conforms to our standards and was
// produced by the prover identified by the specified prover key.
func VerifySignature(commitmentHash [32]byte, proverKey ProverKey, v, r, s *big.Int) error {

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - proofchainID
	if uintV != 0 && uintV != 1 {
		return errors.New("invalid recovery id")
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return errors.New("invalid signature values")
	}

	// Prepare the hash for public key extraction.
	data := stamp(commitmentHash)

	// Convert the [R|S|V] format into the original 65 bytes.
	sig := toSignatureBytes(v, r, s)

	// Capture the public key associated with this signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return fmt.Errorf("unable to extract public key: %w", err)
	}

	// Validate the signer is the prover the commitment claims.
	if PublicKeyToProverKey(publicKey) != proverKey {
		return errors.New("signature does not match prover key")
	}

	return nil
}

// =============================================================================

// stamp salts the commitment hash so the signature is unique to the
// proofchain network.
func stamp(commitmentHash [32]byte) []byte {
	stamp := []byte(fmt.Sprintf("\x19Proofchain Signed Commitment:\n%d", len(commitmentHash)))
	hash := sha256.Sum256(append(stamp, commitmentHash[:]...))
	return hash[:]
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = big.NewInt(0).SetBytes(sig[:32])
	s = big.NewInt(0).SetBytes(sig[32:64])
	v = big.NewInt(0).SetBytes([]byte{sig[64] + proofchainID})

	return v, r, s
}

// toSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the proofchainID.
func toSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	rBytes := r.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)

	sBytes := s.Bytes()
	copy(sig[64-len(sBytes):64], sBytes)

	sig[64] = byte(v.Uint64() - proofchainID)

	return sig
}
