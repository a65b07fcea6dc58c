// Package storage provides chunk level access to stored data for proving.
// The protocol core never manages on disk layout; it consumes already
// fetched chunk bytes through the readers in this package or any other
// implementation of the chunk source contract defined by the state package.
package storage

import "crypto/sha256"

// HashChunk returns the content hash of one chunk. Chunks shorter than the
// configured chunk size must be zero padded by the reader before hashing so
// every implementation hashes identical bytes.
func HashChunk(data []byte) [32]byte {
	return sha256.Sum256(data)
}
