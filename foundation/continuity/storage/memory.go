package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// Memory serves chunks from an in-memory buffer. It exists for tests and
// tooling where writing a data file to disk buys nothing.
type Memory struct {
	data        []byte
	chunkSize   uint32
	totalChunks uint64
	dataHash    [32]byte
}

// NewMemory constructs a chunk reader over the specified bytes.
func NewMemory(data []byte, chunkSize uint32) (*Memory, error) {
	if chunkSize == 0 {
		return nil, errors.New("chunk size must be greater than zero")
	}
	if len(data) == 0 {
		return nil, errors.New("data must not be empty")
	}

	m := Memory{
		data:        data,
		chunkSize:   chunkSize,
		totalChunks: (uint64(len(data)) + uint64(chunkSize) - 1) / uint64(chunkSize),
		dataHash:    sha256.Sum256(data),
	}

	return &m, nil
}

// TotalChunks returns the number of addressable chunks.
func (m *Memory) TotalChunks() uint64 {
	return m.totalChunks
}

// DataHash returns the content hash of the full buffer.
func (m *Memory) DataHash() [32]byte {
	return m.dataHash
}

// ReadChunk returns the bytes of the specified chunk, zero padded to the
// chunk size.
func (m *Memory) ReadChunk(index uint64) ([]byte, error) {
	if index >= m.totalChunks {
		return nil, fmt.Errorf("chunk index %d out of range [0, %d)", index, m.totalChunks)
	}

	chunk := make([]byte, m.chunkSize)
	copy(chunk, m.data[index*uint64(m.chunkSize):])

	return chunk, nil
}
