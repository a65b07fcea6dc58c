package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// Disk reads chunks from a file on disk. The final chunk is zero padded to
// the chunk size so chunk hashes are identical across implementations.
type Disk struct {
	file        *os.File
	chunkSize   uint32
	totalChunks uint64
	dataHash    [32]byte
}

// NewDisk opens the specified file for chunk access and computes the
// content hash of the full file.
func NewDisk(path string, chunkSize uint32) (*Disk, error) {
	if chunkSize == 0 {
		return nil, errors.New("chunk size must be greater than zero")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stating data file: %w", err)
	}

	if info.Size() == 0 {
		file.Close()
		return nil, errors.New("data file is empty")
	}

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		file.Close()
		return nil, fmt.Errorf("hashing data file: %w", err)
	}

	d := Disk{
		file:        file,
		chunkSize:   chunkSize,
		totalChunks: (uint64(info.Size()) + uint64(chunkSize) - 1) / uint64(chunkSize),
	}
	h.Sum(d.dataHash[:0])

	return &d, nil
}

// Close releases the underlying file.
func (d *Disk) Close() error {
	return d.file.Close()
}

// TotalChunks returns the number of addressable chunks in the file.
func (d *Disk) TotalChunks() uint64 {
	return d.totalChunks
}

// DataHash returns the content hash of the full file.
func (d *Disk) DataHash() [32]byte {
	return d.dataHash
}

// ReadChunk returns the bytes of the specified chunk, zero padded to the
// chunk size.
func (d *Disk) ReadChunk(index uint64) ([]byte, error) {
	if index >= d.totalChunks {
		return nil, fmt.Errorf("chunk index %d out of range [0, %d)", index, d.totalChunks)
	}

	data := make([]byte, d.chunkSize)
	n, err := d.file.ReadAt(data, int64(index)*int64(d.chunkSize))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading chunk %d: %w", index, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("reading chunk %d: no data", index)
	}

	return data, nil
}
