// Package vdf implements a memory hard verifiable delay function. A proof
// shows that real wall clock time and memory bandwidth were spent iterating
// a sequential function, and can be verified at a fraction of the proving
// cost.
//
// The computation is partitioned into epochs, one per recorded checkpoint
// sample. At the start of each epoch the scratch buffer is reseeded from
// the epoch's entry state, so a verifier holding the previous checkpoint
// can replay any single epoch without reconstructing the full scratch
// history. The final output state folds every checkpoint into a closing
// hash, so mutating any sample invalidates the proof even when its epoch
// is not one of the replayed spot checks.
package vdf

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// wordSize is the size in bytes of one scratch buffer word. Every read and
// write against the scratch buffer moves one word.
const wordSize = 32

// cancelCheckStride controls how often the proving loop checks for
// cooperative cancellation. Checking every iteration would dominate the
// cost of the iteration itself.
const cancelCheckStride = 4096

// finalizeTag domain-separates the closing hash from iteration hashing.
const finalizeTag = "proofchain.vdf.finalize.v1"

// spotCheckTag domain-separates spot check epoch derivation.
const spotCheckTag = "proofchain.vdf.spotcheck.v1"

// ErrZeroIterations is returned from Prove when asked for an empty proof.
var ErrZeroIterations = errors.New("iterations must be greater than zero")

// =============================================================================

// Policy represents the consensus critical parameters of the VDF. All
// participants must use identical values or proofs become mutually
// unverifiable.
type Policy struct {
	MemoryBytes uint64 // Scratch buffer size, independent of iterations.
	SampleCount uint16 // Checkpoint samples recorded per proof.
	SpotChecks  uint16 // Checkpoint epochs replayed during verification.
}

// DefaultPolicy returns the network default policy: a 256 MiB scratch
// buffer with 16 checkpoints of which 3 are replayed on verification.
func DefaultPolicy() Policy {
	return Policy{
		MemoryBytes: 256 << 20,
		SampleCount: 16,
		SpotChecks:  3,
	}
}

// validate checks the policy is usable. A bad policy is a deployment
// mistake, not untrusted input.
func (p Policy) validate() error {
	switch {
	case p.MemoryBytes < 4*wordSize:
		return fmt.Errorf("memory bytes must be at least %d, got %d", 4*wordSize, p.MemoryBytes)
	case p.SampleCount == 0:
		return errors.New("sample count must be greater than zero")
	case p.SpotChecks == 0 || p.SpotChecks > p.SampleCount:
		return fmt.Errorf("spot checks must be in [1, %d], got %d", p.SampleCount, p.SpotChecks)
	}

	return nil
}

// =============================================================================

// AccessSample represents one recorded checkpoint: the byte offset of the
// last scratch read in the checkpoint's epoch and the state at the epoch
// boundary.
type AccessSample struct {
	Iteration uint64   `json:"iteration"` // Absolute iteration index of the epoch boundary.
	Offset    uint64   `json:"offset"`    // Byte offset of the last scratch read in the epoch.
	Value     [32]byte `json:"value"`     // State at the epoch boundary.
}

// Proof represents a completed memory hard VDF computation.
type Proof struct {
	InputState          [32]byte       `json:"input_state"`
	OutputState         [32]byte       `json:"output_state"`
	Iterations          uint64         `json:"iterations"`
	MemoryAccessSamples []AccessSample `json:"memory_access_samples"`
	ComputationTimeMs   uint64         `json:"computation_time_ms"`
	MemoryUsageBytes    uint64         `json:"memory_usage_bytes"`
}

// =============================================================================

// Prove performs the specified number of sequential memory hard iterations
// from the input state and returns the resulting proof. The context is
// checked for cancellation once per fixed iteration stride; on cancellation
// the context error is returned and no partial proof is produced.
func Prove(ctx context.Context, input [32]byte, iterations uint64, policy Policy) (Proof, error) {
	if err := policy.validate(); err != nil {
		return Proof{}, err
	}
	if iterations == 0 {
		return Proof{}, ErrZeroIterations
	}
	if iterations < uint64(policy.SampleCount) {
		return Proof{}, fmt.Errorf("iterations %d below sample count %d", iterations, policy.SampleCount)
	}

	start := time.Now()

	scratch := make([]byte, policy.MemoryBytes-policy.MemoryBytes%wordSize)
	samples := make([]AccessSample, 0, policy.SampleCount)

	state := input
	var iteration uint64

	for epoch := uint16(0); epoch < policy.SampleCount; epoch++ {
		length := epochLength(iterations, policy.SampleCount, epoch)

		exit, lastRead, err := runEpoch(ctx, state, iteration, length, scratch)
		if err != nil {
			return Proof{}, err
		}

		iteration += length
		state = exit

		samples = append(samples, AccessSample{
			Iteration: iteration,
			Offset:    lastRead,
			Value:     exit,
		})
	}

	proof := Proof{
		InputState:          input,
		OutputState:         finalize(input, iterations, samples),
		Iterations:          iterations,
		MemoryAccessSamples: samples,
		ComputationTimeMs:   uint64(time.Since(start).Milliseconds()),
		MemoryUsageBytes:    uint64(len(scratch)),
	}

	return proof, nil
}

// Verify checks a proof by replaying a policy fixed number of checkpoint
// epochs and validating the closing hash that folds every checkpoint into
// the output state. Malformed proofs report false; they never panic.
// Verification costs SpotChecks/SampleCount of the original work.
func Verify(proof Proof, policy Policy) bool {
	if policy.validate() != nil {
		return false
	}
	if proof.Iterations == 0 {
		return false
	}
	if proof.Iterations < uint64(policy.SampleCount) {
		return false
	}
	if len(proof.MemoryAccessSamples) != int(policy.SampleCount) {
		return false
	}

	// Every sample must sit exactly on its epoch boundary.
	var boundary uint64
	for epoch := uint16(0); epoch < policy.SampleCount; epoch++ {
		boundary += epochLength(proof.Iterations, policy.SampleCount, epoch)
		if proof.MemoryAccessSamples[epoch].Iteration != boundary {
			return false
		}
	}

	// The output state must fold every recorded checkpoint.
	if finalize(proof.InputState, proof.Iterations, proof.MemoryAccessSamples) != proof.OutputState {
		return false
	}

	// Replay the chosen epochs in full. The first epoch is always replayed
	// since its entry state is the input itself; the remaining spot checks
	// are derived pseudo-randomly from the input state so a prover cannot
	// know in advance which checkpoints will be inspected.
	scratch := make([]byte, policy.MemoryBytes-policy.MemoryBytes%wordSize)

	for _, epoch := range spotCheckEpochs(proof.InputState, policy) {
		entry := proof.InputState
		var start uint64
		if epoch > 0 {
			prev := proof.MemoryAccessSamples[epoch-1]
			entry = prev.Value
			start = prev.Iteration
		}

		length := epochLength(proof.Iterations, policy.SampleCount, epoch)

		exit, lastRead, err := runEpoch(context.Background(), entry, start, length, scratch)
		if err != nil {
			return false
		}

		sample := proof.MemoryAccessSamples[epoch]
		if exit != sample.Value || lastRead != sample.Offset {
			return false
		}
	}

	return true
}

// =============================================================================

// Calibrate measures this machine's iteration rate under the specified
// policy and returns iterations per second. Run once during setup to pick
// an iteration count that hits the network's wall clock target.
func Calibrate(ctx context.Context, policy Policy, duration time.Duration) (uint64, error) {
	if err := policy.validate(); err != nil {
		return 0, err
	}
	if duration < 100*time.Millisecond {
		return 0, errors.New("calibration duration too short")
	}

	input := sha256.Sum256([]byte("proofchain.vdf.calibration"))
	scratch := make([]byte, policy.MemoryBytes-policy.MemoryBytes%wordSize)

	const batch = 50_000

	state := input
	var iterations uint64

	start := time.Now()
	deadline := start.Add(duration)

	seedScratch(scratch, state)
	for time.Now().Before(deadline) {
		exit, _, err := runEpochSeeded(ctx, state, iterations, batch, scratch)
		if err != nil {
			return 0, err
		}
		state = exit
		iterations += batch
	}

	elapsed := time.Since(start).Seconds()

	return uint64(float64(iterations) / elapsed), nil
}

// IterationsForTarget converts a calibrated iteration rate and a wall
// clock target into an iteration count, rounded up so every prover spends
// at least the target time.
func IterationsForTarget(iterationsPerSecond uint64, target time.Duration) uint64 {
	iterations := uint64(float64(iterationsPerSecond) * target.Seconds())
	if iterations == 0 {
		iterations = 1
	}
	return iterations
}

// =============================================================================

// epochLength returns the iteration count of the specified epoch. The
// remainder of an uneven division lands in the final epoch.
func epochLength(iterations uint64, sampleCount uint16, epoch uint16) uint64 {
	length := iterations / uint64(sampleCount)
	if epoch == sampleCount-1 {
		length += iterations % uint64(sampleCount)
	}
	return length
}

// runEpoch reseeds the scratch buffer from the entry state and performs
// the epoch's iterations. It returns the exit state and the byte offset of
// the final scratch read.
func runEpoch(ctx context.Context, entry [32]byte, start uint64, length uint64, scratch []byte) ([32]byte, uint64, error) {
	seedScratch(scratch, entry)
	return runEpochSeeded(ctx, entry, start, length, scratch)
}

// runEpochSeeded performs the iterations against an already seeded scratch
// buffer. Each iteration reads a word at a state dependent offset, folds
// it into the next state, and writes the new state back at a second state
// dependent offset. The data dependent addressing is what couples the
// round count to memory bandwidth.
func runEpochSeeded(ctx context.Context, entry [32]byte, start uint64, length uint64, scratch []byte) ([32]byte, uint64, error) {
	numWords := uint64(len(scratch)) / wordSize

	state := entry
	var lastRead uint64
	var counter [8]byte

	h := sha256.New()

	for i := uint64(0); i < length; i++ {
		if i%cancelCheckStride == 0 && ctx.Err() != nil {
			return [32]byte{}, 0, ctx.Err()
		}

		readWord := binary.BigEndian.Uint64(state[0:8]) % numWords
		lastRead = readWord * wordSize

		binary.BigEndian.PutUint64(counter[:], start+i)

		h.Reset()
		h.Write(state[:])
		h.Write(scratch[lastRead : lastRead+wordSize])
		h.Write(counter[:])
		h.Sum(state[:0])

		writeWord := binary.BigEndian.Uint64(state[8:16]) % numWords
		copy(scratch[writeWord*wordSize:], state[:])
	}

	return state, lastRead, nil
}

// seedScratch fills the scratch buffer deterministically from the entry
// state so any epoch can be replayed in isolation.
func seedScratch(scratch []byte, entry [32]byte) {
	var counter [8]byte

	h := sha256.New()

	for off := 0; off < len(scratch); off += wordSize {
		binary.BigEndian.PutUint64(counter[:], uint64(off/wordSize))

		h.Reset()
		h.Write(entry[:])
		h.Write(counter[:])
		h.Sum(scratch[off:off])
	}
}

// finalize computes the closing hash binding the input, the iteration
// count, and every checkpoint sample into the output state.
func finalize(input [32]byte, iterations uint64, samples []AccessSample) [32]byte {
	var buf [8]byte

	fold := sha256.New()
	for _, sample := range samples {
		binary.BigEndian.PutUint64(buf[:], sample.Iteration)
		fold.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], sample.Offset)
		fold.Write(buf[:])
		fold.Write(sample.Value[:])
	}

	h := sha256.New()
	h.Write([]byte(finalizeTag))
	h.Write(input[:])
	binary.BigEndian.PutUint64(buf[:], iterations)
	h.Write(buf[:])
	h.Write(fold.Sum(nil))

	var out [32]byte
	h.Sum(out[:0])

	return out
}

// spotCheckEpochs derives which epochs a verifier replays. Epoch zero is
// always included; the rest are drawn from the input state by counter mode
// expansion, skipping duplicates.
func spotCheckEpochs(input [32]byte, policy Policy) []uint16 {
	chosen := map[uint16]bool{0: true}
	epochs := []uint16{0}

	var counter uint64
	for len(epochs) < int(policy.SpotChecks) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], counter)
		counter++

		h := sha256.New()
		h.Write([]byte(spotCheckTag))
		h.Write(input[:])
		h.Write(buf[:])

		epoch := uint16(binary.BigEndian.Uint64(h.Sum(nil)[:8]) % uint64(policy.SampleCount))
		if chosen[epoch] {
			continue
		}

		chosen[epoch] = true
		epochs = append(epochs, epoch)
	}

	return epochs
}
