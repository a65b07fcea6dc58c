package vdf_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/proofchain/foundation/continuity/vdf"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// testPolicy keeps the scratch buffer and iteration counts small enough for
// fast test runs while exercising every code path.
func testPolicy() vdf.Policy {
	return vdf.Policy{
		MemoryBytes: 64 << 10,
		SampleCount: 8,
		SpotChecks:  3,
	}
}

const testIterations = 4096

// =============================================================================

func Test_ProveVerify(t *testing.T) {
	input := sha256.Sum256([]byte("vdf input"))
	policy := testPolicy()

	t.Log("Given the need to prove and verify a memory hard delay.")
	{
		t.Logf("\tTest 0:\tWhen proving %d iterations.", testIterations)
		{
			proof, err := vdf.Prove(context.Background(), input, testIterations, policy)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to produce a proof: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to produce a proof.", success)

			if proof.InputState != input {
				t.Errorf("\t%s\tTest 0:\tShould carry the input state.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould carry the input state.", success)
			}

			if proof.Iterations != testIterations {
				t.Errorf("\t%s\tTest 0:\tShould carry the iteration count.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould carry the iteration count.", success)
			}

			if len(proof.MemoryAccessSamples) != int(policy.SampleCount) {
				t.Errorf("\t%s\tTest 0:\tShould record %d samples, got %d.", failed, policy.SampleCount, len(proof.MemoryAccessSamples))
			} else {
				t.Logf("\t%s\tTest 0:\tShould record %d samples.", success, policy.SampleCount)
			}

			if !vdf.Verify(proof, policy) {
				t.Fatalf("\t%s\tTest 0:\tShould verify an honest proof.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould verify an honest proof.", success)
		}

		t.Logf("\tTest 1:\tWhen proving the same input twice.")
		{
			a, err := vdf.Prove(context.Background(), input, testIterations, policy)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to produce a proof: %v", failed, err)
			}
			b, err := vdf.Prove(context.Background(), input, testIterations, policy)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to produce a proof: %v", failed, err)
			}

			if a.OutputState != b.OutputState {
				t.Errorf("\t%s\tTest 1:\tShould compute a deterministic output state.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould compute a deterministic output state.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen different inputs are proven.")
		{
			other := sha256.Sum256([]byte("other input"))

			a, err := vdf.Prove(context.Background(), input, testIterations, policy)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to produce a proof: %v", failed, err)
			}
			b, err := vdf.Prove(context.Background(), other, testIterations, policy)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to produce a proof: %v", failed, err)
			}

			if a.OutputState == b.OutputState {
				t.Errorf("\t%s\tTest 2:\tShould compute distinct outputs for distinct inputs.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould compute distinct outputs for distinct inputs.", success)
			}
		}
	}
}

func Test_VerifyRejections(t *testing.T) {
	input := sha256.Sum256([]byte("vdf input"))
	policy := testPolicy()

	proof, err := vdf.Prove(context.Background(), input, testIterations, policy)
	if err != nil {
		t.Fatalf("unable to produce proof: %v", err)
	}

	t.Log("Given the need to reject forged or tampered proofs.")
	{
		t.Logf("\tTest 0:\tWhen mutating proof fields.")
		{
			tampered := proof
			tampered.OutputState[0] ^= 0x01
			if vdf.Verify(tampered, policy) {
				t.Errorf("\t%s\tTest 0:\tShould reject a mutated output state.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould reject a mutated output state.", success)
			}

			tampered = proof
			tampered.InputState[0] ^= 0x01
			if vdf.Verify(tampered, policy) {
				t.Errorf("\t%s\tTest 0:\tShould reject a mutated input state.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould reject a mutated input state.", success)
			}

			tampered = proof
			tampered.Iterations++
			if vdf.Verify(tampered, policy) {
				t.Errorf("\t%s\tTest 0:\tShould reject a mutated iteration count.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould reject a mutated iteration count.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen mutating checkpoint samples.")
		{
			for i := range proof.MemoryAccessSamples {
				tampered := proof
				tampered.MemoryAccessSamples = make([]vdf.AccessSample, len(proof.MemoryAccessSamples))
				copy(tampered.MemoryAccessSamples, proof.MemoryAccessSamples)

				tampered.MemoryAccessSamples[i].Value[0] ^= 0x01
				if vdf.Verify(tampered, policy) {
					t.Errorf("\t%s\tTest 1:\tShould reject a mutated sample value at %d.", failed, i)
				}

				tampered.MemoryAccessSamples[i] = proof.MemoryAccessSamples[i]
				tampered.MemoryAccessSamples[i].Offset++
				if vdf.Verify(tampered, policy) {
					t.Errorf("\t%s\tTest 1:\tShould reject a mutated sample offset at %d.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould reject any mutated checkpoint sample.", success)

			tampered := proof
			tampered.MemoryAccessSamples = proof.MemoryAccessSamples[:len(proof.MemoryAccessSamples)-1]
			if vdf.Verify(tampered, policy) {
				t.Errorf("\t%s\tTest 1:\tShould reject a truncated sample list.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a truncated sample list.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen the policy does not match the prover's.")
		{
			bigger := policy
			bigger.MemoryBytes = 128 << 10
			if vdf.Verify(proof, bigger) {
				t.Errorf("\t%s\tTest 2:\tShould reject a proof under a different memory size.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject a proof under a different memory size.", success)
			}
		}

		t.Logf("\tTest 3:\tWhen the proof is malformed.")
		{
			if vdf.Verify(vdf.Proof{}, policy) {
				t.Errorf("\t%s\tTest 3:\tShould reject an empty proof.", failed)
			} else {
				t.Logf("\t%s\tTest 3:\tShould reject an empty proof.", success)
			}
		}
	}
}

func Test_ProveErrors(t *testing.T) {
	input := sha256.Sum256([]byte("vdf input"))
	policy := testPolicy()

	t.Log("Given the need to reject invalid proving requests.")
	{
		t.Logf("\tTest 0:\tWhen the iteration count is unusable.")
		{
			if _, err := vdf.Prove(context.Background(), input, 0, policy); !errors.Is(err, vdf.ErrZeroIterations) {
				t.Errorf("\t%s\tTest 0:\tShould reject zero iterations: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould reject zero iterations.", success)
			}

			if _, err := vdf.Prove(context.Background(), input, uint64(policy.SampleCount)-1, policy); err == nil {
				t.Errorf("\t%s\tTest 0:\tShould reject fewer iterations than samples.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould reject fewer iterations than samples.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the policy is unusable.")
		{
			bad := policy
			bad.SpotChecks = policy.SampleCount + 1
			if _, err := vdf.Prove(context.Background(), input, testIterations, bad); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject more spot checks than samples.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject more spot checks than samples.", success)
			}

			bad = policy
			bad.MemoryBytes = 16
			if _, err := vdf.Prove(context.Background(), input, testIterations, bad); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject an undersized scratch buffer.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject an undersized scratch buffer.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen the context is canceled mid proof.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := vdf.Prove(ctx, input, testIterations, policy); !errors.Is(err, context.Canceled) {
				t.Errorf("\t%s\tTest 2:\tShould return the context error: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould return the context error.", success)
			}
		}
	}
}

func Test_Calibration(t *testing.T) {
	policy := testPolicy()

	t.Log("Given the need to calibrate iteration counts for wall clock targets.")
	{
		t.Logf("\tTest 0:\tWhen measuring the local iteration rate.")
		{
			rate, err := vdf.Calibrate(context.Background(), policy, 150*time.Millisecond)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to calibrate: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to calibrate.", success)

			if rate == 0 {
				t.Errorf("\t%s\tTest 0:\tShould measure a non zero rate.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould measure a non zero rate.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the calibration window is too short.")
		{
			if _, err := vdf.Calibrate(context.Background(), policy, 10*time.Millisecond); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a too short calibration.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a too short calibration.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen converting a rate to an iteration count.")
		{
			if got := vdf.IterationsForTarget(1_000, 2*time.Second); got != 2_000 {
				t.Errorf("\t%s\tTest 2:\tShould compute 2000 iterations, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 2:\tShould compute 2000 iterations.", success)
			}

			if got := vdf.IterationsForTarget(0, time.Second); got != 1 {
				t.Errorf("\t%s\tTest 2:\tShould never return zero iterations, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 2:\tShould never return zero iterations.", success)
			}
		}
	}
}
