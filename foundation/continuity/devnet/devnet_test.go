package devnet_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/ardanlabs/proofchain/foundation/continuity/devnet"
)

func Test_Determinism(t *testing.T) {
	genesis := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	a := devnet.NewChain(1, genesis)
	b := devnet.NewChain(1, genesis)

	ha, err := a.BlockHash(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hb, err := b.BlockHash(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ha != hb {
		t.Error("expected identical block hashes for the same network")
	}

	other := devnet.NewChain(2, genesis)
	ho, err := other.BlockHash(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ha == ho {
		t.Error("expected different block hashes for different networks")
	}

	hNext, err := a.BlockHash(101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ha == hNext {
		t.Error("expected different block hashes for different heights")
	}

	src, err := a.EntropySource()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src) != 32 {
		t.Errorf("expected 32 entropy bytes, got %d", len(src))
	}

	beacon := devnet.NewBeacon(a)
	be, err := beacon.Entropy()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(be) != 32 || bytes.Equal(be, src) {
		t.Error("expected 32 beacon bytes distinct from the chain entropy")
	}
}
