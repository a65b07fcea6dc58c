// Package state is the core API for proof of storage continuity and
// implements all the business rules and processing.
package state

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/proofchain/foundation/continuity/commitment"
	"github.com/ardanlabs/proofchain/foundation/continuity/genesis"
	"github.com/ardanlabs/proofchain/foundation/continuity/hierarchy"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ardanlabs/proofchain/foundation/continuity/vdf"
	"github.com/ardanlabs/proofchain/foundation/continuity/verifier"
)

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of proving rounds.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for background proving rounds.
type Worker interface {
	Shutdown()
	SignalStartProving()
	SignalCancelProving()
}

// =============================================================================

// BlockchainSource represents the behavior required of the external
// blockchain collaborator. The core consumes it and never implements it;
// any async plumbing lives outside the core.
type BlockchainSource interface {
	CurrentHeight() (uint64, error)
	BlockHash(height uint64) ([32]byte, error)
	EntropySource() ([]byte, error)
}

// BeaconSource represents the behavior required of an optional external
// randomness beacon.
type BeaconSource interface {
	Entropy() ([]byte, error)
}

// ChunkSource represents the behavior required for chunk level access to
// the prover's stored data. The core only consumes already fetched bytes.
type ChunkSource interface {
	TotalChunks() uint64
	DataHash() [32]byte
	ReadChunk(index uint64) ([]byte, error)
}

// =============================================================================

// defaultIterationsPerSecond is a conservative reference hardware rate
// used when the node starts without a calibrated value.
const defaultIterationsPerSecond = 1_500_000

// Config represents the configuration required to start the proving node.
type Config struct {
	ChainID             string
	PrivateKey          *ecdsa.PrivateKey
	Params              genesis.Genesis
	Blockchain          BlockchainSource
	Beacon              BeaconSource // Optional.
	Chunks              ChunkSource
	IterationsPerSecond uint64 // Calibrated VDF rate; zero selects the reference default.
	EvHandler           EventHandler
}

// State manages the proving pipeline and owns the aggregation hierarchy.
type State struct {
	chainID    string
	privateKey *ecdsa.PrivateKey
	proverKey  signature.ProverKey
	params     genesis.Genesis
	policy     vdf.Policy
	iterations uint64
	blockchain BlockchainSource
	beacon     BeaconSource
	chunks     ChunkSource
	evHandler  EventHandler

	mu               sync.Mutex
	latestCommitment commitment.StorageCommitment
	haveCommitment   bool

	hierarchy *hierarchy.Manager
	verifier  *verifier.Verifier

	Worker Worker
}

// New constructs the state for managing proof of storage continuity.
func New(cfg Config) (*State, error) {
	if cfg.ChainID == "" {
		return nil, errors.New("chain id is required")
	}
	if cfg.PrivateKey == nil {
		return nil, errors.New("private key is required")
	}
	if cfg.Blockchain == nil {
		return nil, errors.New("blockchain source is required")
	}
	if cfg.Chunks == nil {
		return nil, errors.New("chunk source is required")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consensus parameters: %w", err)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	mgr, err := hierarchy.New(hierarchy.Config{
		ChainsPerGroup:  cfg.Params.ChainsPerGroup,
		GroupsPerRegion: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing hierarchy: %w", err)
	}

	vfr, err := verifier.New(cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("constructing verifier: %w", err)
	}

	rate := cfg.IterationsPerSecond
	if rate == 0 {
		rate = defaultIterationsPerSecond
	}

	state := State{
		chainID:    cfg.ChainID,
		privateKey: cfg.PrivateKey,
		proverKey:  signature.PublicKeyToProverKey(&cfg.PrivateKey.PublicKey),
		params:     cfg.Params,
		policy: vdf.Policy{
			MemoryBytes: cfg.Params.VdfMemoryBytes,
			SampleCount: cfg.Params.VdfSampleCount,
			SpotChecks:  cfg.Params.VdfSpotChecks,
		},
		iterations: vdf.IterationsForTarget(rate, time.Duration(cfg.Params.VdfTargetSeconds)*time.Second),
		blockchain: cfg.Blockchain,
		beacon:     cfg.Beacon,
		chunks:     cfg.Chunks,
		evHandler:  ev,
		hierarchy:  mgr,
		verifier:   vfr,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
