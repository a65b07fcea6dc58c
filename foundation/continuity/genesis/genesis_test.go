package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/proofchain/foundation/continuity/genesis"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const goodGenesis = `{
	"date": "2026-01-01T00:00:00Z",
	"network_id": 1,
	"chunks_per_block": 16,
	"chunk_size_bytes": 4096,
	"vdf_target_seconds": 25,
	"vdf_memory_bytes": 268435456,
	"vdf_sample_count": 16,
	"vdf_spot_checks": 3,
	"challenge_probability": 0.1,
	"chains_per_group": 1000
}`

// =============================================================================

func Test_Load(t *testing.T) {
	t.Log("Given the need to load consensus parameters from disk.")
	{
		t.Logf("\tTest 0:\tWhen the file is well formed.")
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(goodGenesis), 0644); err != nil {
				t.Fatalf("unable to write genesis file: %v", err)
			}

			gen, err := genesis.LoadFromFile(path)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the file: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the file.", success)

			if gen.ChunksPerBlock != 16 || gen.ChunkSizeBytes != 4096 {
				t.Errorf("\t%s\tTest 0:\tShould carry the chunk parameters.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould carry the chunk parameters.", success)
			}

			if gen.VdfMemoryBytes != 268435456 || gen.VdfSampleCount != 16 || gen.VdfSpotChecks != 3 {
				t.Errorf("\t%s\tTest 0:\tShould carry the vdf parameters.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould carry the vdf parameters.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the file is missing or malformed.")
		{
			if _, err := genesis.LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject a missing file.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject a missing file.", success)
			}

			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
				t.Fatalf("unable to write genesis file: %v", err)
			}
			if _, err := genesis.LoadFromFile(path); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject malformed json.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject malformed json.", success)
			}
		}
	}
}

func Test_Validate(t *testing.T) {
	good := genesis.Genesis{
		NetworkID:            1,
		ChunksPerBlock:       16,
		ChunkSizeBytes:       4096,
		VdfTargetSeconds:     25,
		VdfMemoryBytes:       1 << 20,
		VdfSampleCount:       16,
		VdfSpotChecks:        3,
		ChallengeProbability: 0.1,
		ChainsPerGroup:       1000,
	}

	t.Log("Given the need to refuse unusable consensus parameters.")
	{
		t.Logf("\tTest 0:\tWhen the parameters are complete.")
		{
			if err := good.Validate(); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould accept usable parameters: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould accept usable parameters.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen single parameters are out of range.")
		{
			cases := map[string]func(g *genesis.Genesis){
				"zero chunks per block": func(g *genesis.Genesis) { g.ChunksPerBlock = 0 },
				"zero chunk size":       func(g *genesis.Genesis) { g.ChunkSizeBytes = 0 },
				"zero vdf target":       func(g *genesis.Genesis) { g.VdfTargetSeconds = 0 },
				"tiny vdf memory":       func(g *genesis.Genesis) { g.VdfMemoryBytes = 1024 },
				"zero sample count":     func(g *genesis.Genesis) { g.VdfSampleCount = 0 },
				"zero spot checks":      func(g *genesis.Genesis) { g.VdfSpotChecks = 0 },
				"excess spot checks":    func(g *genesis.Genesis) { g.VdfSpotChecks = g.VdfSampleCount + 1 },
				"zero challenge":        func(g *genesis.Genesis) { g.ChallengeProbability = 0 },
				"excess challenge":      func(g *genesis.Genesis) { g.ChallengeProbability = 1.5 },
				"zero chains per group": func(g *genesis.Genesis) { g.ChainsPerGroup = 0 },
			}

			for name, mutate := range cases {
				g := good
				mutate(&g)
				if err := g.Validate(); err == nil {
					t.Errorf("\t%s\tTest 1:\tShould reject %s.", failed, name)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould reject every out of range parameter.", success)
		}
	}
}
