package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ardanlabs/proofchain/foundation/continuity/genesis"
	"github.com/ardanlabs/proofchain/foundation/continuity/vdf"
	"github.com/spf13/cobra"
)

var calibrateFor time.Duration

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Measure the VDF iteration rate of this hardware",
	Run:   calibrateRun,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().DurationVarP(&calibrateFor, "duration", "d", 5*time.Second, "How long to run the calibration.")
}

func calibrateRun(cmd *cobra.Command, args []string) {
	gen, err := genesis.LoadFromFile(genesisPath)
	if err != nil {
		log.Fatal(err)
	}

	policy := vdf.Policy{
		MemoryBytes: gen.VdfMemoryBytes,
		SampleCount: gen.VdfSampleCount,
		SpotChecks:  gen.VdfSpotChecks,
	}

	fmt.Printf("Calibrating for %v with %d bytes of memory ...\n", calibrateFor, policy.MemoryBytes)

	rate, err := vdf.Calibrate(context.Background(), policy, calibrateFor)
	if err != nil {
		log.Fatal(err)
	}

	target := time.Duration(gen.VdfTargetSeconds) * time.Second
	iterations := vdf.IterationsForTarget(rate, target)

	fmt.Println("Iterations/sec       :", rate)
	fmt.Printf("Iterations for target: %d (%v)\n", iterations, target)
	fmt.Println("Set NODE_STATE_ITERATIONS_PER_SECOND to the measured rate.")
}
