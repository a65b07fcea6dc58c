package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ardanlabs/proofchain/foundation/continuity/commitment"
	"github.com/ardanlabs/proofchain/foundation/continuity/devnet"
	"github.com/ardanlabs/proofchain/foundation/continuity/genesis"
	"github.com/ardanlabs/proofchain/foundation/continuity/verifier"
	"github.com/spf13/cobra"
)

var (
	verifyIn          string
	verifyTotalChunks uint64
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a commitment file end to end",
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyIn, "in", "i", "commitment.json", "Commitment file to verify.")
	verifyCmd.Flags().Uint64VarP(&verifyTotalChunks, "total-chunks", "t", 0, "Total chunks in the prover's data file.")
}

func verifyRun(cmd *cobra.Command, args []string) {
	gen, err := genesis.LoadFromFile(genesisPath)
	if err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile(verifyIn)
	if err != nil {
		log.Fatal(err)
	}

	var signed commitment.SignedCommitment
	if err := json.Unmarshal(data, &signed); err != nil {
		log.Fatal(err)
	}

	if verifyTotalChunks == 0 {
		log.Fatal("total-chunks is required")
	}

	if err := signed.VerifySignature(); err != nil {
		log.Fatal("signature check failed: ", err)
	}

	// The committed height pins the block hash on the development chain.
	chain := devnet.NewChain(gen.NetworkID, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	blockHash, err := chain.BlockHash(signed.BlockHeight)
	if err != nil {
		log.Fatal(err)
	}

	vfr, err := verifier.New(gen)
	if err != nil {
		log.Fatal(err)
	}

	if err := vfr.VerifyFull(signed.StorageCommitment, signed.ProverKey, blockHash, verifyTotalChunks); err != nil {
		log.Fatal("verification failed: ", err)
	}

	fmt.Println("Commitment verified")
}
