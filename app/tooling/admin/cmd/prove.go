package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ardanlabs/proofchain/foundation/continuity/devnet"
	"github.com/ardanlabs/proofchain/foundation/continuity/genesis"
	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ardanlabs/proofchain/foundation/continuity/state"
	"github.com/ardanlabs/proofchain/foundation/continuity/storage"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	proveDataPath string
	proveRate     uint64
	proveOut      string
)

var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Run one proving round offline and write the commitment",
	Run:   proveRun,
}

func init() {
	rootCmd.AddCommand(proveCmd)
	proveCmd.Flags().StringVarP(&proveDataPath, "data", "f", "zblock/data.bin", "Path to the data file to prove.")
	proveCmd.Flags().Uint64VarP(&proveRate, "rate", "r", 0, "Calibrated VDF iterations per second. Zero uses the reference default.")
	proveCmd.Flags().StringVarP(&proveOut, "out", "o", "commitment.json", "File to write the commitment to.")
}

func proveRun(cmd *cobra.Command, args []string) {
	gen, err := genesis.LoadFromFile(genesisPath)
	if err != nil {
		log.Fatal(err)
	}

	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	chunks, err := storage.NewDisk(proveDataPath, gen.ChunkSizeBytes)
	if err != nil {
		log.Fatal(err)
	}
	defer chunks.Close()

	chain := devnet.NewChain(gen.NetworkID, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	st, err := state.New(state.Config{
		ChainID:             "admin",
		PrivateKey:          privateKey,
		Params:              gen,
		Blockchain:          chain,
		Beacon:              devnet.NewBeacon(chain),
		Chunks:              chunks,
		IterationsPerSecond: proveRate,
		EvHandler: func(v string, args ...any) {
			fmt.Printf(v+"\n", args...)
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	sc, err := st.ProveRound(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	signed, err := st.SignCommitment(sc)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.MarshalIndent(signed, "", "  ")
	if err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(proveOut, data, 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Commitment  :", signature.HashHex(sc.CommitmentHash))
	fmt.Println("Block Height:", sc.BlockHeight)
	fmt.Println("VDF Time    :", time.Duration(sc.VdfProof.ComputationTimeMs)*time.Millisecond)
	fmt.Println("Written To  :", proveOut)
}
