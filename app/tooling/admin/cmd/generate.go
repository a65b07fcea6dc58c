package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/proofchain/foundation/continuity/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new prover key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	if err := crypto.SaveECDSA(getPrivateKeyPath(), privateKey); err != nil {
		log.Fatal(err)
	}

	proverKey := signature.PublicKeyToProverKey(&privateKey.PublicKey)
	fmt.Println("Key File  :", getPrivateKeyPath())
	fmt.Println("Prover Key:", signature.HashHex(proverKey))
}
