// This program provides administrative tooling for a proving node. It can
// generate prover keys, calibrate the VDF for the local hardware, and run
// or verify proving rounds offline.
package main

import (
	"github.com/ardanlabs/proofchain/app/tooling/admin/cmd"
)

func main() {
	cmd.Execute()
}
