package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/medledger/blockchain/foundation/blockchain/merkle"
	"github.com/spf13/cobra"
)

var (
	blockNum uint64
	leaf     int
)

var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Fetch an inclusion proof from the node and verify it locally.",
	Run:   proveRun,
}

func init() {
	rootCmd.AddCommand(proveCmd)
	proveCmd.Flags().Uint64VarP(&blockNum, "block", "b", 1, "Block number holding the record.")
	proveCmd.Flags().IntVarP(&leaf, "leaf", "l", 0, "Leaf index of the record within the block.")
}

func proveRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/proof/%d/%d", url, blockNum, leaf))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("node returned status %s", resp.Status)
	}

	var proof merkle.Proof
	if err := json.NewDecoder(resp.Body).Decode(&proof); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("block        : %d\n", blockNum)
	fmt.Printf("leaf         : %d\n", leaf)
	fmt.Printf("path length  : %d\n", len(proof.Path))
	fmt.Printf("root         : %x\n", proof.Root)

	// The point of the proof is that verification needs nothing from the
	// node beyond the proof value itself.
	if merkle.VerifyProof(proof) {
		fmt.Println("proof        : VALID")
		return
	}

	fmt.Println("proof        : INVALID")
}
