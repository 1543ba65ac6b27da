package cmd

import (
	"fmt"
	"log"

	"github.com/medledger/blockchain/foundation/blockchain/perf"
	"github.com/spf13/cobra"
)

var (
	operation string
	workload  float64
	seed      int64
	targetTPS float64
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Run the performance model locally and print the CPU/GPU comparison.",
	Run:   estimateRun,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().StringVarP(&operation, "operation", "o", string(perf.OpMining), "Operation to model: sha256-mining or tree-hashing.")
	estimateCmd.Flags().Float64VarP(&workload, "workload", "w", 1_000_000, "Number of operations to model.")
	estimateCmd.Flags().Int64VarP(&seed, "seed", "s", 0, "Seed for reproducible jitter. 0 uses a random seed.")
	estimateCmd.Flags().Float64VarP(&targetTPS, "target-tps", "t", 0, "Target throughput to check against the GPU factor. 0 skips the check.")
}

func estimateRun(cmd *cobra.Command, args []string) {
	model, err := perf.New(perf.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	var cpu, gpu perf.BenchmarkResult
	if seed != 0 {
		cpu, gpu, err = model.Compare(perf.Operation(operation), workload, perf.WithSeed(seed))
	} else {
		cpu, gpu, err = model.Compare(perf.Operation(operation), workload)
	}
	if err != nil {
		log.Fatal(err)
	}

	costs := perf.DefaultCostModel().Costs(cpu, gpu)

	fmt.Printf("operation    : %s\n", operation)
	fmt.Printf("workload     : %.0f\n", workload)
	fmt.Printf("cpu          : %.0f ops/sec over %v\n", cpu.Throughput, cpu.Elapsed)
	fmt.Printf("gpu          : %.0f ops/sec over %v\n", gpu.Throughput, gpu.Elapsed)
	fmt.Printf("improvement  : %.1fx\n", perf.ImprovementFactor(cpu, gpu))
	fmt.Printf("cpu cost     : $%.4f\n", costs.CPUCost)
	fmt.Printf("gpu cost     : $%.4f\n", costs.GPUCost)
	fmt.Printf("cost ratio   : %.2f\n", costs.Ratio)

	if targetTPS > 0 {
		scale := perf.PredictScalability(cpu.Throughput, targetTPS, perf.ImprovementFactor(cpu, gpu))
		if scale.Achievable {
			fmt.Printf("target %.0f   : achievable with %.1fx headroom\n", targetTPS, scale.HeadroomFactor)
			return
		}
		fmt.Printf("target %.0f   : short by %.1fx\n", targetTPS, scale.ShortfallFactor)
	}
}
