package perf_test

import (
	"errors"
	"testing"

	"github.com/medledger/blockchain/foundation/blockchain/perf"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_EstimateReproducible(t *testing.T) {
	t.Log("Given the need to produce reproducible estimates from a fixed seed.")
	{
		m, err := perf.New(perf.DefaultConfig())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the model: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct the model.", success)

		first, err := m.Estimate(perf.OpMining, 1_000_000, perf.ProfileCPU, perf.WithSeed(42))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to estimate: %v", failed, err)
		}

		second, err := m.Estimate(perf.OpMining, 1_000_000, perf.ProfileCPU, perf.WithSeed(42))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to estimate: %v", failed, err)
		}

		if first.Throughput != second.Throughput || first.Elapsed != second.Elapsed {
			t.Errorf("\t%s\tShould produce identical results for the same seed.", failed)
		} else {
			t.Logf("\t%s\tShould produce identical results for the same seed.", success)
		}

		third, err := m.Estimate(perf.OpMining, 1_000_000, perf.ProfileCPU, perf.WithSeed(43))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to estimate: %v", failed, err)
		}
		if third.Throughput == first.Throughput {
			t.Errorf("\t%s\tShould produce a different draw for a different seed.", failed)
		} else {
			t.Logf("\t%s\tShould produce a different draw for a different seed.", success)
		}
	}
}

func Test_EstimateMonotonic(t *testing.T) {
	t.Log("Given the need for elapsed time to grow with the workload.")
	{
		m, err := perf.New(perf.DefaultConfig())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the model: %v", failed, err)
		}

		for _, profile := range []string{perf.ProfileCPU, perf.ProfileGPU} {
			for _, op := range []perf.Operation{perf.OpMining, perf.OpHashing} {
				prev, err := m.Estimate(op, 1, profile, perf.WithoutJitter())
				if err != nil {
					t.Fatalf("\t%s\tShould be able to estimate: %v", failed, err)
				}

				for _, workload := range []float64{10, 1_000, 100_000, 10_000_000} {
					br, err := m.Estimate(op, workload, profile, perf.WithoutJitter())
					if err != nil {
						t.Fatalf("\t%s\tShould be able to estimate: %v", failed, err)
					}
					if br.Elapsed <= prev.Elapsed {
						t.Errorf("\t%s\tShould report longer elapsed for %v under %s/%s.", failed, workload, profile, op)
					}
					if br.Throughput < prev.Throughput {
						t.Errorf("\t%s\tShould not report lower throughput for %v under %s/%s.", failed, workload, profile, op)
					}
					prev = br
				}
			}
		}
		t.Logf("\t%s\tShould report elapsed growing with workload for every profile and operation.", success)
	}
}

func Test_GPUBeatsCPU(t *testing.T) {
	t.Log("Given the need for modeled GPU throughput to exceed CPU throughput.")
	{
		m, err := perf.New(perf.DefaultConfig())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the model: %v", failed, err)
		}

		for _, op := range []perf.Operation{perf.OpMining, perf.OpHashing} {
			for _, workload := range []float64{1, 1_000, 1_000_000} {
				for seed := int64(1); seed <= 25; seed++ {
					cpu, gpu, err := m.Compare(op, workload, perf.WithSeed(seed))
					if err != nil {
						t.Fatalf("\t%s\tShould be able to compare: %v", failed, err)
					}
					if gpu.Throughput <= cpu.Throughput {
						t.Errorf("\t%s\tShould model faster GPU for %s at %v with seed %d.", failed, op, workload, seed)
					}
				}
			}
		}
		t.Logf("\t%s\tShould model faster GPU for every operation, workload, and seed.", success)
	}
}

func Test_EstimateErrors(t *testing.T) {
	t.Log("Given the need to reject unknown profiles and operations.")
	{
		m, err := perf.New(perf.DefaultConfig())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the model: %v", failed, err)
		}

		if _, err := m.Estimate(perf.OpMining, 100, "TPU"); !errors.Is(err, perf.ErrUnknownProfile) {
			t.Errorf("\t%s\tShould reject an unknown profile, got %v.", failed, err)
		} else {
			t.Logf("\t%s\tShould reject an unknown profile.", success)
		}

		if _, err := m.Estimate("quantum-annealing", 100, perf.ProfileCPU); !errors.Is(err, perf.ErrUnknownOperation) {
			t.Errorf("\t%s\tShould reject an unknown operation, got %v.", failed, err)
		} else {
			t.Logf("\t%s\tShould reject an unknown operation.", success)
		}
	}
}

func Test_ConfigValidation(t *testing.T) {
	t.Log("Given the need to reject degenerate model configuration.")
	{
		cfg := perf.DefaultConfig()
		cfg.JitterBound = 1.0
		if _, err := perf.New(cfg); err == nil {
			t.Errorf("\t%s\tShould reject a jitter bound of 1.", failed)
		} else {
			t.Logf("\t%s\tShould reject a jitter bound of 1.", success)
		}

		cfg = perf.DefaultConfig()
		cfg.GPUMultipliers[perf.OpMining] = 1.0
		if _, err := perf.New(cfg); err == nil {
			t.Errorf("\t%s\tShould reject a multiplier below the jitter floor.", failed)
		} else {
			t.Logf("\t%s\tShould reject a multiplier below the jitter floor.", success)
		}

		cfg = perf.DefaultConfig()
		delete(cfg.GPUMultipliers, perf.OpHashing)
		if _, err := perf.New(cfg); err == nil {
			t.Errorf("\t%s\tShould reject a missing multiplier.", failed)
		} else {
			t.Logf("\t%s\tShould reject a missing multiplier.", success)
		}
	}
}

func Test_ImprovementAndScalability(t *testing.T) {
	t.Log("Given the need to report acceleration and scalability numbers.")
	{
		m, err := perf.New(perf.DefaultConfig())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the model: %v", failed, err)
		}

		cpu, gpu, err := m.Compare(perf.OpMining, 10_000_000, perf.WithoutJitter())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compare: %v", failed, err)
		}

		factor := perf.ImprovementFactor(cpu, gpu)
		if factor <= 1 || factor > 100 {
			t.Errorf("\t%s\tShould report an improvement factor in (1,100], got %v.", failed, factor)
		} else {
			t.Logf("\t%s\tShould report an improvement factor in (1,100].", success)
		}

		if got := perf.ImprovementFactor(cpu, perf.BenchmarkResult{}); got != 100 {
			t.Errorf("\t%s\tShould cap the factor at 100 for a zero timing, got %v.", failed, got)
		} else {
			t.Logf("\t%s\tShould cap the factor at 100 for a zero timing.", success)
		}

		s := perf.PredictScalability(100, 5_000, 150)
		if !s.Achievable || s.HeadroomFactor != 3 {
			t.Errorf("\t%s\tShould report an achievable target with 3x headroom, got %+v.", failed, s)
		} else {
			t.Logf("\t%s\tShould report an achievable target with 3x headroom.", success)
		}

		s = perf.PredictScalability(100, 50_000, 150)
		if s.Achievable || s.ShortfallFactor <= 1 {
			t.Errorf("\t%s\tShould report an unachievable target with a shortfall, got %+v.", failed, s)
		} else {
			t.Logf("\t%s\tShould report an unachievable target with a shortfall.", success)
		}
	}
}

func Test_CostEfficiency(t *testing.T) {
	t.Log("Given the need to price modeled CPU and GPU runs.")
	{
		m, err := perf.New(perf.DefaultConfig())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the model: %v", failed, err)
		}

		cpu, gpu, err := m.Compare(perf.OpHashing, 50_000_000, perf.WithoutJitter())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compare: %v", failed, err)
		}

		ce := perf.DefaultCostModel().Costs(cpu, gpu)
		if ce.CPUCost <= ce.GPUCost {
			t.Errorf("\t%s\tShould report the slower CPU run costing more, got %+v.", failed, ce)
		} else {
			t.Logf("\t%s\tShould report the slower CPU run costing more.", success)
		}
		if ce.Savings != ce.CPUCost-ce.GPUCost {
			t.Errorf("\t%s\tShould report savings as the cost difference.", failed)
		} else {
			t.Logf("\t%s\tShould report savings as the cost difference.", success)
		}
	}
}
