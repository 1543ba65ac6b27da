// Package perf implements the performance model used to contrast modeled
// CPU and GPU throughput for the blockchain workloads. Nothing here measures
// real hardware. Rates are configuration and the GPU rates are fixed
// multiples of the CPU rates, reflecting published acceleration ranges of
// roughly 5x-40x for bulk hashing style work and 50x-500x for proof of work
// search.
package perf

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Set of profile names the model reports on.
const (
	ProfileCPU = "CPU"
	ProfileGPU = "GPU"
)

// Operation identifies the kind of work being estimated. Collaborators can
// register their own kinds through the model configuration.
type Operation string

// Set of operations the core workloads use.
const (
	OpMining  Operation = "sha256-mining"
	OpHashing Operation = "tree-hashing"
)

// ErrUnknownProfile is returned when an estimate names a profile the model
// has no rate table for.
var ErrUnknownProfile = errors.New("unknown performance profile")

// ErrUnknownOperation is returned when an estimate names an operation the
// profile has no base rate for.
var ErrUnknownOperation = errors.New("unknown operation kind")

// =============================================================================

// Rate describes the modeled throughput for one operation: a base rate in
// workload units per second and how efficiency improves as the workload
// grows, capped at MaxGain once GainSpan units are in flight.
type Rate struct {
	Base     float64
	MaxGain  float64
	GainSpan float64
}

// efficiency returns the workload dependent multiplier on the base rate.
// It never decreases as the workload grows.
func (r Rate) efficiency(workload float64) float64 {
	if r.MaxGain <= 1 || r.GainSpan <= 0 {
		return 1
	}

	gain := 1 + (workload/r.GainSpan)*(r.MaxGain-1)
	if gain > r.MaxGain {
		return r.MaxGain
	}
	return gain
}

// Profile is a named, immutable rate table with a jitter bound.
type Profile struct {
	Name        string
	Rates       map[Operation]Rate
	JitterBound float64
}

// BenchmarkResult is the pure output value of one estimate.
type BenchmarkResult struct {
	Operation  Operation     `json:"operation"`
	Workload   float64       `json:"workload"`
	Profile    string        `json:"profile"`
	Throughput float64       `json:"throughput"`
	Elapsed    time.Duration `json:"elapsed"`
}

// =============================================================================

// Config holds the adjustable parameters for the model. The GPU rate for an
// operation is the CPU base rate times the configured multiplier, never an
// independent number.
type Config struct {
	CPURates       map[Operation]Rate
	GPUMultipliers map[Operation]float64
	GPUGains       map[Operation]Rate
	JitterBound    float64
	Seed           int64
}

// DefaultConfig returns the rate table used by the demonstrator: mining in
// hashes per second, tree hashing in records per second.
func DefaultConfig() Config {
	return Config{
		CPURates: map[Operation]Rate{
			OpMining:  {Base: 3_000_000, MaxGain: 1.1, GainSpan: 10_000_000},
			OpHashing: {Base: 75_000, MaxGain: 1.2, GainSpan: 1_000_000},
		},
		GPUMultipliers: map[Operation]float64{
			OpMining:  150, // Within the published 50x-500x range.
			OpHashing: 15,  // Within the published 5x-40x range.
		},
		GPUGains: map[Operation]Rate{
			OpMining:  {MaxGain: 1.5, GainSpan: 5_000_000},
			OpHashing: {MaxGain: 2.0, GainSpan: 500_000},
		},
		JitterBound: 0.10,
	}
}

// Model holds the CPU and GPU profiles and answers estimates. The profiles
// are read only after construction and safe for concurrent use.
type Model struct {
	profiles map[string]Profile
	seed     int64
}

// New constructs a model from the specified configuration, deriving the GPU
// profile from the CPU rates and the configured multipliers.
func New(cfg Config) (*Model, error) {
	if cfg.JitterBound < 0 || cfg.JitterBound >= 1 {
		return nil, fmt.Errorf("jitter bound %v must be in [0,1)", cfg.JitterBound)
	}

	cpu := Profile{
		Name:        ProfileCPU,
		Rates:       make(map[Operation]Rate),
		JitterBound: cfg.JitterBound,
	}
	gpu := Profile{
		Name:        ProfileGPU,
		Rates:       make(map[Operation]Rate),
		JitterBound: cfg.JitterBound,
	}

	// The multiplier floor guarantees GPU throughput beats CPU throughput
	// for every operation even when jitter favors the CPU draw.
	floor := (1 + cfg.JitterBound) / (1 - cfg.JitterBound)

	for op, rate := range cfg.CPURates {
		mult, exists := cfg.GPUMultipliers[op]
		if !exists {
			return nil, fmt.Errorf("operation %q has no gpu multiplier", op)
		}
		if mult <= floor {
			return nil, fmt.Errorf("gpu multiplier %v for %q must exceed %v", mult, op, floor)
		}

		cpu.Rates[op] = rate

		gain := Rate{MaxGain: rate.MaxGain, GainSpan: rate.GainSpan}
		if g, exists := cfg.GPUGains[op]; exists {
			gain = g
		}
		gpu.Rates[op] = Rate{
			Base:     rate.Base * mult,
			MaxGain:  gain.MaxGain,
			GainSpan: gain.GainSpan,
		}
	}

	m := Model{
		profiles: map[string]Profile{
			ProfileCPU: cpu,
			ProfileGPU: gpu,
		},
		seed: cfg.Seed,
	}

	return &m, nil
}

// =============================================================================

// WithSeed fixes the jitter source so an estimate is reproducible.
func WithSeed(seed int64) func(c *estimateConfig) {
	return func(c *estimateConfig) {
		c.seeded = true
		c.seed = seed
	}
}

// WithoutJitter removes the random perturbation entirely.
func WithoutJitter() func(c *estimateConfig) {
	return func(c *estimateConfig) {
		c.noJitter = true
	}
}

type estimateConfig struct {
	seeded   bool
	seed     int64
	noJitter bool
}

// Estimate models the throughput and elapsed time for running the specified
// workload under the named profile. The throughput is the base rate scaled
// by the workload efficiency and perturbed by a bounded symmetric jitter.
func (m *Model) Estimate(op Operation, workload float64, profileName string, options ...func(c *estimateConfig)) (BenchmarkResult, error) {
	var c estimateConfig
	for _, option := range options {
		option(&c)
	}

	profile, exists := m.profiles[profileName]
	if !exists {
		return BenchmarkResult{}, fmt.Errorf("profile %q: %w", profileName, ErrUnknownProfile)
	}

	rate, exists := profile.Rates[op]
	if !exists {
		return BenchmarkResult{}, fmt.Errorf("operation %q: %w", op, ErrUnknownOperation)
	}

	if workload < 0 {
		return BenchmarkResult{}, fmt.Errorf("workload %v must not be negative", workload)
	}

	jitter := 0.0
	if !c.noJitter && profile.JitterBound > 0 {
		seed := m.seed
		if c.seeded {
			seed = c.seed
		}
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		rnd := rand.New(rand.NewSource(seed))
		jitter = (rnd.Float64()*2 - 1) * profile.JitterBound
	}

	throughput := rate.Base * rate.efficiency(workload) * (1 + jitter)

	br := BenchmarkResult{
		Operation:  op,
		Workload:   workload,
		Profile:    profileName,
		Throughput: throughput,
		Elapsed:    time.Duration(workload / throughput * float64(time.Second)),
	}

	return br, nil
}

// Compare runs the same estimate under both profiles with the same options
// so the pair can feed a side by side chart.
func (m *Model) Compare(op Operation, workload float64, options ...func(c *estimateConfig)) (cpu BenchmarkResult, gpu BenchmarkResult, err error) {
	cpu, err = m.Estimate(op, workload, ProfileCPU, options...)
	if err != nil {
		return BenchmarkResult{}, BenchmarkResult{}, err
	}

	gpu, err = m.Estimate(op, workload, ProfileGPU, options...)
	if err != nil {
		return BenchmarkResult{}, BenchmarkResult{}, err
	}

	return cpu, gpu, nil
}

// Profiles returns a copy of the configured profiles for display.
func (m *Model) Profiles() []Profile {
	var ps []Profile
	for _, name := range []string{ProfileCPU, ProfileGPU} {
		p := m.profiles[name]

		cp := Profile{
			Name:        p.Name,
			Rates:       make(map[Operation]Rate, len(p.Rates)),
			JitterBound: p.JitterBound,
		}
		for op, rate := range p.Rates {
			cp.Rates[op] = rate
		}
		ps = append(ps, cp)
	}

	return ps
}

// =============================================================================

// improvementCap bounds the reported acceleration factor.
const improvementCap = 100

// ImprovementFactor reports how many times faster the gpu result is over
// the cpu result, capped so a degenerate gpu timing can't produce a wild
// number.
func ImprovementFactor(cpu BenchmarkResult, gpu BenchmarkResult) float64 {
	if gpu.Elapsed <= 0 {
		return improvementCap
	}

	improvement := float64(cpu.Elapsed) / float64(gpu.Elapsed)
	if improvement > improvementCap {
		return improvementCap
	}
	return improvement
}

// Scalability is the answer to whether a target transaction rate is
// reachable with the specified acceleration factor.
type Scalability struct {
	Achievable      bool    `json:"achievable"`
	CurrentCPUTPS   float64 `json:"current_cpu_tps"`
	CurrentGPUTPS   float64 `json:"current_gpu_tps"`
	TargetTPS       float64 `json:"target_tps"`
	HeadroomFactor  float64 `json:"headroom_factor,omitempty"`
	ShortfallFactor float64 `json:"shortfall_factor,omitempty"`
}

// PredictScalability projects the current modeled rate through the
// acceleration factor and reports headroom against the target.
func PredictScalability(currentTPS float64, targetTPS float64, factor float64) Scalability {
	gpuTPS := currentTPS * factor

	s := Scalability{
		CurrentCPUTPS: currentTPS,
		CurrentGPUTPS: gpuTPS,
		TargetTPS:     targetTPS,
	}

	if gpuTPS >= targetTPS {
		s.Achievable = true
		if targetTPS > 0 {
			s.HeadroomFactor = gpuTPS / targetTPS
		}
		return s
	}

	if gpuTPS > 0 {
		s.ShortfallFactor = targetTPS / gpuTPS
	}
	return s
}

// CostModel carries the per hour prices used for the cost comparison.
type CostModel struct {
	CPUPerHour float64
	GPUPerHour float64
}

// DefaultCostModel reflects that GPU time costs more per hour but finishes
// far sooner.
func DefaultCostModel() CostModel {
	return CostModel{CPUPerHour: 0.50, GPUPerHour: 2.00}
}

// CostEfficiency is the dollar comparison for one pair of modeled runs.
type CostEfficiency struct {
	CPUCost float64 `json:"cpu_cost_dollars"`
	GPUCost float64 `json:"gpu_cost_dollars"`
	Savings float64 `json:"cost_savings_dollars"`
	Ratio   float64 `json:"cost_efficiency_ratio"`
}

// Costs prices the two modeled elapsed times under the cost model.
func (cm CostModel) Costs(cpu BenchmarkResult, gpu BenchmarkResult) CostEfficiency {
	cpuCost := cpu.Elapsed.Hours() * cm.CPUPerHour
	gpuCost := gpu.Elapsed.Hours() * cm.GPUPerHour

	ce := CostEfficiency{
		CPUCost: cpuCost,
		GPUCost: gpuCost,
		Savings: cpuCost - gpuCost,
	}
	if gpuCost > 0 {
		ce.Ratio = cpuCost / gpuCost
	}

	return ce
}
