package state

import (
	"context"
	"errors"

	"github.com/medledger/blockchain/foundation/blockchain/database"
	"github.com/medledger/blockchain/foundation/blockchain/perf"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no pending records.
var ErrNoTransactions = errors.New("no pending records in mempool")

// MiningReport carries the appended block snapshot, what the nonce search
// actually did, and the modeled CPU and GPU timings for a search of that
// size. The modeled numbers are what the comparison charts consume; the
// real numbers exist so the two are never confused.
type MiningReport struct {
	Block       database.BlockData   `json:"block"`
	Stats       database.MiningStats `json:"stats"`
	CPU         perf.BenchmarkResult `json:"cpu"`
	GPU         perf.BenchmarkResult `json:"gpu"`
	Improvement float64              `json:"improvement"`
}

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (MiningReport, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough records in the pool.
	if s.mempool.Count() == 0 {
		return MiningReport{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))

	powCfg := database.PowConfig{
		Difficulty:  s.genesis.Difficulty,
		MaxAttempts: s.genesis.MaxMineAttempts,
	}

	block, stats, err := database.POW(ctx, powCfg, s.db.LatestBlock(), trans, s.evHandler)
	if err != nil {
		return MiningReport{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return MiningReport{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.updateLocalState(block); err != nil {
		return MiningReport{}, err
	}

	// Model what this search would have cost on each profile. The modeled
	// duration is separate from the trivial wall clock of the simulated
	// search.
	cpu, gpu, err := s.model.Compare(perf.OpMining, float64(stats.Attempts))
	if err != nil {
		return MiningReport{}, err
	}

	report := MiningReport{
		Block:       database.NewBlockData(block),
		Stats:       stats,
		CPU:         cpu,
		GPU:         gpu,
		Improvement: perf.ImprovementFactor(cpu, gpu),
	}

	s.evHandler("state: MineNewBlock: MINING: modeled cpu[%v] gpu[%v] improvement[%.1fx]", cpu.Elapsed, gpu.Elapsed, report.Improvement)

	return report, nil
}

// =============================================================================

// updateLocalState takes the mined block and updates the current state of
// the chain. Appends are serialized through the state mutex.
func (s *State) updateLocalState(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateLocalState: write block to the chain")

	// Append the new block to the chain arena. A stale candidate is
	// surfaced to the caller for a recompute and retry.
	if err := s.db.Write(block); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: remove mined records from mempool")

	for _, tx := range block.Trans.Values() {
		s.evHandler("state: updateLocalState: tx[%s] remove", tx)
		s.mempool.Delete(tx)
	}

	return nil
}
