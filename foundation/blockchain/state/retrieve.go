package state

import (
	"github.com/medledger/blockchain/foundation/blockchain/database"
	"github.com/medledger/blockchain/foundation/blockchain/genesis"
	"github.com/medledger/blockchain/foundation/blockchain/perf"
)

// ChainStats is a snapshot of the chain for display.
type ChainStats struct {
	Height     uint64 `json:"height"`
	LatestHash string `json:"latest_hash"`
	Valid      bool   `json:"valid"`
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy of the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveBlocks returns snapshots of the blocks in the specified inclusive
// range.
func (s *State) RetrieveBlocks(from uint64, to uint64) []database.BlockData {
	return s.db.CopyBlocks(from, to)
}

// RetrieveChain returns snapshots of the whole chain.
func (s *State) RetrieveChain() []database.BlockData {
	return s.db.CopyBlocks(0, s.db.Height())
}

// RetrieveMempool returns a copy of the pending records.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.PickBest(-1)
}

// RetrieveModel returns the performance model in use.
func (s *State) RetrieveModel() *perf.Model {
	return s.model
}

// QueryMempoolLength returns the current number of pending records.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// ValidateChain re-checks the integrity of the whole chain.
func (s *State) ValidateChain() database.ValidationResult {
	return s.db.Validate()
}

// Stats returns the chain snapshot the dashboard greets with.
func (s *State) Stats() ChainStats {
	latest := s.db.LatestBlock()

	latestHash := latest.Hash()
	return ChainStats{
		Height:     s.db.Height(),
		LatestHash: latestHash,
		Valid:      s.db.Validate().Valid,
	}
}
