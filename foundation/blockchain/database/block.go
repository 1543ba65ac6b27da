package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medledger/blockchain/foundation/blockchain/digest"
	"github.com/medledger/blockchain/foundation/blockchain/merkle"
)

// ErrLinkage is returned from Write when a mined block no longer links to
// the chain's latest block. The candidate is stale, recompute and retry.
var ErrLinkage = errors.New("block does not link to the latest block")

// ErrMaxAttempts is returned when the nonce search exhausts its bound
// without satisfying the difficulty target. The target is effectively
// unreachable for the configured budget.
var ErrMaxAttempts = errors.New("mining attempts exhausted before target was met")

// zeroPrefix covers the maximum number of leading zero hex characters a
// difficulty target can require.
const zeroPrefix = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Block number in the chain, genesis is 0.
	TimeStamp     uint64 `json:"timestamp"`       // Time the block was mined.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
	Difficulty    uint16 `json:"difficulty"`      // Number of leading 0 hex characters needed in the hash.
	TransRoot     string `json:"trans_root"`      // Merkle tree root hash for the records in this block.
	TransCount    int    `json:"trans_count"`     // Number of records under the merkle root.
}

// Block represents a group of record references batched together under a
// merkle root.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[Tx]
}

// MiningStats reports what the nonce search actually did, as opposed to the
// modeled timings the performance model produces for the same search.
type MiningStats struct {
	Attempts uint64        `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
	HashRate float64       `json:"hash_rate"`
}

// =============================================================================

// PowConfig bounds a proof of work search. A search with no attempt bound
// is a configuration error, not a mining failure.
type PowConfig struct {
	Difficulty  uint16
	MaxAttempts uint64
}

// NewCandidate constructs the next block to be mined. The candidate links
// to the previous block, embeds the merkle root over the specified records,
// and starts its nonce at zero.
func NewCandidate(prevBlock Block, difficulty uint16, trans []Tx) (Block, error) {
	tree, err := merkle.NewTree(trans)
	if err != nil {
		return Block{}, err
	}

	prevBlockHash := digest.ZeroHash
	if prevBlock.Header.Number > 0 {
		prevBlockHash = prevBlock.Hash()
	}

	nb := Block{
		Header: BlockHeader{
			Number:        prevBlock.Header.Number + 1,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			Nonce:         0, // Will be identified by the POW algorithm.
			PrevBlockHash: prevBlockHash,
			Difficulty:    difficulty,
			TransRoot:     tree.RootHex(),
			TransCount:    tree.LeafCount(),
		},
		Trans: tree,
	}

	return nb, nil
}

// POW constructs a candidate block and performs the work to find a nonce
// that solves the cryptographic puzzle within the configured attempt bound.
func POW(ctx context.Context, cfg PowConfig, prevBlock Block, trans []Tx, evHandler func(v string, args ...any)) (Block, MiningStats, error) {
	if cfg.MaxAttempts == 0 {
		return Block{}, MiningStats{}, fmt.Errorf("pow requires an attempt bound: %w", ErrMaxAttempts)
	}

	nb, err := NewCandidate(prevBlock, cfg.Difficulty, trans)
	if err != nil {
		return Block{}, MiningStats{}, err
	}

	stats, err := nb.performPOW(ctx, cfg.MaxAttempts, evHandler)
	if err != nil {
		return Block{}, stats, err
	}

	return nb, stats, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, maxAttempts uint64, ev func(v string, args ...any)) (MiningStats, error) {
	ev("database: PerformPOW: MINING: started: blk[%d]: difficulty[%d]", b.Header.Number, b.Header.Difficulty)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Header.Number)

	for _, tx := range b.Trans.Values() {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	t := time.Now()

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return miningStats(attempts, time.Since(t)), ctx.Err()
		}

		if attempts > maxAttempts {
			ev("database: PerformPOW: MINING: attempt bound [%d] reached", maxAttempts)
			return miningStats(attempts, time.Since(t)), ErrMaxAttempts
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		stats := miningStats(attempts, time.Since(t))
		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: PerformPOW: MINING: attempts[%d]: elapsed[%v]", stats.Attempts, stats.Elapsed)

		return stats, nil
	}
}

// Hash returns the unique hash for the Block. The hash covers only the
// header, and the header carries the merkle root, so the whole record set
// is pinned by this one value.
func (b Block) Hash() string {
	if b.Header.Number == 0 {
		return digest.ZeroHash
	}

	return digest.Hash(b.Header)
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0's in the hex encoding.
func isHashSolved(difficulty uint16, hash string) bool {
	if len(hash) != digest.HashLen || hash[:2] != "0x" {
		return false
	}

	return hash[2:2+difficulty] == zeroPrefix[:difficulty]
}

func miningStats(attempts uint64, elapsed time.Duration) MiningStats {
	stats := MiningStats{
		Attempts: attempts,
		Elapsed:  elapsed,
	}
	if elapsed > 0 {
		stats.HashRate = float64(attempts) / elapsed.Seconds()
	}

	return stats
}

// =============================================================================

// BlockData is the plain data snapshot of a block that crosses the API
// boundary and lives in the chain arena. Historical blocks are never
// mutated once appended.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []Tx        `json:"trans"`
}

// NewBlockData constructs the snapshot value for a mined block.
func NewBlockData(block Block) BlockData {
	bd := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans.Values(),
	}

	return bd
}

// ToBlock converts a BlockData back into a Block with a reconstructed
// merkle tree.
func ToBlock(blockData BlockData) (Block, error) {
	tree, err := merkle.NewTree(blockData.Trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: blockData.Header,
		Trans:  tree,
	}

	return nb, nil
}
