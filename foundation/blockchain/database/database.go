// Package database maintains the append only chain of blocks in memory and
// implements the integrity validation the healthcare use case depends on.
package database

import (
	"fmt"
	"sync"

	"github.com/medledger/blockchain/foundation/blockchain/digest"
	"github.com/medledger/blockchain/foundation/blockchain/genesis"
	"github.com/medledger/blockchain/foundation/blockchain/merkle"
)

// ValidationReason identifies which invariant a failed validation tripped.
type ValidationReason string

// Set of reasons a chain validation can fail.
const (
	ReasonHashMismatch ValidationReason = "hash mismatch"
	ReasonLinkMismatch ValidationReason = "link mismatch"
	ReasonTargetNotMet ValidationReason = "target not met"
	ReasonRootMismatch ValidationReason = "merkle root mismatch"
)

// ValidationResult reports the outcome of a full chain validation. Tampering
// is the expected, reportable outcome here, never an error.
type ValidationResult struct {
	Valid  bool             `json:"valid"`
	Index  uint64           `json:"index,omitempty"`
	Reason ValidationReason `json:"reason,omitempty"`
}

// =============================================================================

// Database manages the chain arena. Appends are serialized and historical
// blocks are never mutated in place.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	blocks      []BlockData
	latestBlock Block
}

// New constructs the database seeded with the fixed genesis block at
// index 0.
func New(gen genesis.Genesis) *Database {
	genesisBlock := BlockData{
		Hash: digest.ZeroHash,
		Header: BlockHeader{
			Number:        0,
			TimeStamp:     uint64(gen.Date.UTC().Unix()),
			PrevBlockHash: digest.ZeroHash,
			Difficulty:    gen.Difficulty,
		},
	}

	db := Database{
		genesis: gen,
		blocks:  []BlockData{genesisBlock},
	}

	return &db
}

// Write appends a mined block to the chain. The block must link to the
// current latest block; a stale candidate is rejected with ErrLinkage so
// the caller can recompute and retry, never silently overwrite.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	latestHash := digest.ZeroHash
	if db.latestBlock.Header.Number > 0 {
		latestHash = db.latestBlock.Hash()
	}

	if block.Header.PrevBlockHash != latestHash {
		return fmt.Errorf("got prev %s, exp %s: %w", block.Header.PrevBlockHash, latestHash, ErrLinkage)
	}

	nextNumber := db.latestBlock.Header.Number + 1
	if block.Header.Number != nextNumber {
		return fmt.Errorf("got number %d, exp %d: %w", block.Header.Number, nextNumber, ErrLinkage)
	}

	if !isHashSolved(block.Header.Difficulty, block.Hash()) {
		return fmt.Errorf("block %s does not meet its difficulty target", block.Hash())
	}

	db.blocks = append(db.blocks, NewBlockData(block))
	db.latestBlock = block

	return nil
}

// LatestBlock returns the current latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Height returns the number of the latest block.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1].Header.Number
}

// GetBlock returns the snapshot of the specified block by number.
func (db *Database) GetBlock(num uint64) (BlockData, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return BlockData{}, fmt.Errorf("block %d does not exist", num)
	}

	return db.blocks[num], nil
}

// CopyBlocks returns a copy of the chain from the specified block number
// to the specified block number inclusive. Pass from 0 and to of the latest
// height for the whole chain.
func (db *Database) CopyBlocks(from uint64, to uint64) []BlockData {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if from > to || from >= uint64(len(db.blocks)) {
		return nil
	}
	if to >= uint64(len(db.blocks)) {
		to = uint64(len(db.blocks)) - 1
	}

	blocks := make([]BlockData, to-from+1)
	copy(blocks, db.blocks[from:to+1])

	return blocks
}

// Validate re-checks every block in the chain against its stored hash, its
// difficulty target, its link to the previous block, and its merkle root.
// The first violation is reported with its index and reason.
func (db *Database) Validate() ValidationResult {
	return ValidateChain(db.CopyBlocks(0, db.Height()))
}

// =============================================================================

// ValidateChain validates a chain snapshot. It works on plain block data so
// a collaborator holding a snapshot can run the same check the node runs.
// Single bit tampering with any historical block's records, nonce, or link
// surfaces as a failure at the first affected index.
func ValidateChain(blocks []BlockData) ValidationResult {
	for i, blockData := range blocks {

		// The genesis block is fixed and carries no work.
		if blockData.Header.Number == 0 {
			continue
		}

		// The stored hash must match a full recomputation from the fields.
		hash := digest.Hash(blockData.Header)
		if blockData.Hash != hash {
			return ValidationResult{Index: blockData.Header.Number, Reason: ReasonHashMismatch}
		}

		// The hash must still satisfy the difficulty declared at mine time.
		if !isHashSolved(blockData.Header.Difficulty, hash) {
			return ValidationResult{Index: blockData.Header.Number, Reason: ReasonTargetNotMet}
		}

		// The merkle root must match the records carried by the block.
		tree, err := merkle.NewTree(blockData.Trans)
		if err != nil || tree.RootHex() != blockData.Header.TransRoot {
			return ValidationResult{Index: blockData.Header.Number, Reason: ReasonRootMismatch}
		}

		// The block must link to its predecessor.
		if i > 0 {
			prev := blocks[i-1]
			prevHash := prev.Hash
			if prev.Header.Number == 0 {
				prevHash = digest.ZeroHash
			}

			if blockData.Header.PrevBlockHash != prevHash {
				return ValidationResult{Index: blockData.Header.Number, Reason: ReasonLinkMismatch}
			}
		}
	}

	return ValidationResult{Valid: true}
}
