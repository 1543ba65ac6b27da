// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`
	ChainID         uint16    `json:"chain_id"`          // The chain id represents an unique id for this running instance.
	Description     string    `json:"description"`       // Human readable label for the chain.
	TransPerBlock   uint16    `json:"trans_per_block"`   // The maximum number of record hashes that can be in a block.
	Difficulty      uint16    `json:"difficulty"`        // Number of leading 0 hex characters the block hash must carry.
	MaxMineAttempts uint64    `json:"max_mine_attempts"` // Upper bound on nonce attempts before a search is abandoned.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := validate(genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// validate rejects degenerate chain parameters before they can drive an
// unbounded mining search.
func validate(g Genesis) error {
	const maxDifficulty = 64

	if g.Difficulty > maxDifficulty {
		return fmt.Errorf("difficulty %d exceeds the %d hex characters of a hash", g.Difficulty, maxDifficulty)
	}

	if g.MaxMineAttempts == 0 {
		return fmt.Errorf("max mine attempts must be greater than zero")
	}

	if g.TransPerBlock == 0 {
		return fmt.Errorf("trans per block must be greater than zero")
	}

	return nil
}
