// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/medledger/blockchain/foundation/blockchain/database"
	"github.com/medledger/blockchain/foundation/blockchain/genesis"
	"github.com/medledger/blockchain/foundation/blockchain/mempool"
	"github.com/medledger/blockchain/foundation/blockchain/perf"
)

// EventHandler defines a function that is called when events
// occur in the processing of mining blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start the blockchain node.
type Config struct {
	Genesis   genesis.Genesis
	Model     *perf.Model
	EvHandler EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	genesis   genesis.Genesis
	evHandler EventHandler

	db      *database.Database
	mempool *mempool.Mempool
	model   *perf.Model

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	model := cfg.Model
	if model == nil {
		var err error
		model, err = perf.New(perf.DefaultConfig())
		if err != nil {
			return nil, err
		}
	}

	state := State{
		genesis:   cfg.Genesis,
		evHandler: ev,
		db:        database.New(cfg.Genesis),
		mempool:   mempool.New(),
		model:     model,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
