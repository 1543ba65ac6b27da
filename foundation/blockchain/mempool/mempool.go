// Package mempool maintains the pool of record references waiting to be
// mined into a block.
package mempool

import (
	"sort"
	"sync"

	"github.com/medledger/blockchain/foundation/blockchain/database"
)

// Mempool represents a cache of pending record references keyed by record
// id. Re-submitting a record replaces the pending reference.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]entry
	order uint64
}

type entry struct {
	tx    database.Tx
	order uint64
}

// New constructs a new mempool for pending records.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]entry),
	}
}

// Count returns the current number of records in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a record in the pool and returns the new count.
func (mp *Mempool) Upsert(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	order := mp.order
	if existing, exists := mp.pool[tx.RecordID]; exists {
		order = existing.order
	} else {
		mp.order++
	}

	mp.pool[tx.RecordID] = entry{tx: tx, order: order}

	return len(mp.pool)
}

// Delete removes a record from the pool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, tx.RecordID)
}

// Truncate clears all the records from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]entry)
}

// PickBest returns up to the specified number of records in submission
// order. Pass a negative value for everything pending.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	entries := make([]entry, 0, len(mp.pool))
	for _, ent := range mp.pool {
		entries = append(entries, ent)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})

	if howMany < 0 || howMany > len(entries) {
		howMany = len(entries)
	}

	txs := make([]database.Tx, howMany)
	for i := 0; i < howMany; i++ {
		txs[i] = entries[i].tx
	}

	return txs
}
