package state

import (
	"github.com/medledger/blockchain/foundation/blockchain/database"
)

// SubmitRecord accepts a record reference from a collaborator, places it in
// the mempool, and returns the number of records now pending.
func (s *State) SubmitRecord(tx database.Tx) int {
	s.evHandler("state: SubmitRecord: tx[%s]", tx)

	return s.mempool.Upsert(tx)
}
