package state

import (
	"github.com/medledger/blockchain/foundation/blockchain/database"
	"github.com/medledger/blockchain/foundation/blockchain/merkle"
)

// GenerateProof rebuilds the merkle tree for the specified block and
// returns the inclusion proof for the record at the specified leaf index.
// The proof is independently verifiable by anyone holding only the proof
// value and is how a compliance layer attaches tamper evidence to a record
// without exposing its content.
func (s *State) GenerateProof(blockNum uint64, leafIndex int) (merkle.Proof, error) {
	blockData, err := s.db.GetBlock(blockNum)
	if err != nil {
		return merkle.Proof{}, err
	}

	block, err := database.ToBlock(blockData)
	if err != nil {
		return merkle.Proof{}, err
	}

	return block.Trans.ProofAt(leafIndex)
}

// VerifyProof checks an inclusion proof using nothing but the proof value.
func (s *State) VerifyProof(proof merkle.Proof) bool {
	return merkle.VerifyProof(proof)
}

// VerifyBlockRoot rebuilds the merkle tree from the records stored with
// the specified block and reports whether the recomputed root still matches
// the root embedded in the block header.
func (s *State) VerifyBlockRoot(blockNum uint64) (bool, error) {
	blockData, err := s.db.GetBlock(blockNum)
	if err != nil {
		return false, err
	}

	tree, err := merkle.NewTree(blockData.Trans)
	if err != nil {
		return false, err
	}

	return tree.RootHex() == blockData.Header.TransRoot, nil
}
