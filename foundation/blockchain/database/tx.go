package database

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/medledger/blockchain/foundation/blockchain/digest"
)

// Tx is the record reference included in a block: an opaque content hash
// plus the identifiers a compliance layer needs to find the record off
// chain. Only hashes cross this boundary, record content never does.
type Tx struct {
	RecordID string `json:"record_id" validate:"required"`
	Kind     string `json:"kind" validate:"required"`
	DataHash string `json:"data_hash" validate:"required"`
}

// NewTx constructs a record reference, rejecting a data hash that isn't a
// proper 32 byte hex value.
func NewTx(recordID string, kind string, dataHash string) (Tx, error) {
	if recordID == "" {
		return Tx{}, fmt.Errorf("record id is required")
	}
	if kind == "" {
		return Tx{}, fmt.Errorf("record kind is required")
	}
	if len(dataHash) != digest.HashLen {
		return Tx{}, fmt.Errorf("data hash %q is not a 32 byte hex value", dataHash)
	}
	if _, err := digest.Bytes(dataHash); err != nil {
		return Tx{}, fmt.Errorf("data hash %q is not a 32 byte hex value: %w", dataHash, err)
	}

	tx := Tx{
		RecordID: recordID,
		Kind:     kind,
		DataHash: dataHash,
	}

	return tx, nil
}

// Hash implements the merkle Hashable interface for leaf construction.
func (tx Tx) Hash() ([]byte, error) {
	data, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// Equals implements the merkle Hashable interface. Two record references
// are the same leaf when they carry the same content hash for the same
// record.
func (tx Tx) Equals(other Tx) bool {
	return tx.RecordID == other.RecordID && tx.DataHash == other.DataHash
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s", tx.RecordID, tx.DataHash)
}
