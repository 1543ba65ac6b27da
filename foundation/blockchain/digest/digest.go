// Package digest provides the hashing support for the blockchain. Every hash
// in the system is the sha256 of the canonical JSON encoding of a value,
// represented as a 0x prefixed hex string.
package digest

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// HashLen is the length of a hex encoded hash including the 0x prefix.
const HashLen = 66

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// HashData returns the hash for a raw slice of bytes.
func HashData(data []byte) string {
	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Bytes converts a hex encoded hash back into its raw 32 bytes.
func Bytes(hash string) ([]byte, error) {
	return hexutil.Decode(hash)
}
