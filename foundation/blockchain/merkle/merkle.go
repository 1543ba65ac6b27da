// Package merkle provides a merkle tree over record hashes with inclusion
// proof generation and verification for the blockchain.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrEmptyInput is returned when a tree is requested over zero leaves.
var ErrEmptyInput = errors.New("cannot construct tree with no leaves")

// ErrIndexOutOfRange is returned when a proof is requested for a leaf
// index the tree doesn't have.
var ErrIndexOutOfRange = errors.New("leaf index out of range")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Side identifies where a proof sibling sits when the parent hash is
// recomputed. The left hash is always concatenated first.
type Side int

// Set of sides a proof sibling can take.
const (
	SideLeft  Side = 0
	SideRight Side = 1
)

// ProofStep carries one sibling hash on the path from a leaf to the root.
type ProofStep struct {
	Hash []byte `json:"hash"`
	Side Side   `json:"side"`
}

// Proof is the self-contained evidence that a leaf belongs to a tree with
// the specified root. It verifies without access to the tree that built it.
type Proof struct {
	Leaf []byte      `json:"leaf"`
	Path []ProofStep `json:"path"`
	Root []byte      `json:"root"`
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits
// the behavior defined by the Hashable constraint. The tree is stored as
// level-by-level hash slices, leaves first, so proof generation is index
// arithmetic instead of pointer chasing.
type Tree[T Hashable[T]] struct {
	MerkleRoot   []byte
	values       []T
	levels       [][][]byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using
// sha256 when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the levels of the tree from the specified data. If the
// tree has been generated previously, the tree is re-generated from scratch.
// When the number of leaves is odd, the final leaf is duplicated so every
// leaf has a pairing partner. That duplication changes the root and is part
// of the tree's contract.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return ErrEmptyInput
	}

	leaves := make([][]byte, 0, len(values)+1)
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return err
		}
		leaves = append(leaves, hash)
	}

	if len(leaves)%2 == 1 {
		leaves = append(leaves, leaves[len(leaves)-1])
	}

	levels := [][][]byte{leaves}
	for level := leaves; len(level) > 1; {
		next := make([][]byte, 0, (len(level)+1)/2)

		for i := 0; i < len(level); i += 2 {
			left, right := i, i+1
			if right == len(level) {
				right = i
			}

			h := t.hashStrategy()
			if _, err := h.Write(append(append([]byte{}, level[left]...), level[right]...)); err != nil {
				return err
			}
			next = append(next, h.Sum(nil))
		}

		levels = append(levels, next)
		level = next
	}

	t.values = values
	t.levels = levels
	t.MerkleRoot = levels[len(levels)-1][0]

	return nil
}

// Rebuild reconstructs the tree reusing only the data it currently holds.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.values)
}

// ProofAt returns the inclusion proof for the leaf at the specified index.
// The path records, level by level, the sibling hash and which side that
// sibling occupies when the parent hash is recomputed.
func (t *Tree[T]) ProofAt(index int) (Proof, error) {
	if index < 0 || index >= len(t.values) {
		return Proof{}, fmt.Errorf("index %d with %d leaves: %w", index, len(t.values), ErrIndexOutOfRange)
	}

	proof := Proof{
		Leaf: append([]byte{}, t.levels[0][index]...),
		Root: append([]byte{}, t.MerkleRoot...),
	}

	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling >= len(level) {
			sibling = pos
		}

		step := ProofStep{
			Hash: append([]byte{}, level[sibling]...),
			Side: SideRight,
		}
		if pos%2 == 1 {
			step.Side = SideLeft
		}

		proof.Path = append(proof.Path, step)
		pos /= 2
	}

	return proof, nil
}

// Proof locates the leaf holding the specified data and returns its
// inclusion proof.
func (t *Tree[T]) Proof(data T) (Proof, error) {
	for i, value := range t.values {
		if value.Equals(data) {
			return t.ProofAt(i)
		}
	}

	return Proof{}, errors.New("unable to find data in tree")
}

// Verify recomputes every level of the tree from the leaf data and reports
// whether the resulting root still matches the stored merkle root.
func (t *Tree[T]) Verify() error {
	rebuilt, err := NewTree(t.values, WithHashStrategy[T](t.hashStrategy))
	if err != nil {
		return err
	}

	if !bytes.Equal(t.MerkleRoot, rebuilt.MerkleRoot) {
		return errors.New("root hash invalid")
	}

	return nil
}

// Values returns the slice of leaf values stored in the tree, without the
// pairing duplicate.
func (t *Tree[T]) Values() []T {
	return t.values
}

// LeafCount returns the number of leaf values, without the pairing duplicate.
func (t *Tree[T]) LeafCount() int {
	return len(t.values)
}

// Height returns the number of levels in the tree including the leaf level.
func (t *Tree[T]) Height() int {
	return len(t.levels)
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.MerkleRoot)
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the Merkle tree. Use the Values function to
// return a slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// =============================================================================

// VerifyProof recomputes the root by folding the proof's leaf hash with each
// sibling in the recorded side order and reports whether the result matches
// the proof's claimed root. Only the proof value itself is required. Any
// corruption of a sibling hash or side flag makes the recomputed root
// diverge.
func VerifyProof(proof Proof, options ...func(c *proofConfig)) bool {
	c := proofConfig{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&c)
	}

	current := proof.Leaf
	for _, step := range proof.Path {
		var combined []byte
		switch step.Side {
		case SideLeft:
			combined = append(append([]byte{}, step.Hash...), current...)
		default:
			combined = append(append([]byte{}, current...), step.Hash...)
		}

		h := c.hashStrategy()
		if _, err := h.Write(combined); err != nil {
			return false
		}
		current = h.Sum(nil)
	}

	return bytes.Equal(current, proof.Root)
}

// WithProofHashStrategy is used to change the default hash strategy of
// using sha256 when verifying a proof.
func WithProofHashStrategy(hashStrategy func() hash.Hash) func(c *proofConfig) {
	return func(c *proofConfig) {
		c.hashStrategy = hashStrategy
	}
}

type proofConfig struct {
	hashStrategy func() hash.Hash
}
