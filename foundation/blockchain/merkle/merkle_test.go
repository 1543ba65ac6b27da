package merkle_test

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/medledger/blockchain/foundation/blockchain/merkle"
)

// Data uses the sha256 hashing algorithm for the merkle tree.
type Data struct {
	x string
}

// Hash hashes the values using sha256.
func (d Data) Hash() ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write([]byte(d.x)); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// Equals tests for equality of two pieces of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

func values(xs ...string) []Data {
	var ds []Data
	for _, x := range xs {
		ds = append(ds, Data{x: x})
	}
	return ds
}

// =============================================================================

var table = []struct {
	name   string
	leaves []Data
}{
	{name: "single", leaves: values("Hello")},
	{name: "pair", leaves: values("Hello", "Hi")},
	{name: "odd", leaves: values("Hello", "Hi", "Hey")},
	{name: "even", leaves: values("Hello", "Hi", "Hey", "Hola")},
	{name: "larger odd", leaves: values("a", "b", "c", "d", "e", "f", "g")},
	{name: "larger even", leaves: values("a", "b", "c", "d", "e", "f", "g", "h")},
}

func Test_NewTree(t *testing.T) {
	for _, tc := range table {
		tree, err := merkle.NewTree(tc.leaves)
		if err != nil {
			t.Errorf("[case:%s] error: unexpected error: %v", tc.name, err)
			continue
		}
		if len(tree.MerkleRoot) != sha256.Size {
			t.Errorf("[case:%s] error: expected %d byte root got %d", tc.name, sha256.Size, len(tree.MerkleRoot))
		}
		if tree.LeafCount() != len(tc.leaves) {
			t.Errorf("[case:%s] error: expected leaf count %d got %d", tc.name, len(tc.leaves), tree.LeafCount())
		}
	}
}

func Test_EmptyInput(t *testing.T) {
	if _, err := merkle.NewTree([]Data{}); !errors.Is(err, merkle.ErrEmptyInput) {
		t.Errorf("error: expected ErrEmptyInput got %v", err)
	}
}

func Test_Deterministic(t *testing.T) {
	for _, tc := range table {
		tree1, err := merkle.NewTree(tc.leaves)
		if err != nil {
			t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
		}
		tree2, err := merkle.NewTree(tc.leaves)
		if err != nil {
			t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
		}
		if !bytes.Equal(tree1.MerkleRoot, tree2.MerkleRoot) {
			t.Errorf("[case:%s] error: expected identical roots for identical leaves", tc.name)
		}
	}
}

func Test_ReorderChangesRoot(t *testing.T) {
	for _, tc := range table {
		if len(tc.leaves) < 2 {
			continue
		}

		tree, err := merkle.NewTree(tc.leaves)
		if err != nil {
			t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
		}

		swapped := append([]Data{}, tc.leaves...)
		swapped[0], swapped[1] = swapped[1], swapped[0]

		reordered, err := merkle.NewTree(swapped)
		if err != nil {
			t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
		}

		if bytes.Equal(tree.MerkleRoot, reordered.MerkleRoot) {
			t.Errorf("[case:%s] error: expected reordered leaves to change the root", tc.name)
		}
	}
}

func Test_Rebuild(t *testing.T) {
	for _, tc := range table {
		tree, err := merkle.NewTree(tc.leaves)
		if err != nil {
			t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
		}

		root := append([]byte{}, tree.MerkleRoot...)
		if err := tree.Rebuild(); err != nil {
			t.Errorf("[case:%s] error: unexpected error: %v", tc.name, err)
		}
		if !bytes.Equal(root, tree.MerkleRoot) {
			t.Errorf("[case:%s] error: expected rebuild to keep the root", tc.name)
		}
	}
}

func Test_VerifyTree(t *testing.T) {
	for _, tc := range table {
		tree, err := merkle.NewTree(tc.leaves)
		if err != nil {
			t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
		}
		if err := tree.Verify(); err != nil {
			t.Errorf("[case:%s] error: unexpected error: %v", tc.name, err)
		}
	}
}

// =============================================================================

func Test_ProofRoundTrip(t *testing.T) {
	for _, tc := range table {
		tree, err := merkle.NewTree(tc.leaves)
		if err != nil {
			t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
		}

		for i := range tc.leaves {
			proof, err := tree.ProofAt(i)
			if err != nil {
				t.Errorf("[case:%s] error: unexpected error for index %d: %v", tc.name, i, err)
				continue
			}
			if !merkle.VerifyProof(proof) {
				t.Errorf("[case:%s] error: expected proof for index %d to verify", tc.name, i)
			}
		}
	}
}

func Test_ProofIndexOutOfRange(t *testing.T) {
	tree, err := merkle.NewTree(values("Hello", "Hi", "Hey"))
	if err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}

	if _, err := tree.ProofAt(3); !errors.Is(err, merkle.ErrIndexOutOfRange) {
		t.Errorf("error: expected ErrIndexOutOfRange got %v", err)
	}
	if _, err := tree.ProofAt(-1); !errors.Is(err, merkle.ErrIndexOutOfRange) {
		t.Errorf("error: expected ErrIndexOutOfRange got %v", err)
	}
}

func Test_ProofByValue(t *testing.T) {
	leaves := values("Hello", "Hi", "Hey", "Hola")
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}

	proof, err := tree.Proof(Data{x: "Hey"})
	if err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}
	if !merkle.VerifyProof(proof) {
		t.Error("error: expected proof located by value to verify")
	}

	if _, err := tree.Proof(Data{x: "missing"}); err == nil {
		t.Error("error: expected an error for data not in the tree")
	}
}

func Test_ProofTamperDetection(t *testing.T) {
	for _, tc := range table {
		tree, err := merkle.NewTree(tc.leaves)
		if err != nil {
			t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
		}

		for i := range tc.leaves {
			proof, err := tree.ProofAt(i)
			if err != nil {
				t.Fatalf("[case:%s] error: unexpected error: %v", tc.name, err)
			}

			// Flip one byte of the leaf hash.
			tampered := clone(proof)
			tampered.Leaf[0] ^= 0x01
			if merkle.VerifyProof(tampered) {
				t.Errorf("[case:%s] error: expected tampered leaf at index %d to fail", tc.name, i)
			}

			// Flip one byte of each sibling hash.
			for s := range proof.Path {
				tampered = clone(proof)
				tampered.Path[s].Hash[0] ^= 0x01
				if merkle.VerifyProof(tampered) {
					t.Errorf("[case:%s] error: expected tampered sibling %d at index %d to fail", tc.name, s, i)
				}
			}

			// Flip each side flag. A self-paired step has identical hashes
			// on both sides, so flipping its flag can't move the root.
			for s := range proof.Path {
				if bystanderSelfPaired(proof, s) {
					continue
				}
				tampered = clone(proof)
				tampered.Path[s].Side ^= 1
				if merkle.VerifyProof(tampered) {
					t.Errorf("[case:%s] error: expected flipped side %d at index %d to fail", tc.name, s, i)
				}
			}
		}
	}
}

func Test_OddLeafScenario(t *testing.T) {

	// Three leaves: the third is duplicated to pair it. The proof for
	// index 2 must verify against the root, and corrupting its bottom
	// sibling must break verification.
	leaves := values("A", "B", "C")
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}

	proof, err := tree.ProofAt(2)
	if err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}
	if !bytes.Equal(proof.Root, tree.MerkleRoot) {
		t.Error("error: expected proof root to equal the tree root")
	}
	if !merkle.VerifyProof(proof) {
		t.Error("error: expected proof for the duplicated leaf to verify")
	}

	// The bottom sibling of index 2 is its own duplicate.
	cHash, err := Data{x: "C"}.Hash()
	if err != nil {
		t.Fatalf("error: unexpected error: %v", err)
	}
	if !bytes.Equal(proof.Path[0].Hash, cHash) {
		t.Error("error: expected bottom sibling to be the duplicated leaf hash")
	}

	proof.Path[0].Hash[5] ^= 0xFF
	if merkle.VerifyProof(proof) {
		t.Error("error: expected corrupted bottom sibling to fail verification")
	}
}

// =============================================================================

func clone(p merkle.Proof) merkle.Proof {
	c := merkle.Proof{
		Leaf: append([]byte{}, p.Leaf...),
		Root: append([]byte{}, p.Root...),
	}
	for _, step := range p.Path {
		c.Path = append(c.Path, merkle.ProofStep{
			Hash: append([]byte{}, step.Hash...),
			Side: step.Side,
		})
	}
	return c
}

func bystanderSelfPaired(p merkle.Proof, s int) bool {
	current := p.Leaf
	for i, step := range p.Path {
		if i == s {
			return bytes.Equal(current, step.Hash)
		}

		h := sha256.New()
		if step.Side == merkle.SideLeft {
			h.Write(append(append([]byte{}, step.Hash...), current...))
		} else {
			h.Write(append(append([]byte{}, current...), step.Hash...))
		}
		current = h.Sum(nil)
	}
	return false
}
