// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package proof_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/hasher"
	"github.com/transparency-labs/sparsemerkle/proof"
	"github.com/transparency-labs/sparsemerkle/smt"
	"github.com/transparency-labs/sparsemerkle/store/memstore"
)

func newTestTree(t *testing.T) *smt.Tree {
	t.Helper()
	return smt.New(memstore.New(), hasher.Default())
}

func keyOf(s string) h256.H256 { return hasher.Digest(hasher.Default(), []byte(s)) }
func valOf(s string) h256.H256 { return hasher.Digest(hasher.Default(), []byte(s)) }

func TestGenerateVerifyRoundTripSingleKey(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()
	k1, v1 := keyOf("k1"), valOf("v1")
	if err := tree.Update(ctx, k1, v1); err != nil {
		t.Fatalf("Update: %v", err)
	}

	cp, err := tree.MerkleProof(ctx, []h256.H256{k1})
	if err != nil {
		t.Fatalf("MerkleProof: %v", err)
	}
	ok, err := smt.Verify(tree.Root(), cp, [][2]h256.H256{{k1, v1}})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify: want true for honest single-key proof")
	}
}

func TestGenerateVerifyRoundTripMultiKey(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()
	pairs := [][2]h256.H256{
		{keyOf("a"), valOf("va")},
		{keyOf("b"), valOf("vb")},
		{keyOf("c"), valOf("vc")},
	}
	keys := make([]h256.H256, len(pairs))
	for i, p := range pairs {
		keys[i] = p[0]
		if err := tree.Update(ctx, p[0], p[1]); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	cp, err := tree.MerkleProof(ctx, keys)
	if err != nil {
		t.Fatalf("MerkleProof: %v", err)
	}
	ok, err := smt.Verify(tree.Root(), cp, pairs)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify: want true for honest multi-key proof")
	}

	tampered := append([][2]h256.H256{}, pairs...)
	tampered[1] = [2]h256.H256{pairs[1][0], keyOf("tampered-value")}
	ok, err = smt.Verify(tree.Root(), cp, tampered)
	if err != nil {
		t.Fatalf("Verify tampered: %v", err)
	}
	if ok {
		t.Error("Verify: want false when a leaf value is tampered")
	}
}

func TestExclusionProof(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()
	k1, v1 := keyOf("present"), valOf("v1")
	if err := tree.Update(ctx, k1, v1); err != nil {
		t.Fatalf("Update: %v", err)
	}

	absent := keyOf("absent")
	cp, err := tree.MerkleProof(ctx, []h256.H256{absent})
	if err != nil {
		t.Fatalf("MerkleProof: %v", err)
	}
	ok, err := smt.Verify(tree.Root(), cp, [][2]h256.H256{{absent, h256.Zero}})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify: want true for honest exclusion proof")
	}
}

func TestCanonicalProofsAreDeterministic(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()
	keys := []h256.H256{keyOf("x"), keyOf("y"), keyOf("z")}
	for _, k := range keys {
		if err := tree.Update(ctx, k, valOf(k.String())); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	cp1, err := tree.MerkleProof(ctx, keys)
	if err != nil {
		t.Fatalf("MerkleProof 1: %v", err)
	}
	cp2, err := tree.MerkleProof(ctx, keys)
	if err != nil {
		t.Fatalf("MerkleProof 2: %v", err)
	}
	if !bytes.Equal(cp1, cp2) {
		t.Error("MerkleProof: two invocations produced different bytecode")
	}
}

func TestTamperedRootRejected(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()
	k1, v1 := keyOf("k"), valOf("v")
	if err := tree.Update(ctx, k1, v1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cp, err := tree.MerkleProof(ctx, []h256.H256{k1})
	if err != nil {
		t.Fatalf("MerkleProof: %v", err)
	}
	badRoot := tree.Root()
	badRoot[0] ^= 0xFF
	ok, err := smt.Verify(badRoot, cp, [][2]h256.H256{{k1, v1}})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("Verify: want false against tampered root")
	}
}

func TestMalformedProofReturnsErrInvalidProof(t *testing.T) {
	_, err := proof.ComputeRoot(hasher.Default(), []proof.Leaf{{Key: keyOf("k"), Value: valOf("v")}}, proof.CompiledProof{0xFF})
	if !errors.Is(err, proof.ErrInvalidProof) {
		t.Fatalf("ComputeRoot: got %v, want ErrInvalidProof for unknown opcode", err)
	}
}

func TestEmptyKeySetIsInvalid(t *testing.T) {
	tree := newTestTree(t)
	if _, err := tree.MerkleProof(context.Background(), nil); err == nil {
		t.Error("MerkleProof: expected error for empty key list")
	}
}

// TestStackOverflowRejected feeds a proof that pushes one leaf per opcode
// (0x4C, opL) and never merges any of them, one beyond maxStackDepth
// (257), and checks the evaluator rejects it rather than growing the
// stack without bound.
func TestStackOverflowRejected(t *testing.T) {
	const n = 258 // one past maxStackDepth
	leaves := make([]proof.Leaf, n)
	for i := range leaves {
		var k h256.H256
		k[28] = byte(i >> 24)
		k[29] = byte(i >> 16)
		k[30] = byte(i >> 8)
		k[31] = byte(i)
		leaves[i] = proof.Leaf{Key: k, Value: valOf("v")}
	}
	cp := make(proof.CompiledProof, n)
	for i := range cp {
		cp[i] = 0x4C // opL
	}

	_, err := proof.ComputeRoot(hasher.Default(), leaves, cp)
	if !errors.Is(err, proof.ErrInvalidStack) {
		t.Fatalf("ComputeRoot: got %v, want ErrInvalidStack", err)
	}
}

// TestStackUnderflowRejected feeds opcodes that consume stack entries
// (opH, opP) against an empty stack, and checks both are rejected as
// ErrInvalidStack rather than panicking on an out-of-range slice access.
func TestStackUnderflowRejected(t *testing.T) {
	t.Run("bareH", func(t *testing.T) {
		cp := proof.CompiledProof{0x48} // opH, no operands, empty stack
		_, err := proof.ComputeRoot(hasher.Default(), nil, cp)
		if !errors.Is(err, proof.ErrInvalidStack) {
			t.Fatalf("ComputeRoot: got %v, want ErrInvalidStack", err)
		}
	})

	t.Run("bareP", func(t *testing.T) {
		cp := make(proof.CompiledProof, 0, 1+h256.Size)
		cp = append(cp, 0x50) // opP
		cp = append(cp, make([]byte, h256.Size)...)
		_, err := proof.ComputeRoot(hasher.Default(), nil, cp)
		if !errors.Is(err, proof.ErrInvalidStack) {
			t.Fatalf("ComputeRoot: got %v, want ErrInvalidStack", err)
		}
	})
}
