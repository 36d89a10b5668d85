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

// Package smt implements the compacted sparse Merkle tree engine: Update,
// Get and MerkleProof over a pluggable store.Store, with the root
// maintained as a pure function of the stored branch nodes.
package smt

import (
	"context"
	"runtime"

	"github.com/golang/glog"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/hasher"
	"github.com/transparency-labs/sparsemerkle/merge"
	"github.com/transparency-labs/sparsemerkle/proof"
	"github.com/transparency-labs/sparsemerkle/store"
)

// Config is the tree engine's construction-time configuration: the
// backend store, the hash factory, and the concurrency cap for the
// sibling-prefetch fan-out in MerkleProof. Passed by value into NewWithConfig so the
// engine never reaches for global state.
type Config struct {
	Store store.Store
	Hash  hasher.Factory

	// Concurrency caps the number of in-flight goroutines used to
	// prefetch per-key ancestor chains during MerkleProof. Zero selects
	// runtime.GOMAXPROCS(0).
	Concurrency int
}

// Tree is a sparse Merkle tree over a store.Store backend. It is not safe
// for concurrent Update calls; concurrent reads (Get, Root, MerkleProof)
// against a backend that itself tolerates concurrent access are fine.
type Tree struct {
	store       store.Store
	hash        hasher.Factory
	concurrency int
	root        h256.H256
}

// New returns a Tree over s using hash as its digest factory, reading its
// initial root from whatever s already contains. This is the stable
// binding surface; use NewWithConfig to also set the prefetch concurrency
// cap.
func New(s store.Store, hash hasher.Factory) *Tree {
	return NewWithConfig(Config{Store: s, Hash: hash})
}

// NewWithConfig returns a Tree built from cfg. A zero-valued cfg.Hash
// selects hasher.Default(); a zero-valued cfg.Concurrency selects
// runtime.GOMAXPROCS(0).
func NewWithConfig(cfg Config) *Tree {
	h := cfg.Hash
	if h == nil {
		h = hasher.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	t := &Tree{store: cfg.Store, hash: h, concurrency: concurrency}
	t.root, _ = t.computeRoot(context.Background())
	return t
}

// Root returns the tree's cached current root.
func (t *Tree) Root() h256.H256 {
	return t.root
}

// Get returns the value stored at key, or the zero H256 if key is absent.
func (t *Tree) Get(ctx context.Context, key h256.H256) (h256.H256, error) {
	v, ok, err := t.store.GetLeaf(ctx, key)
	if err != nil {
		return h256.Zero, err
	}
	if !ok {
		return h256.Zero, nil
	}
	return v, nil
}

// Update sets key to value, inserting, overwriting, or (for a zero value)
// deleting it, and recomputes the root. A no-op update (value already
// matches, or deleting an absent key) returns after its single leaf read,
// without writing to the store.
func (t *Tree) Update(ctx context.Context, key, value h256.H256) error {
	oldValue, existed, err := t.store.GetLeaf(ctx, key)
	if err != nil {
		return err
	}
	if existed && oldValue == value {
		return nil
	}
	if !existed && value.IsZero() {
		return nil
	}

	glog.V(2).Infof("smt: update key=%s value=%s", key, value)

	if value.IsZero() {
		if err := t.store.RemoveLeaf(ctx, key); err != nil {
			return err
		}
	} else {
		if err := t.store.InsertLeaf(ctx, key, value); err != nil {
			return err
		}
	}

	current := merge.Leaf(t.hash, key, value)
	for h := 0; h < 256; h++ {
		branchKey := store.BranchKey{Height: h, NodeKey: h256.ParentPath(key, h+1)}
		node, existed, err := t.store.GetBranch(ctx, branchKey)
		if err != nil {
			return err
		}
		left, right := merge.Zero, merge.Zero
		if existed {
			left, right = node.Left, node.Right
		}
		if h256.GetBit(key, h) {
			right = current
		} else {
			left = current
		}

		if left.IsZero() && right.IsZero() {
			if existed {
				if err := t.store.RemoveBranch(ctx, branchKey); err != nil {
					return err
				}
			}
		} else if err := t.store.InsertBranch(ctx, branchKey, store.BranchNode{Left: left, Right: right}); err != nil {
			return err
		}

		current = merge.Merge(t.hash, h, branchKey.NodeKey, left, right)
	}

	t.root = current.Hash(t.hash)
	return nil
}

// computeRoot derives the root directly from whatever the store currently
// holds, by reading the single branch at (height 255, node_key Zero) — the
// root's two children — rather than replaying every leaf. Used once, at
// construction, so a Tree opened against a pre-populated store starts with
// the right cached root.
func (t *Tree) computeRoot(ctx context.Context) (h256.H256, error) {
	branchKey := store.BranchKey{Height: 255, NodeKey: h256.Zero}
	node, ok, err := t.store.GetBranch(ctx, branchKey)
	if err != nil {
		glog.Errorf("smt: computeRoot: %v", err)
		return h256.Zero, err
	}
	if !ok {
		return h256.Zero, nil
	}
	top := merge.Merge(t.hash, 255, h256.Zero, node.Left, node.Right)
	return top.Hash(t.hash), nil
}

// MerkleProof compiles a multi-key proof for keys. Duplicate keys are
// silently deduplicated (see proof.Generate); keys need not be pre-sorted.
func (t *Tree) MerkleProof(ctx context.Context, keys []h256.H256) (proof.CompiledProof, error) {
	glog.V(4).Infof("smt: MerkleProof for %d keys", len(keys))
	return proof.Generate(ctx, t.store, t.hash, t.concurrency, keys)
}

// ComputeRoot reconstructs the root a proof claims for the given leaves,
// without needing a tree at all. It is the method form of the same
// computation smt.Verify performs against the tree's own hash factory.
func (t *Tree) ComputeRoot(leaves []proof.Leaf, cp proof.CompiledProof) (h256.H256, error) {
	return proof.ComputeRoot(t.hash, leaves, cp)
}

// Verify reports whether cp reconstructs root from pairs, using the
// default BLAKE2b-256 hash factory. This is the binding-surface entry
// point for callers who don't otherwise hold a *Tree; for a tree built
// with a non-default hash factory, use (*Tree).ComputeRoot and compare
// directly, or proof.Verify with that tree's factory.
func Verify(root h256.H256, cp proof.CompiledProof, pairs [][2]h256.H256) (bool, error) {
	leaves := make([]proof.Leaf, len(pairs))
	for i, p := range pairs {
		leaves[i] = proof.Leaf{Key: p[0], Value: p[1]}
	}
	return proof.Verify(hasher.Default(), root, leaves, cp)
}
