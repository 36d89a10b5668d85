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

// Package btreestore provides a Store backend ordered by (height, node_key)
// over github.com/google/btree, for callers that need to range-scan the
// stored branches — e.g. dumping every branch at a given height, or walking
// them in canonical order to build an incremental checkpoint export.
package btreestore

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/store"
)

const defaultDegree = 32

// branchItem adapts a (BranchKey, BranchNode) pair to btree.Item, ordered
// first by height and then by node_key.
type branchItem struct {
	key  store.BranchKey
	node store.BranchNode
}

func (a branchItem) Less(than btree.Item) bool {
	b := than.(branchItem)
	if a.key.Height != b.key.Height {
		return a.key.Height < b.key.Height
	}
	return bytes.Compare(a.key.NodeKey[:], b.key.NodeKey[:]) < 0
}

// leafItem adapts a (key, value) pair to btree.Item, ordered by key.
type leafItem struct {
	key   h256.H256
	value h256.H256
}

func (a leafItem) Less(than btree.Item) bool {
	return bytes.Compare(a.key[:], than.(leafItem).key[:]) < 0
}

// Store is a Store backend that keeps branches and leaves in two ordered
// B-trees instead of hash maps.
type Store struct {
	mu       sync.RWMutex
	branches *btree.BTree
	leaves   *btree.BTree
}

// New returns an empty, ordered Store.
func New() *Store {
	return &Store{
		branches: btree.New(defaultDegree),
		leaves:   btree.New(defaultDegree),
	}
}

func (s *Store) GetBranch(_ context.Context, key store.BranchKey) (store.BranchNode, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.branches.Get(branchItem{key: key})
	if item == nil {
		return store.BranchNode{}, false, nil
	}
	return item.(branchItem).node, true, nil
}

func (s *Store) GetLeaf(_ context.Context, key h256.H256) (h256.H256, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.leaves.Get(leafItem{key: key})
	if item == nil {
		return h256.Zero, false, nil
	}
	return item.(leafItem).value, true, nil
}

func (s *Store) InsertBranch(_ context.Context, key store.BranchKey, node store.BranchNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches.ReplaceOrInsert(branchItem{key: key, node: node})
	return nil
}

func (s *Store) InsertLeaf(_ context.Context, key, value h256.H256) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves.ReplaceOrInsert(leafItem{key: key, value: value})
	return nil
}

func (s *Store) RemoveBranch(_ context.Context, key store.BranchKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches.Delete(branchItem{key: key})
	return nil
}

func (s *Store) RemoveLeaf(_ context.Context, key h256.H256) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves.Delete(leafItem{key: key})
	return nil
}

// AscendBranchesAtHeight calls fn for every stored branch at the given
// height, in node_key order, stopping early if fn returns false. This is
// the range-scan capability memstore cannot offer without a full scan.
func (s *Store) AscendBranchesAtHeight(height h256.Height, fn func(store.BranchKey, store.BranchNode) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pivot := branchItem{key: store.BranchKey{Height: height}}
	s.branches.AscendGreaterOrEqual(pivot, func(item btree.Item) bool {
		bi := item.(branchItem)
		if bi.key.Height != height {
			return false
		}
		return fn(bi.key, bi.node)
	})
}

var _ store.Store = (*Store)(nil)
