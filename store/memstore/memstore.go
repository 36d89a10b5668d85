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

// Package memstore provides the canonical in-memory Store backend: a pair
// of plain Go maps behind a sync.RWMutex. It is the default backend, and
// the one every engine/proof unit test runs against.
package memstore

import (
	"context"
	"sync"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/store"
)

// Store is an in-memory store.Store implementation.
type Store struct {
	mu       sync.RWMutex
	branches map[store.BranchKey]store.BranchNode
	leaves   map[h256.H256]h256.H256
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		branches: make(map[store.BranchKey]store.BranchNode),
		leaves:   make(map[h256.H256]h256.H256),
	}
}

func (s *Store) GetBranch(_ context.Context, key store.BranchKey) (store.BranchNode, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.branches[key]
	return n, ok, nil
}

func (s *Store) GetLeaf(_ context.Context, key h256.H256) (h256.H256, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.leaves[key]
	return v, ok, nil
}

func (s *Store) InsertBranch(_ context.Context, key store.BranchKey, node store.BranchNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[key] = node
	return nil
}

func (s *Store) InsertLeaf(_ context.Context, key, value h256.H256) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves[key] = value
	return nil
}

func (s *Store) RemoveBranch(_ context.Context, key store.BranchKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.branches, key)
	return nil
}

func (s *Store) RemoveLeaf(_ context.Context, key h256.H256) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leaves, key)
	return nil
}

// Len returns the number of stored branches and leaves, for diagnostics.
func (s *Store) Len() (branches, leaves int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.branches), len(s.leaves)
}

var _ store.Store = (*Store)(nil)
