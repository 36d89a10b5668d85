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

// Package store defines the abstract branch/leaf storage interface the
// tree engine reads and writes through, and the shared BranchKey/BranchNode
// record types every backend persists.
//
// Concrete backends live in sibling packages (memstore, btreestore,
// sqlstore, redisstore); none of them are imported here, keeping this
// package dependency-free and safe for the engine to depend on directly.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/merge"
)

// ErrStore wraps every backend-originated failure; callers can test with
// errors.Is(err, store.ErrStore) regardless of which backend raised it.
var ErrStore = errors.New("store: backend failure")

// WrapError wraps a backend-specific error as an ErrStore so callers can
// use errors.Is uniformly across backends.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store: %s: %w: %w", op, err, ErrStore)
}

// BranchKey identifies a branch node: height in [0, 255], and node_key, the
// canonical path to the node (bits [0, height) are always clear).
type BranchKey struct {
	Height  h256.Height
	NodeKey h256.H256
}

// BranchNode is a stored branch: its left and right children. The
// stored-invariant "not both children are Zero" is enforced by the tree
// engine, not by the store.
type BranchNode struct {
	Left, Right merge.MergeValue
}

// Store is the abstract persistence capability the tree engine and proof
// generator consume. Every method takes a context so slower backends
// (sqlstore, redisstore) can honor cancellation/timeouts; memstore and
// btreestore ignore it.
type Store interface {
	GetBranch(ctx context.Context, key BranchKey) (BranchNode, bool, error)
	GetLeaf(ctx context.Context, key h256.H256) (h256.H256, bool, error)
	InsertBranch(ctx context.Context, key BranchKey, node BranchNode) error
	InsertLeaf(ctx context.Context, key, value h256.H256) error
	RemoveBranch(ctx context.Context, key BranchKey) error
	RemoveLeaf(ctx context.Context, key h256.H256) error
}
