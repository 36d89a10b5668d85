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

// Package storetest is a black-box conformance suite for store.Store
// backends, so a sequence of operations behaves identically on each
// backend that runs it (backend parity). memstore, btreestore and
// redisstore run it; sqlstore's unit tests use sqlmock and do not.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/merge"
	"github.com/transparency-labs/sparsemerkle/store"
)

// Run exercises newStore() (a fresh, empty store.Store) against the full
// operation battery every backend must satisfy identically.
func Run(t *testing.T, newStore func() store.Store) {
	t.Helper()
	t.Run("MissingBranchNotFound", func(t *testing.T) { testMissingBranchNotFound(t, newStore()) })
	t.Run("MissingLeafNotFound", func(t *testing.T) { testMissingLeafNotFound(t, newStore()) })
	t.Run("LeafRoundTrip", func(t *testing.T) { testLeafRoundTrip(t, newStore()) })
	t.Run("LeafOverwrite", func(t *testing.T) { testLeafOverwrite(t, newStore()) })
	t.Run("LeafRemove", func(t *testing.T) { testLeafRemove(t, newStore()) })
	t.Run("BranchRoundTripEveryMergeKind", func(t *testing.T) { testBranchRoundTripEveryMergeKind(t, newStore()) })
	t.Run("BranchOverwrite", func(t *testing.T) { testBranchOverwrite(t, newStore()) })
	t.Run("BranchRemove", func(t *testing.T) { testBranchRemove(t, newStore()) })
	t.Run("DistinctHeightsDoNotCollide", func(t *testing.T) { testDistinctHeightsDoNotCollide(t, newStore()) })
}

func testMissingBranchNotFound(t *testing.T, s store.Store) {
	_, ok, err := s.GetBranch(context.Background(), store.BranchKey{Height: 10, NodeKey: h256.FromBytes([]byte("nope"))})
	if err != nil {
		t.Fatalf("GetBranch: %v", err)
	}
	if ok {
		t.Error("GetBranch: expected not found on empty store")
	}
}

func testMissingLeafNotFound(t *testing.T, s store.Store) {
	_, ok, err := s.GetLeaf(context.Background(), h256.FromBytes([]byte("nope")))
	if err != nil {
		t.Fatalf("GetLeaf: %v", err)
	}
	if ok {
		t.Error("GetLeaf: expected not found on empty store")
	}
}

func testLeafRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := h256.FromBytes([]byte("k1"))
	value := h256.FromBytes([]byte("v1"))
	if err := s.InsertLeaf(ctx, key, value); err != nil {
		t.Fatalf("InsertLeaf: %v", err)
	}
	got, ok, err := s.GetLeaf(ctx, key)
	if err != nil || !ok {
		t.Fatalf("GetLeaf: ok=%v err=%v", ok, err)
	}
	if got != value {
		t.Errorf("GetLeaf: got %s, want %s", got, value)
	}
}

func testLeafOverwrite(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := h256.FromBytes([]byte("k2"))
	if err := s.InsertLeaf(ctx, key, h256.FromBytes([]byte("v1"))); err != nil {
		t.Fatalf("InsertLeaf 1: %v", err)
	}
	if err := s.InsertLeaf(ctx, key, h256.FromBytes([]byte("v2"))); err != nil {
		t.Fatalf("InsertLeaf 2: %v", err)
	}
	got, ok, err := s.GetLeaf(ctx, key)
	if err != nil || !ok {
		t.Fatalf("GetLeaf: ok=%v err=%v", ok, err)
	}
	if want := h256.FromBytes([]byte("v2")); got != want {
		t.Errorf("GetLeaf after overwrite: got %s, want %s", got, want)
	}
}

func testLeafRemove(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := h256.FromBytes([]byte("k3"))
	if err := s.InsertLeaf(ctx, key, h256.FromBytes([]byte("v"))); err != nil {
		t.Fatalf("InsertLeaf: %v", err)
	}
	if err := s.RemoveLeaf(ctx, key); err != nil {
		t.Fatalf("RemoveLeaf: %v", err)
	}
	if _, ok, err := s.GetLeaf(ctx, key); err != nil || ok {
		t.Fatalf("GetLeaf after remove: ok=%v err=%v", ok, err)
	}
	// Removing an already-absent leaf must not error.
	if err := s.RemoveLeaf(ctx, key); err != nil {
		t.Fatalf("RemoveLeaf of absent leaf: %v", err)
	}
}

func testBranchRoundTripEveryMergeKind(t *testing.T, s store.Store) {
	ctx := context.Background()
	cases := []store.BranchNode{
		{Left: merge.Zero, Right: merge.NewValue(h256.FromBytes([]byte("r")))},
		{Left: merge.NewValue(h256.FromBytes([]byte("l"))), Right: merge.Zero},
		{
			Left: merge.MergeValue{
				Kind:      merge.KindMergeWithZero,
				BaseNode:  h256.FromBytes([]byte("base")),
				ZeroBits:  h256.SetBit(h256.Zero, 4),
				ZeroCount: 2,
			},
			Right: merge.NewValue(h256.FromBytes([]byte("other"))),
		},
	}
	for i, node := range cases {
		key := store.BranchKey{Height: i + 1, NodeKey: h256.FromBytes([]byte{byte(i)})}
		if err := s.InsertBranch(ctx, key, node); err != nil {
			t.Fatalf("InsertBranch[%d]: %v", i, err)
		}
		got, ok, err := s.GetBranch(ctx, key)
		if err != nil || !ok {
			t.Fatalf("GetBranch[%d]: ok=%v err=%v", i, ok, err)
		}
		if diff := cmp.Diff(node, got); diff != "" {
			t.Errorf("GetBranch[%d] mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func testBranchOverwrite(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := store.BranchKey{Height: 5, NodeKey: h256.FromBytes([]byte("ow"))}
	first := store.BranchNode{Left: merge.NewValue(h256.FromBytes([]byte("a"))), Right: merge.Zero}
	second := store.BranchNode{Left: merge.Zero, Right: merge.NewValue(h256.FromBytes([]byte("b")))}

	if err := s.InsertBranch(ctx, key, first); err != nil {
		t.Fatalf("InsertBranch 1: %v", err)
	}
	if err := s.InsertBranch(ctx, key, second); err != nil {
		t.Fatalf("InsertBranch 2: %v", err)
	}
	got, ok, err := s.GetBranch(ctx, key)
	if err != nil || !ok {
		t.Fatalf("GetBranch: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("GetBranch after overwrite mismatch (-want +got):\n%s", diff)
	}
}

func testBranchRemove(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := store.BranchKey{Height: 9, NodeKey: h256.FromBytes([]byte("rm"))}
	node := store.BranchNode{Left: merge.NewValue(h256.FromBytes([]byte("x"))), Right: merge.Zero}
	if err := s.InsertBranch(ctx, key, node); err != nil {
		t.Fatalf("InsertBranch: %v", err)
	}
	if err := s.RemoveBranch(ctx, key); err != nil {
		t.Fatalf("RemoveBranch: %v", err)
	}
	if _, ok, err := s.GetBranch(ctx, key); err != nil || ok {
		t.Fatalf("GetBranch after remove: ok=%v err=%v", ok, err)
	}
}

func testDistinctHeightsDoNotCollide(t *testing.T, s store.Store) {
	ctx := context.Background()
	nodeKey := h256.FromBytes([]byte("shared"))
	a := store.BranchKey{Height: 1, NodeKey: nodeKey}
	b := store.BranchKey{Height: 2, NodeKey: nodeKey}

	nodeA := store.BranchNode{Left: merge.NewValue(h256.FromBytes([]byte("a"))), Right: merge.Zero}
	nodeB := store.BranchNode{Left: merge.Zero, Right: merge.NewValue(h256.FromBytes([]byte("b")))}

	if err := s.InsertBranch(ctx, a, nodeA); err != nil {
		t.Fatalf("InsertBranch a: %v", err)
	}
	if err := s.InsertBranch(ctx, b, nodeB); err != nil {
		t.Fatalf("InsertBranch b: %v", err)
	}

	gotA, ok, err := s.GetBranch(ctx, a)
	if err != nil || !ok {
		t.Fatalf("GetBranch a: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(nodeA, gotA); diff != "" {
		t.Errorf("GetBranch a mismatch (-want +got):\n%s", diff)
	}

	gotB, ok, err := s.GetBranch(ctx, b)
	if err != nil || !ok {
		t.Fatalf("GetBranch b: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(nodeB, gotB); diff != "" {
		t.Errorf("GetBranch b mismatch (-want +got):\n%s", diff)
	}
}
