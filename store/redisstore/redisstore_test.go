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

package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
	"github.com/google/go-cmp/cmp"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/merge"
	"github.com/transparency-labs/sparsemerkle/store"
	"github.com/transparency-labs/sparsemerkle/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func() store.Store { return newTestStore(t) })
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func TestLeafRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := h256.FromBytes([]byte("leaf-key"))
	value := h256.FromBytes([]byte("leaf-value"))

	if _, ok, err := s.GetLeaf(ctx, key); err != nil || ok {
		t.Fatalf("GetLeaf before insert: ok=%v err=%v", ok, err)
	}
	if err := s.InsertLeaf(ctx, key, value); err != nil {
		t.Fatalf("InsertLeaf: %v", err)
	}
	got, ok, err := s.GetLeaf(ctx, key)
	if err != nil || !ok {
		t.Fatalf("GetLeaf after insert: ok=%v err=%v", ok, err)
	}
	if got != value {
		t.Errorf("GetLeaf: got %s, want %s", got, value)
	}

	if err := s.RemoveLeaf(ctx, key); err != nil {
		t.Fatalf("RemoveLeaf: %v", err)
	}
	if _, ok, err := s.GetLeaf(ctx, key); err != nil || ok {
		t.Fatalf("GetLeaf after remove: ok=%v err=%v", ok, err)
	}
}

func TestBranchRoundTripAllKinds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key := store.BranchKey{Height: 12, NodeKey: h256.FromBytes([]byte("branch"))}
	node := store.BranchNode{
		Left: merge.NewValue(h256.FromBytes([]byte("left-hash"))),
		Right: merge.MergeValue{
			Kind:      merge.KindMergeWithZero,
			BaseNode:  h256.FromBytes([]byte("base")),
			ZeroBits:  h256.SetBit(h256.Zero, 3),
			ZeroCount: 5,
		},
	}

	if err := s.InsertBranch(ctx, key, node); err != nil {
		t.Fatalf("InsertBranch: %v", err)
	}
	got, ok, err := s.GetBranch(ctx, key)
	if err != nil || !ok {
		t.Fatalf("GetBranch: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(node, got); diff != "" {
		t.Errorf("GetBranch mismatch (-want +got):\n%s", diff)
	}

	if err := s.RemoveBranch(ctx, key); err != nil {
		t.Fatalf("RemoveBranch: %v", err)
	}
	if _, ok, err := s.GetBranch(ctx, key); err != nil || ok {
		t.Fatalf("GetBranch after remove: ok=%v err=%v", ok, err)
	}
}

func TestGetBranchMissingReturnsZeroValue(t *testing.T) {
	s := newTestStore(t)
	got, ok, err := s.GetBranch(context.Background(), store.BranchKey{Height: 1, NodeKey: h256.Zero})
	if err != nil {
		t.Fatalf("GetBranch: %v", err)
	}
	if ok {
		t.Fatalf("GetBranch: expected not found, got %+v", got)
	}
}

func TestContextCancellationShortCircuits(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.InsertLeaf(ctx, h256.Zero, h256.FromBytes([]byte("v"))); err == nil {
		t.Fatal("InsertLeaf: expected context error")
	}
}
