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

// Package redisstore provides a Store backend over github.com/go-redis/redis,
// storing each branch record as a Redis hash and each leaf record as a
// plain Redis string holding the hex-encoded value. It trades the
// relational guarantees of sqlstore for a fast, shared, cache-style store.
//
// The pinned go-redis v6 client predates context-aware commands, so the
// context.Context accepted by every method here is honored only for
// cancellation checks before issuing a command, not passed through to the
// client itself.
package redisstore

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/go-redis/redis"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/merge"
	"github.com/transparency-labs/sparsemerkle/store"
)

const (
	branchKeyPrefix = "smt:b:"
	leafKeyPrefix   = "smt:l:"
)

// Store is a Store backend over a Redis hash per branch and a Redis string
// per leaf.
type Store struct {
	client *redis.Client
}

// New wraps an already-configured *redis.Client as a Store.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Open dials a Redis server at addr (as accepted by redis.Options.Addr)
// and returns a Store backed by it.
func Open(addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping().Err(); err != nil {
		return nil, store.WrapError("open", err)
	}
	return New(client), nil
}

func branchRedisKey(key store.BranchKey) string {
	return fmt.Sprintf("%s%d:%s", branchKeyPrefix, key.Height, hex.EncodeToString(key.NodeKey[:]))
}

func leafRedisKey(key h256.H256) string {
	return leafKeyPrefix + hex.EncodeToString(key[:])
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (s *Store) GetBranch(ctx context.Context, key store.BranchKey) (store.BranchNode, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return store.BranchNode{}, false, err
	}
	fields, err := s.client.HGetAll(branchRedisKey(key)).Result()
	if err != nil {
		return store.BranchNode{}, false, store.WrapError("get_branch", err)
	}
	if len(fields) == 0 {
		return store.BranchNode{}, false, nil
	}
	left, err := mergeValueFromFields(fields, "l")
	if err != nil {
		return store.BranchNode{}, false, store.WrapError("get_branch: decode left", err)
	}
	right, err := mergeValueFromFields(fields, "r")
	if err != nil {
		return store.BranchNode{}, false, store.WrapError("get_branch: decode right", err)
	}
	return store.BranchNode{Left: left, Right: right}, true, nil
}

func (s *Store) GetLeaf(ctx context.Context, key h256.H256) (h256.H256, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return h256.Zero, false, err
	}
	raw, err := s.client.Get(leafRedisKey(key)).Result()
	if err == redis.Nil {
		return h256.Zero, false, nil
	}
	if err != nil {
		return h256.Zero, false, store.WrapError("get_leaf", err)
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return h256.Zero, false, store.WrapError("get_leaf: decode", err)
	}
	return h256.FromBytes(decoded), true, nil
}

func (s *Store) InsertBranch(ctx context.Context, key store.BranchKey, node store.BranchNode) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	fields := map[string]interface{}{}
	mergeValueToFields(fields, "l", node.Left)
	mergeValueToFields(fields, "r", node.Right)
	if err := s.client.HMSet(branchRedisKey(key), fields).Err(); err != nil {
		return store.WrapError("insert_branch", err)
	}
	return nil
}

func (s *Store) InsertLeaf(ctx context.Context, key, value h256.H256) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if err := s.client.Set(leafRedisKey(key), hex.EncodeToString(value[:]), 0).Err(); err != nil {
		return store.WrapError("insert_leaf", err)
	}
	return nil
}

func (s *Store) RemoveBranch(ctx context.Context, key store.BranchKey) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if err := s.client.Del(branchRedisKey(key)).Err(); err != nil {
		return store.WrapError("remove_branch", err)
	}
	return nil
}

func (s *Store) RemoveLeaf(ctx context.Context, key h256.H256) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if err := s.client.Del(leafRedisKey(key)).Err(); err != nil {
		return store.WrapError("remove_leaf", err)
	}
	return nil
}

func mergeValueToFields(fields map[string]interface{}, side string, v merge.MergeValue) {
	fields["kind_"+side] = fmt.Sprintf("%d", v.Kind)
	fields["value_"+side] = hex.EncodeToString(v.Value[:])
	fields["base_"+side] = hex.EncodeToString(v.BaseNode[:])
	fields["zbits_"+side] = hex.EncodeToString(v.ZeroBits[:])
	fields["zcount_"+side] = fmt.Sprintf("%d", v.ZeroCount)
}

func mergeValueFromFields(fields map[string]string, side string) (merge.MergeValue, error) {
	var kind uint8
	if _, err := fmt.Sscanf(fields["kind_"+side], "%d", &kind); err != nil {
		return merge.MergeValue{}, fmt.Errorf("decode kind: %w", err)
	}
	switch merge.Kind(kind) {
	case merge.KindZero:
		return merge.Zero, nil
	case merge.KindValue:
		value, err := hexToH256(fields["value_"+side])
		if err != nil {
			return merge.MergeValue{}, err
		}
		return merge.NewValue(value), nil
	case merge.KindMergeWithZero:
		base, err := hexToH256(fields["base_"+side])
		if err != nil {
			return merge.MergeValue{}, err
		}
		zbits, err := hexToH256(fields["zbits_"+side])
		if err != nil {
			return merge.MergeValue{}, err
		}
		var zcount uint8
		if _, err := fmt.Sscanf(fields["zcount_"+side], "%d", &zcount); err != nil {
			return merge.MergeValue{}, fmt.Errorf("decode zero_count: %w", err)
		}
		return merge.MergeValue{Kind: merge.KindMergeWithZero, BaseNode: base, ZeroBits: zbits, ZeroCount: zcount}, nil
	default:
		return merge.MergeValue{}, fmt.Errorf("invalid stored merge kind %d", kind)
	}
}

func hexToH256(s string) (h256.H256, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return h256.Zero, fmt.Errorf("decode hex: %w", err)
	}
	return h256.FromBytes(b), nil
}

var _ store.Store = (*Store)(nil)
