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

package proof

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/hasher"
	"github.com/transparency-labs/sparsemerkle/merge"
	"github.com/transparency-labs/sparsemerkle/store"
)

// ancestorSlot is one prefetched (BranchKey{h, ParentPath(key, h+1)})
// lookup result for one requested key.
type ancestorSlot struct {
	node store.BranchNode
	ok   bool
}

// Generate produces a compiled multi-key proof for keys against the tree
// backed by s. keys need not be sorted or distinct; Generate sorts and
// deduplicates them (see the package-level note on duplicate keys in
// smt.Tree.MerkleProof).
//
// Sibling reads for each key's full ancestor chain are fanned out across
// an errgroup capped at concurrency (each key gets its own goroutine,
// mirroring the tree engine's store-latency-hiding prefetch), but the
// bytecode emission pass below only runs once every read has completed, so
// the result is always byte-identical regardless of how those reads were
// scheduled.
func Generate(ctx context.Context, s store.Store, hash hasher.Factory, concurrency int, keys []h256.H256) (CompiledProof, error) {
	keys = sortAndDedup(keys)
	if len(keys) == 0 {
		return nil, ErrInvalidProof
	}

	values := make([]h256.H256, len(keys))
	ancestors := make([][256]ancestorSlot, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			v, _, err := s.GetLeaf(gctx, key)
			if err != nil {
				return err
			}
			values[i] = v
			for h := 0; h < 256; h++ {
				bk := store.BranchKey{Height: h, NodeKey: h256.ParentPath(key, h+1)}
				node, ok, err := s.GetBranch(gctx, bk)
				if err != nil {
					return err
				}
				ancestors[i][h] = ancestorSlot{node: node, ok: ok}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return emit(hash, keys, values, ancestors), nil
}

type genCursor struct {
	keyIdx int
	key    h256.H256
	value  merge.MergeValue
	height int
}

// emit is the single-threaded, deterministic bytecode-emission pass. It
// never touches the store; all sibling data was gathered into ancestors
// (ordered by requested key) beforehand.
func emit(hash hasher.Factory, keys []h256.H256, values []h256.H256, ancestors [][256]ancestorSlot) CompiledProof {
	var code []byte
	for range keys {
		code = append(code, opL)
	}

	cursors := make([]genCursor, len(keys))
	for i, k := range keys {
		cursors[i] = genCursor{
			keyIdx: i,
			key:    k,
			value:  merge.Leaf(hash, k, values[i]),
			height: 0,
		}
	}

	for len(cursors) > 1 {
		best := 0
		bestFork := h256.CommonPrefixHeight(cursors[0].key, cursors[1].key)
		for i := 1; i < len(cursors)-1; i++ {
			fork := h256.CommonPrefixHeight(cursors[i].key, cursors[i+1].key)
			if fork < bestFork {
				bestFork = fork
				best = i
			}
		}

		mergeHeight := bestFork - 1
		raise(hash, &cursors[best], mergeHeight, ancestors, &code)
		raise(hash, &cursors[best+1], mergeHeight, ancestors, &code)

		left, right := &cursors[best], &cursors[best+1]
		if h256.GetBit(left.key, mergeHeight) {
			left, right = right, left
		}
		nodeKey := h256.ParentPath(left.key, mergeHeight+1)
		merged := genCursor{
			keyIdx: left.keyIdx,
			key:    nodeKey,
			value:  merge.Merge(hash, mergeHeight, nodeKey, left.value, right.value),
			height: mergeHeight + 1,
		}
		code = append(code, opH)

		next := make([]genCursor, 0, len(cursors)-1)
		next = append(next, cursors[:best]...)
		next = append(next, merged)
		next = append(next, cursors[best+2:]...)
		cursors = next
	}

	raise(hash, &cursors[0], 256, ancestors, &code)
	return code
}

// raise emits opcodes advancing cur from its current height up to (and not
// past) target, absorbing whatever sibling data the prefetch found at each
// intervening height, preferring O over a run of P/Q against zero
// siblings.
func raise(hash hasher.Factory, cur *genCursor, target int, ancestors [][256]ancestorSlot, code *[]byte) {
	for cur.height < target {
		h := cur.height
		sibling := siblingAt(cur, h, ancestors)

		if sibling.IsZero() {
			n := 0
			for hh := h; hh < target; hh++ {
				if !siblingAt(cur, hh, ancestors).IsZero() {
					break
				}
				n++
			}
			opByte := byte(n)
			if n == 256 {
				opByte = 0
			}
			*code = append(*code, opO, opByte)
			for i := 0; i < n; i++ {
				hh := h + i
				nodeKey := h256.ParentPath(cur.key, hh+1)
				if h256.GetBit(cur.key, hh) {
					cur.value = merge.Merge(hash, hh, nodeKey, merge.Zero, cur.value)
				} else {
					cur.value = merge.Merge(hash, hh, nodeKey, cur.value, merge.Zero)
				}
			}
			cur.height += n
			continue
		}

		nodeKey := h256.ParentPath(cur.key, h+1)
		if sibling.Kind == merge.KindMergeWithZero {
			*code = append(*code, opQ, sibling.ZeroCount)
			*code = append(*code, sibling.BaseNode[:]...)
			*code = append(*code, sibling.ZeroBits[:]...)
		} else {
			*code = append(*code, opP)
			*code = append(*code, sibling.Value[:]...)
		}
		if h256.GetBit(cur.key, h) {
			cur.value = merge.Merge(hash, h, nodeKey, sibling, cur.value)
		} else {
			cur.value = merge.Merge(hash, h, nodeKey, cur.value, sibling)
		}
		cur.height++
	}
}

func siblingAt(cur *genCursor, h int, ancestors [][256]ancestorSlot) merge.MergeValue {
	slot := ancestors[cur.keyIdx][h]
	if !slot.ok {
		return merge.Zero
	}
	if h256.GetBit(cur.key, h) {
		return slot.node.Left
	}
	return slot.node.Right
}

func sortAndDedup(keys []h256.H256) []h256.H256 {
	if len(keys) == 0 {
		return nil
	}
	sorted := make([]h256.H256, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return h256.Less(sorted[i], sorted[j]) })

	out := sorted[:1]
	for _, k := range sorted[1:] {
		if k != out[len(out)-1] {
			out = append(out, k)
		}
	}
	return out
}
