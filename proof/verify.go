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
	"sort"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/hasher"
	"github.com/transparency-labs/sparsemerkle/merge"
)

type stackEntry struct {
	key    h256.H256
	value  merge.MergeValue
	height int
}

// ComputeRoot replays proof against leaves (sorted ascending by key and
// deduplicated the same way Generate produces them) and returns the
// reconstructed root. It returns ErrInvalidProof for any structural
// problem and ErrInvalidStack for a depth violation.
func ComputeRoot(hash hasher.Factory, leaves []Leaf, cp CompiledProof) (h256.H256, error) {
	sorted := sortAndDedupLeaves(leaves)

	var stack []stackEntry
	push := func(e stackEntry) error {
		if len(stack) >= maxStackDepth {
			return ErrInvalidStack
		}
		stack = append(stack, e)
		return nil
	}

	leafIdx := 0
	b := []byte(cp)
	i := 0
	for i < len(b) {
		op := b[i]
		i++
		switch op {
		case opL:
			if leafIdx >= len(sorted) {
				return h256.Zero, ErrInvalidProof
			}
			leaf := sorted[leafIdx]
			leafIdx++
			if err := push(stackEntry{key: leaf.Key, value: merge.Leaf(hash, leaf.Key, leaf.Value), height: 0}); err != nil {
				return h256.Zero, err
			}

		case opP:
			if i+h256.Size > len(b) {
				return h256.Zero, ErrInvalidProof
			}
			sibling := merge.NewValue(h256.FromBytes(b[i : i+h256.Size]))
			i += h256.Size
			if err := raiseTop(hash, &stack, sibling); err != nil {
				return h256.Zero, err
			}

		case opQ:
			if i+1+2*h256.Size > len(b) {
				return h256.Zero, ErrInvalidProof
			}
			zc := b[i]
			i++
			base := h256.FromBytes(b[i : i+h256.Size])
			i += h256.Size
			zb := h256.FromBytes(b[i : i+h256.Size])
			i += h256.Size
			sibling := merge.MergeValue{Kind: merge.KindMergeWithZero, BaseNode: base, ZeroBits: zb, ZeroCount: zc}
			if err := raiseTop(hash, &stack, sibling); err != nil {
				return h256.Zero, err
			}

		case opO:
			if i >= len(b) {
				return h256.Zero, ErrInvalidProof
			}
			n := int(b[i])
			i++
			if n == 0 {
				n = 256
			}
			if len(stack) == 0 {
				return h256.Zero, ErrInvalidStack
			}
			top := stack[len(stack)-1]
			if top.height+n > 256 {
				return h256.Zero, ErrInvalidProof
			}
			for s := 0; s < n; s++ {
				h := top.height + s
				nodeKey := h256.ParentPath(top.key, h+1)
				if h256.GetBit(top.key, h) {
					top.value = merge.Merge(hash, h, nodeKey, merge.Zero, top.value)
				} else {
					top.value = merge.Merge(hash, h, nodeKey, top.value, merge.Zero)
				}
			}
			top.key = h256.ParentPath(top.key, top.height+n)
			top.height += n
			stack[len(stack)-1] = top

		case opH:
			if len(stack) < 2 {
				return h256.Zero, ErrInvalidStack
			}
			a := stack[len(stack)-2]
			b2 := stack[len(stack)-1]
			if a.height != b2.height {
				return h256.Zero, ErrInvalidProof
			}
			h := a.height
			if h >= 256 {
				return h256.Zero, ErrInvalidProof
			}
			if h256.ParentPath(a.key, h+1) != h256.ParentPath(b2.key, h+1) {
				return h256.Zero, ErrInvalidProof
			}
			if h256.GetBit(a.key, h) == h256.GetBit(b2.key, h) {
				return h256.Zero, ErrInvalidProof
			}
			left, right := a, b2
			if h256.GetBit(a.key, h) {
				left, right = b2, a
			}
			nodeKey := h256.ParentPath(left.key, h+1)
			merged := stackEntry{
				key:    nodeKey,
				value:  merge.Merge(hash, h, nodeKey, left.value, right.value),
				height: h + 1,
			}
			stack = stack[:len(stack)-2]
			if err := push(merged); err != nil {
				return h256.Zero, err
			}

		default:
			return h256.Zero, ErrInvalidProof
		}
	}

	if leafIdx != len(sorted) {
		return h256.Zero, ErrInvalidProof
	}
	if len(stack) != 1 {
		return h256.Zero, ErrInvalidProof
	}
	top := stack[0]
	if top.height != 256 {
		return h256.Zero, ErrInvalidProof
	}
	return top.value.Hash(hash), nil
}

// raiseTop combines the top stack entry with sibling via Merge and
// replaces it in place, one height higher.
func raiseTop(hash hasher.Factory, stack *[]stackEntry, sibling merge.MergeValue) error {
	if len(*stack) == 0 {
		return ErrInvalidStack
	}
	top := (*stack)[len(*stack)-1]
	if top.height >= 256 {
		return ErrInvalidProof
	}
	nodeKey := h256.ParentPath(top.key, top.height+1)
	var merged merge.MergeValue
	if h256.GetBit(top.key, top.height) {
		merged = merge.Merge(hash, top.height, nodeKey, sibling, top.value)
	} else {
		merged = merge.Merge(hash, top.height, nodeKey, top.value, sibling)
	}
	(*stack)[len(*stack)-1] = stackEntry{key: nodeKey, value: merged, height: top.height + 1}
	return nil
}

// Verify reports whether proof reconstructs root from leaves. A proof that
// cannot be evaluated is reported as (false, err), with err the
// ErrInvalidProof or ErrInvalidStack that ComputeRoot returned, so callers
// can distinguish "proof says no" from "proof is garbage"; a proof that
// evaluates to a different root is a plain false with a nil error.
func Verify(hash hasher.Factory, root h256.H256, leaves []Leaf, cp CompiledProof) (bool, error) {
	got, err := ComputeRoot(hash, leaves, cp)
	if err != nil {
		return false, err
	}
	return got == root, nil
}

func sortAndDedupLeaves(leaves []Leaf) []Leaf {
	if len(leaves) == 0 {
		return nil
	}
	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool { return h256.Less(sorted[i].Key, sorted[j].Key) })

	out := sorted[:1]
	for _, l := range sorted[1:] {
		if l.Key != out[len(out)-1].Key {
			out = append(out, l)
		}
	}
	return out
}
