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

// Package merge implements the tagged MergeValue union and the zero-aware
// merge function that combines two child values into their parent, without
// ever consulting a pre-computed table of per-height zero hashes.
package merge

import (
	"fmt"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/hasher"
)

// Domain-separation tags. 0x00 is reserved for leaf hashing (see Leaf
// below) and is not used by Merge itself, but is documented here since all
// three tags share one namespace.
const (
	tagLeaf          = 0x00
	tagBothNonZero   = 0x01
	tagMergeWithZero = 0x02
)

// Kind discriminates the three MergeValue variants. Go has no native sum
// type, so MergeValue is a struct carrying every variant's fields with Kind
// selecting which are meaningful.
type Kind uint8

const (
	// KindZero represents an all-zero H256 subtree root.
	KindZero Kind = iota
	// KindValue is a non-zero 32-byte hash.
	KindValue
	// KindMergeWithZero is the lazy zero-run encoding.
	KindMergeWithZero
)

// MergeValue is the in-memory child/parent value type used throughout the
// tree: Zero, Value(h), or MergeWithZero{base_node, zero_bits, zero_count}.
type MergeValue struct {
	Kind Kind

	// Value holds the 32-byte hash when Kind == KindValue.
	Value h256.H256

	// BaseNode, ZeroBits, ZeroCount hold the MergeWithZero encoding when
	// Kind == KindMergeWithZero.
	BaseNode  h256.H256
	ZeroBits  h256.H256
	ZeroCount uint8
}

// Zero is the MergeValue representing an all-zero subtree.
var Zero = MergeValue{Kind: KindZero}

// NewValue wraps a non-zero hash as a KindValue MergeValue. Passing the
// zero hash returns Zero instead, since a MergeValue never encodes "Value
// holding all zero bytes" as anything but the Zero variant itself.
func NewValue(h h256.H256) MergeValue {
	if h.IsZero() {
		return Zero
	}
	return MergeValue{Kind: KindValue, Value: h}
}

// IsZero reports whether v is the Zero variant.
func (v MergeValue) IsZero() bool {
	return v.Kind == KindZero
}

// Hash collapses v to its scalar 256-bit representation:
//
//	Zero           -> 0x00...00
//	Value(h)       -> h
//	MergeWithZero  -> H(0x02 || base_node || zero_bits || zero_count)
func (v MergeValue) Hash(factory hasher.Factory) h256.H256 {
	switch v.Kind {
	case KindZero:
		return h256.Zero
	case KindValue:
		return v.Value
	case KindMergeWithZero:
		return hasher.Digest(factory,
			[]byte{tagMergeWithZero},
			v.BaseNode[:],
			v.ZeroBits[:],
			[]byte{v.ZeroCount},
		)
	default:
		panic(fmt.Sprintf("merge: invalid MergeValue kind %d", v.Kind))
	}
}

// Leaf returns the MergeValue a leaf with the given key and value enters
// the tree as at height 0: Zero if value is the zero H256, otherwise
// Value(H(0x00 || key || value)).
func Leaf(factory hasher.Factory, key, value h256.H256) MergeValue {
	if value.IsZero() {
		return Zero
	}
	return NewValue(hasher.Digest(factory, []byte{tagLeaf}, key[:], value[:]))
}

// Merge combines the lhs/rhs children of the branch at the given height
// and node_key (the canonical path of the *parent* node, i.e.
// h256.ParentPath(key, height+1)) into their parent MergeValue.
func Merge(factory hasher.Factory, height h256.Height, nodeKey h256.H256, lhs, rhs MergeValue) MergeValue {
	switch {
	case lhs.IsZero() && rhs.IsZero():
		return Zero
	case lhs.IsZero():
		return mergeWithZero(factory, height, nodeKey, rhs, false)
	case rhs.IsZero():
		return mergeWithZero(factory, height, nodeKey, lhs, true)
	default:
		lhsHash := lhs.Hash(factory)
		rhsHash := rhs.Hash(factory)
		return NewValue(hasher.Digest(factory,
			[]byte{tagBothNonZero},
			[]byte{byte(height)},
			nodeKey[:],
			lhsHash[:],
			rhsHash[:],
		))
	}
}

// mergeWithZero produces the MergeValue for combining other (non-zero)
// with a Zero sibling at the given height. zeroOnRight records which side
// held the zero: true if the zero sibling was the right child.
func mergeWithZero(factory hasher.Factory, height h256.Height, nodeKey h256.H256, other MergeValue, zeroOnRight bool) MergeValue {
	if other.Kind == KindMergeWithZero {
		zeroBits := other.ZeroBits
		if zeroOnRight {
			zeroBits = h256.SetBit(zeroBits, height)
		}
		return MergeValue{
			Kind:      KindMergeWithZero,
			BaseNode:  other.BaseNode,
			ZeroBits:  zeroBits,
			ZeroCount: other.ZeroCount + 1,
		}
	}

	// other is KindValue: compute a fresh base_node anchoring this
	// subtree's one non-trivial ancestor.
	baseNode := hasher.Digest(factory, []byte{byte(height)}, nodeKey[:], other.Value[:])
	zeroBits := h256.Zero
	if zeroOnRight {
		zeroBits = h256.SetBit(zeroBits, height)
	}
	return MergeValue{
		Kind:      KindMergeWithZero,
		BaseNode:  baseNode,
		ZeroBits:  zeroBits,
		ZeroCount: 1,
	}
}
