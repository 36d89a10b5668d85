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

// Package hasher provides the pluggable, domain-taggable 256-bit streaming
// digest the rest of the tree builds on. It does not itself prepend any
// domain-separation tag — callers (merge, smt) prepend their own tag bytes
// before streaming data through a Factory-produced hash.Hash.
package hasher

import (
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/transparency-labs/sparsemerkle/h256"
)

// DefaultPersonalization is the personalization string used by the
// default BLAKE2b-256 factory. The default factory passes it as the
// BLAKE2b key (see Blake2b256), not as the parameter-block personalization
// field, so its digests differ from BLAKE2b-256 personalized with the same
// string.
const DefaultPersonalization = "ckb-default-hash"

// Factory produces a fresh hash.Hash each time it's called. Implementations
// must return a digest with a 32-byte Sum, since the rest of the tree
// assumes H256-sized output.
type Factory func() hash.Hash

// Blake2b256 returns a Factory producing BLAKE2b-256 hashers personalized
// with person. golang.org/x/crypto/blake2b does not expose BLAKE2b's
// parameter-block personalization field publicly, so personalization is
// carried instead by BLAKE2b's native keyed mode (blake2b.New(size, key)):
// person becomes the MAC key, which is just as effective a domain separator
// between independently-deployed trees and remains within blake2b's
// documented, public API. An empty person produces plain unkeyed
// BLAKE2b-256.
func Blake2b256(person string) Factory {
	var key []byte
	if person != "" {
		key = []byte(person)
	}
	return func() hash.Hash {
		h, err := blake2b.New(h256.Size, key)
		if err != nil {
			panic("hasher: blake2b.New failed: " + err.Error())
		}
		return h
	}
}

// Default is the library-wide default hash factory: BLAKE2b-256 keyed
// with DefaultPersonalization.
func Default() Factory {
	return Blake2b256(DefaultPersonalization)
}

// Digest streams each element of data through a freshly constructed hasher
// from factory and returns the resulting H256. This is the convenience
// helper exposed on the package's binding surface.
func Digest(factory Factory, data ...[]byte) h256.H256 {
	h := factory()
	for _, d := range data {
		h.Write(d)
	}
	var out h256.H256
	copy(out[:], h.Sum(nil))
	return out
}
