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

// Package proof implements the compiled multi-key proof bytecode: a small
// stack-machine instruction set that reconstructs a tree root from a set of
// leaves without needing the rest of the tree, together with the generator
// that walks a store.Store to emit it and the verifier that replays it.
package proof

import (
	"errors"

	"github.com/transparency-labs/sparsemerkle/h256"
)

// Opcodes, each a single byte followed by its operands with no framing.
const (
	opL byte = 0x4C // push next input leaf
	opP byte = 0x50 // raise one height, plain 32-byte sibling inline
	opQ byte = 0x51 // raise one height, MergeWithZero sibling inline
	opO byte = 0x4F // raise n heights through zero siblings (n==0 means 256)
	opH byte = 0x48 // merge top two stack entries
)

// maxStackDepth is the hard bound on proof-evaluation stack depth; an L or
// H that would push beyond it fails with ErrInvalidStack.
const maxStackDepth = 257

var (
	// ErrInvalidProof reports a structural problem with the proof bytes
	// themselves or their relationship to the supplied leaves: an unknown
	// opcode, truncated operands, a non-terminal stack, a final height
	// other than 256, unused leaves, or an H whose operands don't share a
	// parent path.
	ErrInvalidProof = errors.New("proof: invalid proof")

	// ErrInvalidStack reports a stack underflow or overflow while
	// evaluating a proof.
	ErrInvalidStack = errors.New("proof: invalid stack")

	// ErrInvalidSibling reports malformed sibling operand data. Reserved
	// for a future opcode with variable-length operands; P/Q/O read
	// fixed-width operands and detect truncation as ErrInvalidProof
	// instead.
	ErrInvalidSibling = errors.New("proof: invalid sibling")
)

// CompiledProof is an opaque compiled proof: a sequence of opcodes and
// their operands, no framing around the whole.
type CompiledProof []byte

// Leaf is an input (key, value) pair a proof is generated for or verified
// against. A Leaf with a zero Value represents an exclusion proof for Key.
type Leaf struct {
	Key   h256.H256
	Value h256.H256
}
