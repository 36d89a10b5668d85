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

package smt

import (
	"errors"

	"github.com/transparency-labs/sparsemerkle/proof"
	"github.com/transparency-labs/sparsemerkle/store"
)

// Re-exported so callers of this package never need to import store or
// proof directly just to call errors.Is.
var (
	ErrStore          = store.ErrStore
	ErrInvalidProof   = proof.ErrInvalidProof
	ErrInvalidStack   = proof.ErrInvalidStack
	ErrInvalidSibling = proof.ErrInvalidSibling
)

// ErrKeyAlreadyExists and ErrNotFound are for callers building a
// strict-insert or explicit-lookup wrapper on top of Update/Get; the
// engine itself never returns them, since Update always overwrites and Get
// always succeeds with the zero value for an absent key.
var (
	ErrKeyAlreadyExists = errors.New("smt: key already exists")
	ErrNotFound         = errors.New("smt: not found")
)
