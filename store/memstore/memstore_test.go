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

package memstore

import (
	"testing"

	"github.com/transparency-labs/sparsemerkle/store"
	"github.com/transparency-labs/sparsemerkle/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func() store.Store { return New() })
}

func TestLenReportsCounts(t *testing.T) {
	s := New()
	if b, l := s.Len(); b != 0 || l != 0 {
		t.Fatalf("Len on empty store: got (%d, %d), want (0, 0)", b, l)
	}
}
