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

// Package sqlstore provides a Store backend over database/sql, using
// github.com/go-sql-driver/mysql as its registered driver, for callers who
// want tree state to live in a shared relational database rather than
// process memory.
//
// # Schema
//
//	CREATE TABLE smt_branches (
//	  height            INT NOT NULL,
//	  node_key          BINARY(32) NOT NULL,
//	  left_kind         TINYINT NOT NULL,
//	  left_value        BINARY(32) NOT NULL,
//	  left_base_node    BINARY(32) NOT NULL,
//	  left_zero_bits    BINARY(32) NOT NULL,
//	  left_zero_count   TINYINT NOT NULL,
//	  right_kind        TINYINT NOT NULL,
//	  right_value       BINARY(32) NOT NULL,
//	  right_base_node   BINARY(32) NOT NULL,
//	  right_zero_bits   BINARY(32) NOT NULL,
//	  right_zero_count  TINYINT NOT NULL,
//	  PRIMARY KEY (height, node_key)
//	);
//	CREATE TABLE smt_leaves (
//	  leaf_key BINARY(32) NOT NULL PRIMARY KEY,
//	  value    BINARY(32) NOT NULL
//	);
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "mysql" driver used by Open.
	_ "github.com/go-sql-driver/mysql"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/merge"
	"github.com/transparency-labs/sparsemerkle/store"
)

// conn is the subset of *sql.DB / *sql.Tx the backend needs, letting
// callers hand in a transaction for all-or-nothing Update semantics.
type conn interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store is a Store backend over a SQL database reachable via conn.
type Store struct {
	db conn
}

// Open opens a MySQL connection pool at dsn and returns a Store backed by
// it. The caller is responsible for having created the schema documented
// in the package comment.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, store.WrapError("open", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-open connection or transaction as a Store. Passing
// a *sql.Tx gives Update-sized batches of writes all-or-nothing semantics
// the engine itself does not provide.
func New(c conn) *Store {
	return &Store{db: c}
}

func (s *Store) GetBranch(ctx context.Context, key store.BranchKey) (store.BranchNode, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT left_kind, left_value, left_base_node, left_zero_bits, left_zero_count,
		       right_kind, right_value, right_base_node, right_zero_bits, right_zero_count
		FROM smt_branches WHERE height = ? AND node_key = ?`,
		key.Height, key.NodeKey[:])

	var left, right mergeRow
	err := row.Scan(
		&left.kind, &left.value, &left.baseNode, &left.zeroBits, &left.zeroCount,
		&right.kind, &right.value, &right.baseNode, &right.zeroBits, &right.zeroCount,
	)
	if err == sql.ErrNoRows {
		return store.BranchNode{}, false, nil
	}
	if err != nil {
		return store.BranchNode{}, false, store.WrapError("get_branch", err)
	}

	l, err := left.toMergeValue()
	if err != nil {
		return store.BranchNode{}, false, store.WrapError("get_branch: decode left", err)
	}
	r, err := right.toMergeValue()
	if err != nil {
		return store.BranchNode{}, false, store.WrapError("get_branch: decode right", err)
	}
	return store.BranchNode{Left: l, Right: r}, true, nil
}

func (s *Store) GetLeaf(ctx context.Context, key h256.H256) (h256.H256, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM smt_leaves WHERE leaf_key = ?`, key[:])
	var raw []byte
	if err := row.Scan(&raw); err == sql.ErrNoRows {
		return h256.Zero, false, nil
	} else if err != nil {
		return h256.Zero, false, store.WrapError("get_leaf", err)
	}
	return h256.FromBytes(raw), true, nil
}

func (s *Store) InsertBranch(ctx context.Context, key store.BranchKey, node store.BranchNode) error {
	left := fromMergeValue(node.Left)
	right := fromMergeValue(node.Right)
	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO smt_branches
		  (height, node_key,
		   left_kind, left_value, left_base_node, left_zero_bits, left_zero_count,
		   right_kind, right_value, right_base_node, right_zero_bits, right_zero_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Height, key.NodeKey[:],
		left.kind, left.value, left.baseNode, left.zeroBits, left.zeroCount,
		right.kind, right.value, right.baseNode, right.zeroBits, right.zeroCount,
	)
	if err != nil {
		return store.WrapError("insert_branch", err)
	}
	return nil
}

func (s *Store) InsertLeaf(ctx context.Context, key, value h256.H256) error {
	_, err := s.db.ExecContext(ctx, `REPLACE INTO smt_leaves (leaf_key, value) VALUES (?, ?)`, key[:], value[:])
	if err != nil {
		return store.WrapError("insert_leaf", err)
	}
	return nil
}

func (s *Store) RemoveBranch(ctx context.Context, key store.BranchKey) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM smt_branches WHERE height = ? AND node_key = ?`, key.Height, key.NodeKey[:])
	if err != nil {
		return store.WrapError("remove_branch", err)
	}
	return nil
}

func (s *Store) RemoveLeaf(ctx context.Context, key h256.H256) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM smt_leaves WHERE leaf_key = ?`, key[:])
	if err != nil {
		return store.WrapError("remove_leaf", err)
	}
	return nil
}

// mergeRow is the flat column representation of one MergeValue.
type mergeRow struct {
	kind      uint8
	value     []byte
	baseNode  []byte
	zeroBits  []byte
	zeroCount uint8
}

func fromMergeValue(v merge.MergeValue) mergeRow {
	r := mergeRow{
		kind:      uint8(v.Kind),
		value:     make([]byte, h256.Size),
		baseNode:  make([]byte, h256.Size),
		zeroBits:  make([]byte, h256.Size),
		zeroCount: v.ZeroCount,
	}
	copy(r.value, v.Value[:])
	copy(r.baseNode, v.BaseNode[:])
	copy(r.zeroBits, v.ZeroBits[:])
	return r
}

func (r mergeRow) toMergeValue() (merge.MergeValue, error) {
	switch merge.Kind(r.kind) {
	case merge.KindZero:
		return merge.Zero, nil
	case merge.KindValue:
		return merge.NewValue(h256.FromBytes(r.value)), nil
	case merge.KindMergeWithZero:
		return merge.MergeValue{
			Kind:      merge.KindMergeWithZero,
			BaseNode:  h256.FromBytes(r.baseNode),
			ZeroBits:  h256.FromBytes(r.zeroBits),
			ZeroCount: r.zeroCount,
		}, nil
	default:
		return merge.MergeValue{}, fmt.Errorf("sqlstore: invalid stored merge kind %d", r.kind)
	}
}

var _ store.Store = (*Store)(nil)
