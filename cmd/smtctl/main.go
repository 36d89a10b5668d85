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

// smtctl is a small command-line driver over the sparsemerkle tree engine,
// exercising the binding surface in package smt end to end: update, get,
// root, prove and verify. The backend is selected with -store and persists
// across invocations only when it's sqlstore; -store=memstore (the
// default) starts a fresh empty tree on every run and exists mainly to
// sanity-check a single proof round trip without any external dependency.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/transparency-labs/sparsemerkle/h256"
	"github.com/transparency-labs/sparsemerkle/hasher"
	"github.com/transparency-labs/sparsemerkle/smt"
	"github.com/transparency-labs/sparsemerkle/store"
	"github.com/transparency-labs/sparsemerkle/store/memstore"
	"github.com/transparency-labs/sparsemerkle/store/sqlstore"
)

var (
	storeFlag = flag.String("store", "memstore", "backend to use: memstore or sqlstore")
	dsnFlag   = flag.String("dsn", "", "database/sql DSN, required when -store=sqlstore")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	s, err := openStore()
	if err != nil {
		glog.Errorf("smtctl: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tree := smt.New(s, hasher.Default())
	ctx := context.Background()

	cmd, rest := args[0], args[1:]
	var runErr error
	switch cmd {
	case "update":
		runErr = runUpdate(ctx, tree, rest)
	case "get":
		runErr = runGet(ctx, tree, rest)
	case "root":
		runErr = runRoot(tree, rest)
	case "prove":
		runErr = runProve(ctx, tree, rest)
	case "verify":
		runErr = runVerify(rest)
	default:
		fmt.Fprintf(os.Stderr, "smtctl: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if runErr != nil {
		glog.Errorf("smtctl: %s: %v", cmd, runErr)
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

func openStore() (store.Store, error) {
	switch *storeFlag {
	case "memstore", "":
		return memstore.New(), nil
	case "sqlstore":
		if *dsnFlag == "" {
			return nil, fmt.Errorf("smtctl: -store=sqlstore requires -dsn")
		}
		return sqlstore.Open(*dsnFlag)
	default:
		return nil, fmt.Errorf("smtctl: unknown -store %q", *storeFlag)
	}
}

func runUpdate(ctx context.Context, tree *smt.Tree, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: smtctl update KEY_HEX VALUE_HEX")
	}
	key, err := parseH256(args[0])
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	value, err := parseH256(args[1])
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if err := tree.Update(ctx, key, value); err != nil {
		return err
	}
	fmt.Printf("root: %s\n", tree.Root())
	return nil
}

func runGet(ctx context.Context, tree *smt.Tree, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: smtctl get KEY_HEX")
	}
	key, err := parseH256(args[0])
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	value, err := tree.Get(ctx, key)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func runRoot(tree *smt.Tree, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: smtctl root")
	}
	fmt.Println(tree.Root())
	return nil
}

func runProve(ctx context.Context, tree *smt.Tree, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: smtctl prove KEY_HEX [KEY_HEX ...]")
	}
	keys := make([]h256.H256, len(args))
	for i, a := range args {
		k, err := parseH256(a)
		if err != nil {
			return fmt.Errorf("key %d: %w", i, err)
		}
		keys[i] = k
	}
	cp, err := tree.MerkleProof(ctx, keys)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(cp))
	return nil
}

func runVerify(args []string) error {
	if len(args) < 4 || len(args)%2 != 0 {
		return fmt.Errorf("usage: smtctl verify ROOT_HEX PROOF_HEX KEY_HEX VALUE_HEX [KEY_HEX VALUE_HEX ...]")
	}
	root, err := parseH256(args[0])
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}
	cp, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("proof: %w", err)
	}

	rest := args[2:]
	pairs := make([][2]h256.H256, len(rest)/2)
	for i := range pairs {
		k, err := parseH256(rest[2*i])
		if err != nil {
			return fmt.Errorf("key %d: %w", i, err)
		}
		v, err := parseH256(rest[2*i+1])
		if err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
		pairs[i] = [2]h256.H256{k, v}
	}

	ok, err := smt.Verify(root, cp, pairs)
	if err != nil {
		return err
	}
	if ok {
		fmt.Println("valid")
		return nil
	}
	fmt.Println("invalid")
	os.Exit(1)
	return nil
}

func parseH256(s string) (h256.H256, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return h256.Zero, err
	}
	if len(b) != h256.Size {
		return h256.Zero, fmt.Errorf("want %d bytes, got %d", h256.Size, len(b))
	}
	return h256.FromBytes(b), nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `smtctl: sparse Merkle tree command-line driver

Usage:
  smtctl [-store memstore|sqlstore] [-dsn DSN] COMMAND [args...]

Commands:
  update KEY_HEX VALUE_HEX               set KEY to VALUE (VALUE all-zero deletes it)
  get KEY_HEX                            print the value stored at KEY
  root                                   print the current root
  prove KEY_HEX [KEY_HEX ...]            print a compiled multi-key proof, hex-encoded
  verify ROOT_HEX PROOF_HEX K V [K V...] check a proof against a claimed root

`)
	flag.PrintDefaults()
}
