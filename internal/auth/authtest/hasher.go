// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package authtest

import (
	"strings"

	"github.com/tier-app/tier/internal/auth"
)

// BlockingHasher is an auth.PasswordHasher whose calls block until Release
// is closed. Each call sends on Started (if non-nil) before blocking.
type BlockingHasher struct {
	Started chan struct{}
	Release chan struct{}
}

// NewBlockingHasher creates a BlockingHasher with a Started buffer of n.
func NewBlockingHasher(n int) *BlockingHasher {
	return &BlockingHasher{
		Started: make(chan struct{}, n),
		Release: make(chan struct{}),
	}
}

// Hash blocks, then returns a reversible fake hash.
func (h *BlockingHasher) Hash(password string) (string, error) {
	h.wait()
	return "plain$" + password, nil
}

// Verify blocks, then compares against a hash produced by Hash.
func (h *BlockingHasher) Verify(password, hash string) (bool, error) {
	h.wait()
	return strings.TrimPrefix(hash, "plain$") == password, nil
}

func (h *BlockingHasher) wait() {
	if h.Started != nil {
		h.Started <- struct{}{}
	}
	<-h.Release
}

// FuncHasher adapts functions to auth.PasswordHasher.
type FuncHasher struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(password, hash string) (bool, error)
}

// Hash calls HashFunc.
func (h FuncHasher) Hash(password string) (string, error) { return h.HashFunc(password) }

// Verify calls VerifyFunc.
func (h FuncHasher) Verify(password, hash string) (bool, error) { return h.VerifyFunc(password, hash) }

var (
	_ auth.PasswordHasher = (*BlockingHasher)(nil)
	_ auth.PasswordHasher = FuncHasher{}
)
