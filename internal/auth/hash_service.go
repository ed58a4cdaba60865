// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"
)

// DefaultHashTimeout bounds one pooled hash or verify call, queue time included.
const DefaultHashTimeout = 10 * time.Second

// Hash operations reported to a Recorder.
const (
	HashOpHash   = "hash"
	HashOpVerify = "verify"
)

// HashService hashes and verifies passwords without blocking the caller's
// goroutine on the hash computation itself.
type HashService interface {
	// Hash returns a salted hash of password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify reports whether password matches hash. A mismatch is (false, nil).
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// HashServiceOption configures a PooledHashService.
type HashServiceOption func(*PooledHashService)

// WithHashTimeout bounds each call. Zero disables the bound.
func WithHashTimeout(d time.Duration) HashServiceOption {
	return func(s *PooledHashService) {
		s.timeout = d
	}
}

// WithHashRecorder sets the recorder that receives hash latencies.
func WithHashRecorder(r Recorder) HashServiceOption {
	return func(s *PooledHashService) {
		s.recorder = r
	}
}

// PooledHashService runs a PasswordHasher on a WorkerPool.
type PooledHashService struct {
	pool     *WorkerPool
	hasher   PasswordHasher
	timeout  time.Duration
	recorder Recorder
}

// NewPooledHashService creates a PooledHashService.
func NewPooledHashService(pool *WorkerPool, hasher PasswordHasher, opts ...HashServiceOption) (*PooledHashService, error) {
	if pool == nil {
		return nil, oops.Errorf("worker pool is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	s := &PooledHashService{
		pool:     pool,
		hasher:   hasher,
		timeout:  DefaultHashTimeout,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Hash computes a hash of password on the pool.
func (s *PooledHashService) Hash(ctx context.Context, password string) (string, error) {
	return callPooled(ctx, s, HashOpHash, func() (string, error) {
		return s.hasher.Hash(password)
	})
}

// Verify checks password against hash on the pool.
func (s *PooledHashService) Verify(ctx context.Context, password, hash string) (bool, error) {
	return callPooled(ctx, s, HashOpVerify, func() (bool, error) {
		return s.hasher.Verify(password, hash)
	})
}

func callPooled[T any](ctx context.Context, s *PooledHashService, op string, fn func() (T, error)) (T, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	val, err := runTask(ctx, s.pool, fn)
	s.recorder.ObserveHash(op, time.Since(start), err)
	if err != nil {
		var zero T
		return zero, oops.Code("HASH_FAILED").
			With("operation", op).
			Wrap(fmt.Errorf("%w: %w", ErrHashFailure, err))
	}
	return val, nil
}

var _ HashService = (*PooledHashService)(nil)
