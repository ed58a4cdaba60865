// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/tier-app/tier/internal/auth"
	"github.com/tier-app/tier/internal/auth/authtest"
)

type recordedHash struct {
	op  string
	err error
}

type fakeRecorder struct {
	mu     sync.Mutex
	hashes []recordedHash
	auths  map[string]int
}

func (r *fakeRecorder) RecordAuth(flow, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.auths == nil {
		r.auths = make(map[string]int)
	}
	r.auths[flow+"/"+outcome]++
}

func (r *fakeRecorder) ObserveHash(op string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes = append(r.hashes, recordedHash{op: op, err: err})
}

func (r *fakeRecorder) SetHashQueueDepth(int) {}

func (r *fakeRecorder) authCount(flow, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.auths[flow+"/"+outcome]
}

func newPool(t *testing.T, workers int) *auth.WorkerPool {
	t.Helper()
	p, err := auth.NewWorkerPool(workers, auth.DefaultPoolQueueSize)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNewPooledHashService_NilDependencies(t *testing.T) {
	pool := newPool(t, 1)

	_, err := auth.NewPooledHashService(nil, auth.NewArgon2idHasher())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker pool is required")

	_, err = auth.NewPooledHashService(pool, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password hasher is required")
}

func TestPooledHashService_RoundTrip(t *testing.T) {
	hasher, err := auth.NewPasswordHasher(auth.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	rec := &fakeRecorder{}
	svc, err := auth.NewPooledHashService(newPool(t, 2), hasher, auth.WithHashRecorder(rec))
	require.NoError(t, err)

	ctx := context.Background()
	hash, err := svc.Hash(ctx, "p1")
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, "p1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, "p2", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, rec.hashes, 3)
	assert.Equal(t, auth.HashOpHash, rec.hashes[0].op)
	assert.Equal(t, auth.HashOpVerify, rec.hashes[1].op)
}

func TestPooledHashService_AlgorithmErrorIsHashFailure(t *testing.T) {
	hasher, err := auth.NewPasswordHasher(auth.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	svc, err := auth.NewPooledHashService(newPool(t, 1), hasher)
	require.NoError(t, err)

	ok, err := svc.Verify(context.Background(), "pw", "garbage")
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, auth.ErrHashFailure)
	authtest.AssertErrorContext(t, err, "operation", auth.HashOpVerify)
}

func TestPooledHashService_PanicIsHashFailure(t *testing.T) {
	hasher := authtest.FuncHasher{
		HashFunc: func(string) (string, error) { panic("corrupt state") },
	}
	svc, err := auth.NewPooledHashService(newPool(t, 1), hasher)
	require.NoError(t, err)

	_, err = svc.Hash(context.Background(), "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrHashFailure)
	assert.Contains(t, err.Error(), "corrupt state")
}

func TestPooledHashService_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	blocking := authtest.NewBlockingHasher(1)
	pool, err := auth.NewWorkerPool(1, 1)
	require.NoError(t, err)
	svc, err := auth.NewPooledHashService(pool, blocking, auth.WithHashTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = svc.Hash(context.Background(), "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrHashFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(blocking.Release)
	pool.Close()
}

func TestPooledHashService_ClosedPool(t *testing.T) {
	pool, err := auth.NewWorkerPool(1, 1)
	require.NoError(t, err)
	pool.Close()

	svc, err := auth.NewPooledHashService(pool, auth.NewArgon2idHasher())
	require.NoError(t, err)

	_, err = svc.Hash(context.Background(), "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrHashFailure)
	assert.ErrorIs(t, err, auth.ErrPoolClosed)
}

func TestPooledHashService_SaturatedPoolLeavesCallerFree(t *testing.T) {
	defer goleak.VerifyNone(t)

	const workers = 2
	blocking := authtest.NewBlockingHasher(workers + 4)
	pool, err := auth.NewWorkerPool(workers, 8)
	require.NoError(t, err)
	svc, err := auth.NewPooledHashService(pool, blocking, auth.WithHashTimeout(0))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, workers+4)
	for i := 0; i < workers+4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Hash(context.Background(), "pw")
			errs <- err
		}()
	}

	for i := 0; i < workers; i++ {
		<-blocking.Started
	}
	require.Eventually(t, func() bool {
		return pool.Stats().Queued == 4
	}, time.Second, 5*time.Millisecond)

	// Hashing is stuck on every worker; other goroutines still make progress.
	unrelated := make(chan struct{})
	go func() { close(unrelated) }()
	select {
	case <-unrelated:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("unrelated work stalled behind saturated pool")
	}
	assert.Equal(t, workers, pool.Stats().Busy)

	close(blocking.Release)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	pool.Close()
}

func TestPooledHashService_CancelledCallerSkipsQueuedWork(t *testing.T) {
	defer goleak.VerifyNone(t)

	blocking := authtest.NewBlockingHasher(4)
	pool, err := auth.NewWorkerPool(1, 4)
	require.NoError(t, err)
	svc, err := auth.NewPooledHashService(pool, blocking, auth.WithHashTimeout(0))
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		_, err := svc.Hash(context.Background(), "a")
		first <- err
	}()
	<-blocking.Started

	ctx, cancel := context.WithCancel(context.Background())
	second := make(chan error, 1)
	go func() {
		_, err := svc.Hash(ctx, "b")
		second <- err
	}()
	require.Eventually(t, func() bool { return pool.Stats().Queued == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	err = <-second
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	close(blocking.Release)
	require.NoError(t, <-first)
	pool.Close()

	// Only the first call reached the hasher.
	assert.Len(t, blocking.Started, 0)
}
