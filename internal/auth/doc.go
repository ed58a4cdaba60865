// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

// Package auth provides account registration, login and session identity for Tier.
//
// # Domain Types
//
// Users should be created with NewUser, which validates the email and display
// name and assigns a fresh ULID. Direct struct initialization bypasses
// validation. Repository implementations receive pre-validated users.
//
// # Hashing
//
// Password hashing is deliberately slow. Request goroutines never run it
// directly: PooledHashService submits every Hash and Verify call to a
// WorkerPool with a fixed number of workers and waits on the result, so the
// CPU spent hashing stays bounded however many requests arrive.
//
// # Services
//
//   - Service - register, login and current-user resolution
//   - JWTSessionCodec - signed session tokens carrying only the user id
//
// Services are created with New* constructors that validate dependencies.
package auth
