// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package auth

import "time"

// Auth flows and outcomes reported to a Recorder.
const (
	FlowRegister = "register"
	FlowLogin    = "login"

	OutcomeSuccess           = "success"
	OutcomeDuplicateEmail    = "duplicate_email"
	OutcomeEmailNotFound     = "email_not_found"
	OutcomeIncorrectPassword = "incorrect_password"
	OutcomeInvalidInput      = "invalid_input"
	OutcomeInternalError     = "internal_error"
)

// Recorder receives auth and hashing measurements.
type Recorder interface {
	// RecordAuth counts one finished register or login attempt.
	RecordAuth(flow, outcome string)
	// ObserveHash records the time a pooled hash or verify call took,
	// including time spent queued.
	ObserveHash(op string, d time.Duration, err error)
	// SetHashQueueDepth reports the number of jobs waiting for a worker.
	SetHashQueueDepth(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, string)                {}
func (nopRecorder) ObserveHash(string, time.Duration, error) {}
func (nopRecorder) SetHashQueueDepth(int)                    {}
