// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package retryx retries transiently flaky operations with exponential
// backoff. The last failure is returned after the attempt ceiling; the
// caller decides fatality.
package retryx

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
)

// DefaultAttempts is the attempt ceiling used by the wizard's transfers.
const DefaultAttempts = 3

// DefaultBaseDelay is the initial wait between attempts; it doubles after
// each failure.
const DefaultBaseDelay = 2 * time.Second

// Do runs op up to attempts times, sleeping base, 2*base, 4*base, ...
// between failures. It returns nil on the first success, the last error
// once attempts are exhausted, or ctx.Err() if the context ends mid-wait.
func Do(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	if attempts < 1 {
		return errors.New("retryx: attempts must be positive")
	}
	var last error
	delay := base
	for attempt := 1; attempt <= attempts; attempt++ {
		if last = op(); last == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		log.Printf("attempt %d/%d failed, retrying in %s: %v", attempt, attempts, delay, last)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return last
}
