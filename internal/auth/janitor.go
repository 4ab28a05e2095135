// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
)

// DefaultJanitorInterval is how often expired rows are purged.
const DefaultJanitorInterval = 15 * time.Minute

// Janitor periodically deletes expired sessions and reset tokens. Expired
// rows are already rejected on use; purging only keeps the tables small.
type Janitor struct {
	sessions SessionRepository
	resets   PasswordResetRepository
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time
	observer PurgeObserver

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// PurgeObserver is told how many rows each purge removed.
type PurgeObserver interface {
	RecordPurge(table string, n int64)
}

// JanitorOption configures a Janitor.
type JanitorOption func(*Janitor)

// WithPurgeObserver reports purge counts to o.
func WithPurgeObserver(o PurgeObserver) JanitorOption {
	return func(j *Janitor) { j.observer = o }
}

// NewJanitor creates a Janitor. A non-positive interval uses DefaultJanitorInterval.
func NewJanitor(
	sessions SessionRepository,
	resets PasswordResetRepository,
	interval time.Duration,
	logger *slog.Logger,
	opts ...JanitorOption,
) *Janitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	j := &Janitor{
		sessions: sessions,
		resets:   resets,
		interval: interval,
		logger:   logger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// RunOnce executes a single purge. Both tables are attempted even if the
// first fails; errors are combined.
func (j *Janitor) RunOnce(ctx context.Context) error {
	now := j.clock()
	var errs []error

	n, err := j.sessions.DeleteExpired(ctx, now)
	if err != nil {
		errs = append(errs, oops.Code("JANITOR_SESSIONS_FAILED").Wrap(err))
	} else {
		j.purged(ctx, "sessions", n)
	}

	n, err = j.resets.DeleteExpired(ctx, now)
	if err != nil {
		errs = append(errs, oops.Code("JANITOR_RESETS_FAILED").Wrap(err))
	} else {
		j.purged(ctx, "password_reset_tokens", n)
	}

	return errors.Join(errs...)
}

func (j *Janitor) purged(ctx context.Context, table string, n int64) {
	if j.observer != nil {
		j.observer.RecordPurge(table, n)
	}
	if n > 0 {
		j.logger.InfoContext(ctx, "purged expired rows", "table", table, "count", n)
	}
}

// Start begins periodic purging. Calling Start on a running janitor is an error.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return oops.Code("JANITOR_RUNNING").Errorf("janitor already started")
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.run(ctx)
	return nil
}

// Stop stops the janitor and waits for the current cycle to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.cycle(ctx)
		}
	}
}

func (j *Janitor) cycle(ctx context.Context) {
	if err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
		j.logger.ErrorContext(ctx, "janitor cycle failed", "error", err)
	}
}
