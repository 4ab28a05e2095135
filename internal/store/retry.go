// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// Retry defaults used by NewRetryQuerier for zero policy fields.
const (
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 20 * time.Millisecond
)

// RetryPolicy bounds the retries of a RetryQuerier.
type RetryPolicy struct {
	MaxRetries uint64
	Backoff    time.Duration
}

// RetryQuerier retries statements that failed without taking effect:
// errors pgconn marks safe to retry, serialization failures and deadlocks.
// A statement that may have reached the server is never repeated.
type RetryQuerier struct {
	next   Querier
	policy RetryPolicy
}

// NewRetryQuerier wraps next with transient-failure retries.
func NewRetryQuerier(next Querier, policy RetryPolicy) *RetryQuerier {
	if policy.MaxRetries == 0 {
		policy.MaxRetries = DefaultMaxRetries
	}
	if policy.Backoff <= 0 {
		policy.Backoff = DefaultRetryBackoff
	}
	return &RetryQuerier{next: next, policy: policy}
}

func (q *RetryQuerier) backoff() retry.Backoff {
	return retry.WithMaxRetries(q.policy.MaxRetries, retry.NewExponential(q.policy.Backoff))
}

func (q *RetryQuerier) do(ctx context.Context, fn func(ctx context.Context) error) error {
	//nolint:wrapcheck // callers wrap with their own operation code
	return retry.Do(ctx, q.backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// Exec runs a statement, retrying transient failures.
func (q *RetryQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := q.do(ctx, func(ctx context.Context) error {
		var err error
		tag, err = q.next.Exec(ctx, sql, args...)
		return err
	})
	return tag, err
}

// Query is passed through: rows are streamed, so a failure part way through
// cannot be replayed transparently.
func (q *RetryQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	//nolint:wrapcheck // pass-through
	return q.next.Query(ctx, sql, args...)
}

// QueryRow defers execution to Scan, which retries transient failures.
func (q *RetryQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &retryRow{q: q, ctx: ctx, sql: sql, args: args}
}

type retryRow struct {
	q    *RetryQuerier
	ctx  context.Context
	sql  string
	args []any
}

func (r *retryRow) Scan(dest ...any) error {
	return r.q.do(r.ctx, func(ctx context.Context) error {
		return r.q.next.QueryRow(ctx, r.sql, r.args...).Scan(dest...)
	})
}

// IsTransient reports whether err is a failure that left no effect and may
// succeed when retried.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return true
		}
		return false
	}
	return pgconn.SafeToRetry(err)
}
