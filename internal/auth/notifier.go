// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
)

// ResetNotifier delivers a plaintext reset token to the account owner.
// Implementations must not persist the token.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, user *User, token string) error
}

// Recorder receives the outcome of each auth operation. Outcome is
// "success" or the error code that ended the operation.
type Recorder interface {
	RecordAuth(operation, outcome string)
}

// LogNotifier logs that a reset was issued without delivering it. The token
// itself is never logged. Used when no mail transport is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendPasswordReset logs the reset request.
func (n *LogNotifier) SendPasswordReset(ctx context.Context, user *User, _ string) error {
	n.logger.InfoContext(ctx, "password reset issued without delivery transport",
		"user_id", user.ID.String())
	return nil
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, string) {}
