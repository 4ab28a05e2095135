// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements the auth repositories on PostgreSQL.
//
// Not-found conditions wrap auth.ErrNotFound so callers can use errors.Is.
package postgres
