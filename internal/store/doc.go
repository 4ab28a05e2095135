// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store owns the PostgreSQL connection pool and the embedded schema
// migrations. Repositories live next to the domain they serve.
package store
