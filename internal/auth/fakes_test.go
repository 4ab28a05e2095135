// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/sessiond/internal/auth"
)

// memUsers is an in-memory UserRepository for state-based service tests.
type memUsers struct {
	mu     sync.Mutex
	nextID auth.UserID
	byID   map[auth.UserID]*auth.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[auth.UserID]*auth.User)}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id auth.UserID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return auth.ErrEmailTaken(user.Email)
		}
	}
	m.nextID++
	user.ID = m.nextID
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id auth.UserID, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.Credential = auth.PasswordCredential{Digest: digest}
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id auth.UserID, update auth.ProfileUpdate) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.AvatarURL != nil {
		u.AvatarURL = *update.AvatarURL
	}
	cp := *u
	return &cp, nil
}

// put inserts a user as-is, bypassing validation.
func (m *memUsers) put(u *auth.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID > m.nextID {
		m.nextID = u.ID
	}
	m.byID[u.ID] = u
}

func (m *memUsers) digest(id auth.UserID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, _ := m.byID[id].PasswordDigest()
	return d
}

// memSessions is an in-memory SessionRepository.
type memSessions struct {
	mu   sync.Mutex
	rows map[ulid.ULID]auth.Session
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[ulid.ULID]auth.Session)}
}

func (m *memSessions) Create(_ context.Context, s *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = *s
	return nil
}

func (m *memSessions) GetByTokenHash(_ context.Context, hash string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.RefreshTokenHash == hash {
			cp := s
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memSessions) Delete(_ context.Context, id ulid.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memSessions) DeleteByUser(_ context.Context, userID auth.UserID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.rows {
		if s.UserID == userID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.rows {
		if s.IsExpiredAt(now) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memSessions) all() []auth.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.Session, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, s)
	}
	return out
}

// memResets is an in-memory PasswordResetRepository.
type memResets struct {
	mu   sync.Mutex
	rows map[ulid.ULID]auth.PasswordReset
}

func newMemResets() *memResets {
	return &memResets{rows: make(map[ulid.ULID]auth.PasswordReset)}
}

func (m *memResets) Create(_ context.Context, r *auth.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = *r
	return nil
}

func (m *memResets) GetByTokenHash(_ context.Context, hash string) (*auth.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TokenHash == hash {
			cp := r
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memResets) Delete(_ context.Context, id ulid.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memResets) DeleteByUser(_ context.Context, userID auth.UserID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.rows {
		if r.UserID == userID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memResets) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.rows {
		if r.IsExpiredAt(now) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memResets) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// plainHasher stores passwords with a marker prefix. It keeps service tests
// fast; the real KDF is covered in hasher_test.go.
type plainHasher struct{}

const plainPrefix = "plain:"

func (plainHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", auth.ErrEmptyPassword
	}
	return plainPrefix + password, nil
}

func (plainHasher) Verify(password, hash string) (bool, error) {
	return strings.HasPrefix(hash, plainPrefix) && hash[len(plainPrefix):] == password, nil
}

func (plainHasher) NeedsUpgrade(string) bool { return false }

// captureNotifier records issued reset tokens.
type captureNotifier struct {
	mu     sync.Mutex
	tokens map[auth.UserID]string
	err    error
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{tokens: make(map[auth.UserID]string)}
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, user *auth.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens[user.ID] = token
	return n.err
}

func (n *captureNotifier) token(id auth.UserID) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens[id]
}

// recordedOutcome is one RecordAuth call.
type recordedOutcome struct {
	op      string
	outcome string
}

type captureRecorder struct {
	mu    sync.Mutex
	calls []recordedOutcome
}

func (r *captureRecorder) RecordAuth(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedOutcome{op: op, outcome: outcome})
}

func (r *captureRecorder) last() recordedOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return recordedOutcome{}
	}
	return r.calls[len(r.calls)-1]
}
