// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/sessiond/internal/auth"
	"github.com/holomush/sessiond/internal/auth/postgres"
	"github.com/holomush/sessiond/pkg/errutil"
)

var _ = Describe("Repositories", func() {
	var (
		ctx      context.Context
		users    *postgres.UserRepository
		sessions *postgres.SessionRepository
		resets   *postgres.PasswordResetRepository
		now      time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = postgres.NewUserRepository(testPool)
		sessions = postgres.NewSessionRepository(testPool)
		resets = postgres.NewPasswordResetRepository(testPool)
		now = time.Now().UTC().Truncate(time.Microsecond)
	})

	createUser := func(email string) *auth.User {
		user, err := auth.NewUser(email, "digest", "Test User", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(users.Create(ctx, user)).To(Succeed())
		return user
	}

	Describe("UserRepository", func() {
		It("assigns ids and round-trips users", func() {
			user := createUser("alice@example.com")
			Expect(user.ID).To(BeNumerically(">", 0))

			byEmail, err := users.GetByEmail(ctx, "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(user.ID))
			Expect(byEmail.Credential).To(Equal(auth.PasswordCredential{Digest: "digest"}))

			byID, err := users.GetByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Email).To(Equal("alice@example.com"))
		})

		It("matches email exactly", func() {
			createUser("alice@example.com")
			_, err := users.GetByEmail(ctx, "Alice@example.com")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("reports duplicate emails", func() {
			createUser("alice@example.com")
			dup, err := auth.NewUser("alice@example.com", "other", "Other", now)
			Expect(err).NotTo(HaveOccurred())

			err = users.Create(ctx, dup)
			Expect(errutil.HasCode(err, auth.CodeEmailTaken)).To(BeTrue())
		})

		It("stores external credentials", func() {
			user := &auth.User{
				Email:      "g@example.com",
				Credential: auth.ExternalCredential{Provider: auth.ProviderGoogle, Subject: "sub-1"},
				Name:       "G",
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			Expect(users.Create(ctx, user)).To(Succeed())

			stored, err := users.GetByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			_, ok := stored.PasswordDigest()
			Expect(ok).To(BeFalse())
		})

		It("updates password and profile", func() {
			user := createUser("alice@example.com")
			Expect(users.UpdatePassword(ctx, user.ID, "new-digest")).To(Succeed())

			name, avatar := "Alicia", "https://cdn.example.com/a.png"
			updated, err := users.UpdateProfile(ctx, user.ID, auth.ProfileUpdate{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Alicia"))
			Expect(updated.AvatarURL).To(BeEmpty())
			Expect(updated.Credential).To(Equal(auth.PasswordCredential{Digest: "new-digest"}))

			updated, err = users.UpdateProfile(ctx, user.ID, auth.ProfileUpdate{AvatarURL: &avatar})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Alicia"))
			Expect(updated.AvatarURL).To(Equal(avatar))
		})

		It("reports missing users on update", func() {
			Expect(users.UpdatePassword(ctx, 999, "x")).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("SessionRepository", func() {
		It("deletes a session exactly once under concurrency", func() {
			user := createUser("alice@example.com")
			session, err := auth.NewSession(user.ID, "hash-1", now, now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.Create(ctx, session)).To(Succeed())

			stored, err := sessions.GetByTokenHash(ctx, "hash-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(session.ID))
			Expect(stored.ExpiresAt).To(BeTemporally("==", session.ExpiresAt))

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)
			for range 5 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					if sessions.Delete(ctx, session.ID) == nil {
						mu.Lock()
						wins++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			Expect(wins).To(Equal(1))
		})

		It("purges expired sessions inclusively", func() {
			user := createUser("alice@example.com")
			expiring, err := auth.NewSession(user.ID, "at-bound", now.Add(-time.Hour), now)
			Expect(err).NotTo(HaveOccurred())
			live, err := auth.NewSession(user.ID, "live", now, now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions.Create(ctx, expiring)).To(Succeed())
			Expect(sessions.Create(ctx, live)).To(Succeed())

			n, err := sessions.DeleteExpired(ctx, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			_, err = sessions.GetByTokenHash(ctx, "live")
			Expect(err).NotTo(HaveOccurred())
		})

		It("revokes every session of a user", func() {
			user := createUser("alice@example.com")
			for _, hash := range []string{"a", "b", "c"} {
				s, err := auth.NewSession(user.ID, hash, now, now.Add(time.Hour))
				Expect(err).NotTo(HaveOccurred())
				Expect(sessions.Create(ctx, s)).To(Succeed())
			}
			n, err := sessions.DeleteByUser(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(3)))
		})
	})

	Describe("PasswordResetRepository", func() {
		It("round-trips and consumes once", func() {
			user := createUser("alice@example.com")
			reset, err := auth.NewPasswordReset(user.ID, "reset-hash", now, now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(resets.Create(ctx, reset)).To(Succeed())

			stored, err := resets.GetByTokenHash(ctx, "reset-hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.UserID).To(Equal(user.ID))

			Expect(resets.Delete(ctx, reset.ID)).To(Succeed())
			Expect(resets.Delete(ctx, reset.ID)).To(MatchError(auth.ErrNotFound))
		})

		It("cascades when the user is deleted", func() {
			user := createUser("alice@example.com")
			reset, err := auth.NewPasswordReset(user.ID, "reset-hash", now, now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(resets.Create(ctx, reset)).To(Succeed())

			_, err = testPool.Exec(ctx, `DELETE FROM users WHERE id = $1`, int64(user.ID))
			Expect(err).NotTo(HaveOccurred())

			_, err = resets.GetByTokenHash(ctx, "reset-hash")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})
})
