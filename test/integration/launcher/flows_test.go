// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DFO Launcher Contributors

//go:build integration

package launcher_test

import (
	"strconv"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/dfo-launcher/launcher/internal/auth"
)

var _ = Describe("Account and currency flows", func() {
	var uid int32

	BeforeEach(func() {
		env.resetData()
	})

	Describe("CreateAccount", func() {
		It("writes the account, its dependent rows and the login record", func() {
			Expect(env.service.CreateAccount(env.ctx, "alice", "pw123")).To(Succeed())

			var stored, recovery string
			Expect(env.admin.QueryRow(env.ctx,
				`SELECT uid, password, qq FROM d_taiwan.accounts WHERE accountname = 'alice'`).
				Scan(&uid, &stored, &recovery)).To(Succeed())
			Expect(stored).To(Equal(auth.NewLegacyMD5Hasher().Hash("pw123")))
			Expect(recovery).To(Equal("pw123"))

			Expect(env.count(`SELECT count(*) FROM d_taiwan.limit_create_character WHERE m_id = $1`, uid)).To(Equal(1))
			Expect(env.count(`SELECT count(*) FROM d_taiwan.member_white_account WHERE m_id = $1`, uid)).To(Equal(1))
			Expect(env.count(`SELECT count(*) FROM d_taiwan.member_info WHERE m_id = $1 AND user_id = $2`, uid, strconv.Itoa(int(uid)))).To(Equal(1))
			Expect(env.count(`SELECT count(*) FROM taiwan_login.member_login WHERE m_id = $1`, uid)).To(Equal(1))
		})

		It("rejects a taken name and persists nothing new", func() {
			Expect(env.service.CreateAccount(env.ctx, "alice", "pw123")).To(Succeed())

			err := env.service.CreateAccount(env.ctx, "alice", "other")
			Expect(err).To(MatchError(auth.ErrConflict))
			Expect(env.count(`SELECT count(*) FROM d_taiwan.accounts`)).To(Equal(1))
			Expect(env.count(`SELECT count(*) FROM d_taiwan.member_info`)).To(Equal(1))
			Expect(env.count(`SELECT count(*) FROM taiwan_login.member_login`)).To(Equal(1))
		})

		It("lets exactly one of two concurrent registrations win", func() {
			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := range errs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs[i] = env.service.CreateAccount(env.ctx, "race", "pw")
				}()
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				Expect(err).To(MatchError(auth.ErrConflict))
			}
			Expect(succeeded).To(Equal(1))
			Expect(env.count(`SELECT count(*) FROM d_taiwan.member_info`)).To(Equal(1))
		})
	})

	Describe("PerformLogin", func() {
		BeforeEach(func() {
			Expect(env.service.CreateAccount(env.ctx, "alice", "pw123")).To(Succeed())
			Expect(env.admin.QueryRow(env.ctx, `SELECT uid FROM d_taiwan.accounts WHERE accountname = 'alice'`).Scan(&uid)).To(Succeed())
		})

		It("assembles the roster, balance and token", func() {
			env.addCharacter(uid, "Bob", 10, auth.JobMaleSlayer, 500)
			env.addCharacter(uid, "Carol", 5, auth.JobThief, -1)
			Expect(env.service.SendCera(env.ctx, uid, 1000)).To(Succeed())

			sess, err := env.service.PerformLogin(env.ctx, "alice", "pw123")
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.UID).To(Equal(uid))
			Expect(sess.Cera).To(Equal(int64(1000)))
			Expect(sess.Characters).To(HaveLen(2))
			Expect(sess.Characters[0]).To(beCharacter("Bob", 10, auth.JobMaleSlayer, 500))
			Expect(sess.Characters[1]).To(beCharacter("Carol", 5, auth.JobThief, 0))

			recovered, err := env.signer.Recover(sess.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(recovered).To(Equal(uid))
		})

		It("hides deleted characters", func() {
			charID := env.addCharacter(uid, "Gone", 1, auth.JobMaleMage, 0)
			_, err := env.admin.Exec(env.ctx, `UPDATE taiwan_cain.charac_info SET delete_flag = 1 WHERE charac_no = $1`, charID)
			Expect(err).NotTo(HaveOccurred())

			sess, err := env.service.PerformLogin(env.ctx, "alice", "pw123")
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Characters).To(BeEmpty())
			Expect(sess.Cera).To(BeZero())
		})

		It("rejects a wrong password", func() {
			_, err := env.service.PerformLogin(env.ctx, "alice", "wrong")
			Expect(err).To(MatchError(auth.ErrAuthenticationFailed))
		})

		It("reports an unknown account", func() {
			_, err := env.service.PerformLogin(env.ctx, "nobody", "pw123")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("Credits", func() {
		BeforeEach(func() {
			Expect(env.service.CreateAccount(env.ctx, "alice", "pw123")).To(Succeed())
			Expect(env.admin.QueryRow(env.ctx, `SELECT uid FROM d_taiwan.accounts WHERE accountname = 'alice'`).Scan(&uid)).To(Succeed())
		})

		It("adds gold to the character's inventory", func() {
			charID := env.addCharacter(uid, "Bob", 10, auth.JobMaleSlayer, 500)

			Expect(env.service.SendGold(env.ctx, charID, 1000)).To(Succeed())

			sess, err := env.service.PerformLogin(env.ctx, "alice", "pw123")
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Characters[0].Money).To(Equal(int64(1500)))
		})

		It("reports a character without inventory", func() {
			charID := env.addCharacter(uid, "Bob", 10, auth.JobMaleSlayer, -1)
			Expect(env.service.SendGold(env.ctx, charID, 10)).To(MatchError(auth.ErrNotFound))
		})

		It("creates the cera ledger row on first credit and adds afterwards", func() {
			Expect(env.service.SendCera(env.ctx, uid, 500)).To(Succeed())
			Expect(env.service.SendCera(env.ctx, uid, 250)).To(Succeed())

			sess, err := env.service.PerformLogin(env.ctx, "alice", "pw123")
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Cera).To(Equal(int64(750)))
		})

		It("never loses a concurrent cera credit", func() {
			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(env.service.SendCera(env.ctx, uid, 10)).To(Succeed())
				}()
			}
			wg.Wait()

			var cera int64
			Expect(env.admin.QueryRow(env.ctx, `SELECT cera FROM taiwan_billing.cash_cera WHERE account = $1`, uid).Scan(&cera)).To(Succeed())
			Expect(cera).To(Equal(int64(100)))
		})

		It("rejects non-positive amounts before touching the stores", func() {
			Expect(env.service.SendCera(env.ctx, uid, 0)).To(MatchError(auth.ErrValidation))
			Expect(env.count(`SELECT count(*) FROM taiwan_billing.cash_cera`)).To(Equal(0))
		})
	})
})

// beCharacter matches a roster entry by its visible fields.
func beCharacter(name string, level int32, job auth.Job, money int64) OmegaMatcher {
	return WithTransform(func(c auth.Character) auth.Character {
		c.ID = 0
		return c
	}, Equal(auth.Character{Name: name, Level: level, Job: job, Money: money}))
}
