// Package otp issues and validates short-lived numeric codes bound to an
// email address. Codes are stored in the database so they survive restarts
// and work across multiple instances; delivery is the caller's job.
package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

// DefaultTTL is how long a generated code stays valid.
const DefaultTTL = 10 * time.Minute

type Service struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
	// randInt returns a uniform value in [0, n). Injectable for tests.
	randInt func(n int) int
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRandInt(fn func(n int) int) Option {
	return func(s *Service) { s.randInt = fn }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:   st,
		ttl:     DefaultTTL,
		now:     time.Now,
		randInt: secureInt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// secureInt draws a uniform value in [0, n) from crypto/rand.
func secureInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err) // crypto/rand failure is not recoverable
	}
	return int(v.Int64())
}

// Generate produces a 6-digit code for the email, replacing any code
// previously issued to it, and persists the record. The returned code is
// handed to the caller for delivery; it is never sent from here.
func (s *Service) Generate(email string) (string, error) {
	email = normalize(email)
	code := strconv.Itoa(100000 + s.randInt(900000))
	now := s.now()

	err := s.store.Atomically(func(st store.Store) error {
		if err := st.DeleteOtps(email); err != nil {
			return err
		}
		return st.CreateOtp(&models.OtpRecord{
			Email:     email,
			Code:      code,
			ExpiresAt: now.Add(s.ttl),
			CreatedAt: now,
		})
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Verify reports whether code matches the live record for the email. A
// match consumes the record; an expired record is deleted on sight. Absent,
// expired and mismatched codes are all reported as false.
func (s *Service) Verify(email, code string) (bool, error) {
	email = normalize(email)
	ok := false

	err := s.store.Atomically(func(st store.Store) error {
		rec, err := st.LatestOtp(email)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if rec.ExpiresAt.Before(s.now()) {
			return st.DeleteOtp(rec.ID)
		}

		if rec.Code != code {
			return nil
		}

		// one-time use
		if err := st.DeleteOtp(rec.ID); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
