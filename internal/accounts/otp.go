package accounts

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const otpTTL = 5 * time.Minute

var (
	ErrOTPNotFound = errors.New("OTP expired or not found")
	ErrOTPExpired  = errors.New("OTP expired")
	ErrOTPMismatch = errors.New("Invalid OTP")
)

type otpEntry struct {
	code    string
	expires time.Time
}

// OTPStore keeps one pending 6-digit code per email in process memory.
// Codes are single use and expire after five minutes; a restart loses all
// pending codes, which is the intended behavior for this check.
type OTPStore struct {
	mu    sync.Mutex
	codes map[string]otpEntry
	now   func() time.Time
}

func NewOTPStore() *OTPStore {
	return &OTPStore{
		codes: make(map[string]otpEntry),
		now:   time.Now,
	}
}

// Issue generates a fresh code for email, replacing any pending one.
func (s *OTPStore) Issue(email string) string {
	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = otpEntry{code: code, expires: s.now().Add(otpTTL)}
	return code
}

// Verify checks code against the pending entry for email. The entry is
// consumed on success and on expiry, but kept on a mismatch so the user can
// retry a typo.
func (s *OTPStore) Verify(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[email]
	if !ok {
		return ErrOTPNotFound
	}
	if s.now().After(entry.expires) {
		delete(s.codes, email)
		return ErrOTPExpired
	}
	if entry.code != code {
		return ErrOTPMismatch
	}

	delete(s.codes, email)
	return nil
}
