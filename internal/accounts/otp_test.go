package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPStore_VerifyRoundTrip(t *testing.T) {
	store := NewOTPStore()

	code := store.Issue("a@example.com")
	assert.Len(t, code, 6)

	assert.NoError(t, store.Verify("a@example.com", code))

	// single use: the code is consumed by the successful verify
	assert.ErrorIs(t, store.Verify("a@example.com", code), ErrOTPNotFound)
}

func TestOTPStore_Mismatch(t *testing.T) {
	store := NewOTPStore()

	code := store.Issue("a@example.com")
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	assert.ErrorIs(t, store.Verify("a@example.com", wrong), ErrOTPMismatch)

	// a mismatch does not consume the pending code
	assert.NoError(t, store.Verify("a@example.com", code))
}

func TestOTPStore_Expiry(t *testing.T) {
	store := NewOTPStore()

	now := time.Now()
	store.now = func() time.Time { return now }

	code := store.Issue("a@example.com")

	now = now.Add(otpTTL + time.Second)
	assert.ErrorIs(t, store.Verify("a@example.com", code), ErrOTPExpired)

	// the expired entry was dropped entirely
	assert.ErrorIs(t, store.Verify("a@example.com", code), ErrOTPNotFound)
}

func TestOTPStore_ReissueReplaces(t *testing.T) {
	store := NewOTPStore()

	first := store.Issue("a@example.com")
	second := store.Issue("a@example.com")

	if first != second {
		assert.ErrorIs(t, store.Verify("a@example.com", first), ErrOTPMismatch)
	}
	assert.NoError(t, store.Verify("a@example.com", second))
}

func TestOTPStore_UnknownEmail(t *testing.T) {
	store := NewOTPStore()
	assert.ErrorIs(t, store.Verify("nobody@example.com", "123456"), ErrOTPNotFound)
}
