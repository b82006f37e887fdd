package auth

// PASSWORD DIGESTS:
// Passwords are stored as HMAC-SHA256(secret, plaintext), hex encoded. The
// secret is shared by every account and there is no per-user salt, so equal
// passwords produce equal digests. Changing HASH_SECRET invalidates every
// stored password.
//
// RESET TOKENS:
// A reset token is 24 random bytes, hex encoded. The raw value goes to the
// user by mail; only its digest and an absolute expiry are persisted.

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ResetTokenTTL is how long a password-reset link stays usable.
const ResetTokenTTL = 20 * time.Minute

const resetTokenBytes = 24

// PasswordService hashes and verifies passwords and reset tokens with a
// single server-side secret.
type PasswordService struct {
	secret []byte
	now    func() time.Time
}

// NewPasswordService creates a PasswordService keyed by secret.
func NewPasswordService(secret string) (*PasswordService, error) {
	if secret == "" {
		return nil, errors.New("auth: hash secret must not be empty")
	}
	return &PasswordService{secret: []byte(secret), now: time.Now}, nil
}

// NewPasswordServiceForTest creates a PasswordService with a fixed clock.
func NewPasswordServiceForTest(secret string, now func() time.Time) *PasswordService {
	return &PasswordService{secret: []byte(secret), now: now}
}

// Hash returns the hex digest of plaintext. An empty plaintext hashes to ""
// so that an unset password can never match anything.
func (p *PasswordService) Hash(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether plaintext hashes to digest. The comparison is
// constant-time.
func (p *PasswordService) Verify(digest, plaintext string) bool {
	if digest == "" || plaintext == "" {
		return false
	}
	return hmac.Equal([]byte(digest), []byte(p.Hash(plaintext)))
}

// IssueResetToken creates a new reset token. raw is for the user; digest and
// expires are what gets stored.
func (p *PasswordService) IssueResetToken() (raw, digest string, expires time.Time, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("auth: generating reset token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, p.Hash(raw), p.now().Add(ResetTokenTTL), nil
}

// Expired reports whether a reset token expiring at expires is no longer
// usable.
func (p *PasswordService) Expired(expires time.Time) bool {
	return p.now().After(expires)
}

// VerifyResetToken reports whether raw matches storedDigest and the token
// has not expired. A token is still valid at exactly its expiry instant.
func (p *PasswordService) VerifyResetToken(storedDigest string, expires time.Time, raw string) bool {
	if !p.Verify(storedDigest, raw) {
		return false
	}
	return !p.Expired(expires)
}
