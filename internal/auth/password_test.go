package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestPasswordService(now time.Time) *PasswordService {
	return NewPasswordServiceForTest("test-hash-secret", func() time.Time { return now })
}

// =========================================================================
// HASH TESTS
// =========================================================================

func TestNewPasswordService_EmptySecret(t *testing.T) {
	if _, err := NewPasswordService(""); err == nil {
		t.Fatal("expected error for empty secret, got nil")
	}
}

func TestHash_IsHexSHA256(t *testing.T) {
	p := newTestPasswordService(time.Now())

	digest := p.Hash("correcthorse")
	if len(digest) != 64 {
		t.Fatalf("digest length = %d, want 64", len(digest))
	}
	if strings.Trim(digest, "0123456789abcdef") != "" {
		t.Errorf("digest %q is not lowercase hex", digest)
	}
}

func TestHash_IsDeterministicAcrossUsers(t *testing.T) {
	p := newTestPasswordService(time.Now())

	// There is no per-user salt: equal passwords give equal digests.
	if p.Hash("samepassword") != p.Hash("samepassword") {
		t.Error("Hash() is not deterministic")
	}
}

func TestHash_DependsOnSecret(t *testing.T) {
	a := NewPasswordServiceForTest("secret-a", time.Now)
	b := NewPasswordServiceForTest("secret-b", time.Now)

	if a.Hash("password1") == b.Hash("password1") {
		t.Error("different secrets produced the same digest")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	p := newTestPasswordService(time.Now())
	if got := p.Hash(""); got != "" {
		t.Errorf("Hash(\"\") = %q, want empty", got)
	}
}

// =========================================================================
// VERIFY TESTS
// =========================================================================

func TestVerify(t *testing.T) {
	p := newTestPasswordService(time.Now())
	digest := p.Hash("mypassword")

	tests := []struct {
		name      string
		digest    string
		plaintext string
		want      bool
	}{
		{"correct password", digest, "mypassword", true},
		{"wrong password", digest, "notmypassword", false},
		{"empty password", digest, "", false},
		{"empty digest", "", "mypassword", false},
		{"garbage digest", "not-a-digest", "mypassword", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Verify(tt.digest, tt.plaintext); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =========================================================================
// RESET TOKEN TESTS
// =========================================================================

func TestIssueResetToken(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := newTestPasswordService(now)

	raw, digest, expires, err := p.IssueResetToken()
	if err != nil {
		t.Fatalf("IssueResetToken() error = %v", err)
	}
	if len(raw) != 48 {
		t.Errorf("raw token length = %d, want 48", len(raw))
	}
	if digest == raw {
		t.Error("digest must not equal the raw token")
	}
	if digest != p.Hash(raw) {
		t.Error("digest is not the hash of the raw token")
	}
	if !expires.Equal(now.Add(20 * time.Minute)) {
		t.Errorf("expires = %v, want %v", expires, now.Add(20*time.Minute))
	}
}

func TestIssueResetToken_Unique(t *testing.T) {
	p := newTestPasswordService(time.Now())
	a, _, _, _ := p.IssueResetToken()
	b, _, _, _ := p.IssueResetToken()
	if a == b {
		t.Error("two reset tokens were identical")
	}
}

func TestVerifyResetToken(t *testing.T) {
	issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	raw, digest, expires, err := newTestPasswordService(issuedAt).IssueResetToken()
	if err != nil {
		t.Fatalf("IssueResetToken() error = %v", err)
	}

	tests := []struct {
		name string
		at   time.Time
		raw  string
		want bool
	}{
		{"fresh token", issuedAt.Add(time.Minute), raw, true},
		{"exactly at expiry", expires, raw, true},
		{"one second late", expires.Add(time.Second), raw, false},
		{"wrong token", issuedAt, raw + "00", false},
		{"empty token", issuedAt, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPasswordService(tt.at)
			if got := p.VerifyResetToken(digest, expires, tt.raw); got != tt.want {
				t.Errorf("VerifyResetToken() = %v, want %v", got, tt.want)
			}
		})
	}
}
