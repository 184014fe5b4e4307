package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager("unit-test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "a@b.c")

	if err != nil {
		t.Fatal(err)
	}

	claims, err := m.VerifyAccessToken(token)

	if err != nil {
		t.Fatal(err)
	}

	if claims.UserID != "user-1" || claims.Email != "a@b.c" || claims.TokenType != "access" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenTypeIsEnforced(t *testing.T) {
	m := newTestManager()

	refresh, _, _, err := m.GenerateRefreshToken("user-1", "a@b.c")

	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.VerifyAccessToken(refresh); err == nil {
		t.Fatal("refresh token accepted as access token")
	}

	access, err := m.GenerateAccessToken("user-1", "a@b.c")

	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.VerifyRefreshToken(access); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestWrongSecretIsRejected(t *testing.T) {
	m := newTestManager()
	other := NewManager("different-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := m.GenerateAccessToken("user-1", "a@b.c")

	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.VerifyAccessToken(token); err == nil {
		t.Fatal("token verified under the wrong secret")
	}
}

func TestTamperedTokenIsRejected(t *testing.T) {
	m := newTestManager()

	token, _ := m.GenerateAccessToken("user-1", "a@b.c")

	parts := strings.Split(token, ".")
	parts[2] = "AAAA" + parts[2][4:]

	if _, err := m.VerifyAccessToken(strings.Join(parts, ".")); err == nil {
		t.Fatal("tampered signature accepted")
	}
}

func TestRefreshTokenCarriesJTI(t *testing.T) {
	m := newTestManager()

	raw, jti, expiresAt, err := m.GenerateRefreshToken("user-1", "a@b.c")

	if err != nil {
		t.Fatal(err)
	}

	if jti == "" {
		t.Fatal("missing jti")
	}

	if time.Until(expiresAt) < 6*24*time.Hour {
		t.Fatalf("expiry too soon: %v", expiresAt)
	}

	claims, err := m.VerifyRefreshToken(raw)

	if err != nil {
		t.Fatal(err)
	}

	if claims.JTI != jti {
		t.Fatalf("jti mismatch: %q vs %q", claims.JTI, jti)
	}
}

func TestHashRefreshToken(t *testing.T) {
	m := newTestManager()

	a, _, _, _ := m.GenerateRefreshToken("user-1", "a@b.c")
	b, _, _, _ := m.GenerateRefreshToken("user-1", "a@b.c")

	if m.HashRefreshToken(a) != m.HashRefreshToken(a) {
		t.Fatal("hash not deterministic")
	}

	if m.HashRefreshToken(a) == m.HashRefreshToken(b) {
		t.Fatal("distinct tokens share a hash")
	}
}
