package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("super-secret", time.Hour)

	tok, err := iss.Issue("alice", common.RoleUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	got, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got != "alice" {
		t.Fatalf("username mismatch: got %q want %q", got, "alice")
	}

	claims, err := iss.VerifyClaims(tok)
	if err != nil {
		t.Fatalf("VerifyClaims error: %v", err)
	}
	if claims.Role != common.RoleUser {
		t.Fatalf("role mismatch: got %q", claims.Role)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("iat/exp must be set: %+v", claims.RegisteredClaims)
	}
}

func TestVerify_ExpiresAfterValidity(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("secret", 10*time.Minute)
	iss.now = fixedClock(issuedAt)

	tok, err := iss.Issue("bob", common.RoleUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	iss.now = fixedClock(issuedAt.Add(9 * time.Minute))
	if _, err := iss.Verify(tok); err != nil {
		t.Fatalf("token must still be valid: %v", err)
	}

	iss.now = fixedClock(issuedAt.Add(10*time.Minute + time.Second))
	_, err = iss.Verify(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expired token must be an authentication failure, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer("right-secret", time.Hour).Issue("u2", common.RoleUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewIssuer("wrong-secret", time.Hour).Verify(tok)
	if !errors.Is(err, common.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("k", time.Hour)
	tok, err := iss.Issue("alice", common.RoleUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	other, err := iss.Issue("mallory", common.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	if _, err := iss.Verify(forged); !errors.Is(err, common.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := NewIssuer("k", time.Hour).Verify(tok); !errors.Is(err, common.ErrMalformedToken) {
			t.Fatalf("%q: expected ErrMalformedToken, got %v", tok, err)
		}
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = NewIssuer("k", time.Hour).Verify(tok)
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected an authentication failure, got %v", err)
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("k", time.Hour)
	tok, err := iss.Issue("", common.RoleUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := iss.Verify(tok); !errors.Is(err, common.ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}
