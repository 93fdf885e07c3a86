package auth

import (
	"errors"
	"testing"
	"time"
)

func TestVerify_RoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", "amora-api")

	token, err := v.Sign("user-42", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-42" {
		t.Errorf("expected user-42, got %q", uid)
	}
}

func TestVerify_Expired(t *testing.T) {
	v := NewVerifier("test-secret", "amora-api")

	token, err := v.Sign("user-42", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = v.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	signer := NewVerifier("secret-a", "amora-api")
	verifier := NewVerifier("secret-b", "amora-api")

	token, err := signer.Sign("user-42", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	signer := NewVerifier("test-secret", "someone-else")
	verifier := NewVerifier("test-secret", "amora-api")

	token, err := signer.Sign("user-42", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	v := NewVerifier("test-secret", "amora-api")

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := v.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("token %q: expected ErrTokenInvalid, got %v", tok, err)
		}
	}
}
