package message

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateText_Trims(t *testing.T) {
	got, err := ValidateText("  hello there \n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello there" {
		t.Errorf("expected trimmed %q, got %q", "hello there", got)
	}
}

func TestValidateText_WhitespaceOnly(t *testing.T) {
	inputs := []string{"", "   ", "\t\n ", "\r\n"}
	for _, in := range inputs {
		_, err := ValidateText(in)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("input %q: expected ValidationError, got %v", in, err)
		}
	}
}

func TestValidateText_TooLong(t *testing.T) {
	_, err := ValidateText(strings.Repeat("a", MaxMessageBytes+1))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for oversized text, got %v", err)
	}
}

func TestValidateText_TooManyRunes(t *testing.T) {
	// Multi-byte runes: under the byte cap but over the character cap.
	_, err := ValidateText(strings.Repeat("é", MaxTextChars+1))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for too many characters, got %v", err)
	}
}

func TestValidateText_InvalidUTF8(t *testing.T) {
	_, err := ValidateText("hi\xff\xfe")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for invalid UTF-8, got %v", err)
	}
}

func TestPairKey_Unordered(t *testing.T) {
	a1, b1 := PairKey("alice", "bob")
	a2, b2 := PairKey("bob", "alice")
	if a1 != a2 || b1 != b2 {
		t.Fatalf("pair key is order-dependent: (%s,%s) vs (%s,%s)", a1, b1, a2, b2)
	}
	if a1 != "alice" || b1 != "bob" {
		t.Errorf("expected (alice,bob), got (%s,%s)", a1, b1)
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &StoreError{Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("StoreError does not unwrap to the underlying error")
	}
}
