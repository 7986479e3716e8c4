package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnsupportedKind, "node %q: unknown kind", "Cube")

	if err.Code != ErrCodeUnsupportedKind {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeUnsupportedKind)
	}
	want := `UNSUPPORTED_NODE_KIND: node "Cube": unknown kind`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := Wrap(ErrCodeInvalidAsset, cause, "load %s", "duck.glb")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeMalformedTransform, "NaN translation")

	if !Is(err, ErrCodeMalformedTransform) {
		t.Error("Is() should match the error's own code")
	}
	if Is(err, ErrCodeUnsupportedKind) {
		t.Error("Is() should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeMalformedTransform) {
		t.Error("Is() should not match a plain error")
	}
}

func TestIs_WrappedChain(t *testing.T) {
	inner := New(ErrCodeUnsupportedKind, "bad node")
	outer := fmt.Errorf("compile: %w", inner)

	if !Is(outer, ErrCodeUnsupportedKind) {
		t.Error("Is() should unwrap through fmt.Errorf chains")
	}
	if GetCode(outer) != ErrCodeUnsupportedKind {
		t.Errorf("GetCode() = %q, want %q", GetCode(outer), ErrCodeUnsupportedKind)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidOptions, "precision must be >= 0")
	if got := UserMessage(err); got != "precision must be >= 0" {
		t.Errorf("UserMessage() = %q", got)
	}

	plain := fmt.Errorf("boom")
	if got := UserMessage(plain); got != "boom" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestGetCode_Plain(t *testing.T) {
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}
