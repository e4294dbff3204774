package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(KindStorage, "users.find", "lookup failed", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapPreservesTypedError(t *testing.T) {
	original := New(KindConfig, "config.validate", "jwt secret missing")
	wrapped := Wrap(KindStorage, "outer.op", "outer message", fmt.Errorf("outer: %w", original))
	if wrapped != original {
		t.Fatalf("expected the inner typed error to be preserved, got %v", wrapped)
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindStorage, "users.upsert", "write failed", cause)
	want := "[storage:users.upsert] write failed: disk full"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	bare := New(KindDomain, "auth.verify", "signature rejected")
	want = "[domain:auth.verify] signature rejected"
	if bare.Error() != want {
		t.Fatalf("unexpected message: %q", bare.Error())
	}
}

func TestUnwrapChain(t *testing.T) {
	err := Wrap(KindStorage, "users.find", "lookup failed", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected chain to contain ErrNotFound")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(KindTransport, "http.bind", "bad payload"))
	if !IsKind(err, KindTransport) {
		t.Fatalf("expected transport kind")
	}
	if IsKind(err, KindStorage) {
		t.Fatalf("did not expect storage kind")
	}
	if IsKind(errors.New("plain"), KindTransport) {
		t.Fatalf("plain error should not match any kind")
	}
}
