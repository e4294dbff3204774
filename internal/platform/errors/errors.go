package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig    Kind = "config"
	KindDomain    Kind = "domain"
	KindTransport Kind = "transport"
	KindStorage   Kind = "storage"
	KindBootstrap Kind = "bootstrap"
	KindUnknown   Kind = "unknown"
)

// Sentinel errors shared between the auth domain and the HTTP layer.
var (
	// ErrInvalidSignature marks a recovered-address mismatch or a malformed
	// signature. Not retryable without re-signing.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrChallengeExpired marks a message that does not correspond to a live,
	// unconsumed challenge. The client must request a fresh one.
	ErrChallengeExpired = errors.New("challenge expired or already used")
	// ErrNotFound marks a profile operation against an unknown wallet.
	ErrNotFound = errors.New("user not found")
	// ErrStoreUnavailable marks unreachable or corrupt durable storage.
	// Safe to retry after backoff.
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}
