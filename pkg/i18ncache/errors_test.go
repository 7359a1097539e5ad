package i18ncache

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	verr := NewValidationError("bad key", map[string]any{"key": ""})
	if verr.Code != CodeValidation {
		t.Fatalf("Expected code %s, got %s", CodeValidation, verr.Code)
	}
	if !strings.Contains(verr.Error(), CodeValidation) {
		t.Fatalf("Expected error string to carry the code, got %q", verr.Error())
	}

	serr := NewStorageError("write failed", errors.New("connection refused"))
	if serr.Code != CodeStorage {
		t.Fatalf("Expected code %s, got %s", CodeStorage, serr.Code)
	}

	xerr := NewSerializationError("decode failed", errors.New("unexpected EOF"))
	if xerr.Code != CodeSerialization {
		t.Fatalf("Expected code %s, got %s", CodeSerialization, xerr.Code)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	serr := NewStorageError("write failed", cause)

	if !errors.Is(serr, cause) {
		t.Fatal("Expected errors.Is to reach the cause")
	}
	if !strings.Contains(serr.Error(), "connection refused") {
		t.Fatalf("Expected error string to include the cause, got %q", serr.Error())
	}
}

func TestErrorsAsTypedError(t *testing.T) {
	var err error = NewValidationError("bad config", nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatal("Expected errors.As to match *ValidationError")
	}

	var cerr *CacheError
	if errors.As(err, &cerr) {
		// Embedding does not make the outer type match *CacheError;
		// callers match on the concrete types.
		t.Fatal("Did not expect *CacheError to match directly")
	}
}
