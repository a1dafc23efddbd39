package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeInsufficientBalance, http.StatusUnprocessableEntity},
		{CodeOutOfStock, http.StatusConflict},
		{CodePoolExceeded, http.StatusUnprocessableEntity},
		{CodeBudgetExceeded, http.StatusUnprocessableEntity},
		{CodeDuplicateAward, http.StatusConflict},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("db down")
	err := Wrap(CodeDependency, cause, "load account")

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be preserved")
	}
	if typed := As(fmt.Errorf("outer: %w", err)); typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("expected As to find typed error through wrapping")
	}
}

func TestHasCode(t *testing.T) {
	t.Parallel()

	err := New(CodeDuplicateAward, "already awarded")
	if !HasCode(err, CodeDuplicateAward) {
		t.Fatal("expected HasCode to match")
	}
	if HasCode(err, CodePoolExceeded) {
		t.Fatal("expected HasCode to reject other codes")
	}
	if HasCode(nil, CodeDuplicateAward) {
		t.Fatal("expected HasCode to reject nil")
	}
}
