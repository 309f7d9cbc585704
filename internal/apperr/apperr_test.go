package apperr

import (
	"database/sql"
	"errors"
	"testing"
)

func TestStorageKeepsCauseInChain(t *testing.T) {
	err := Storage(sql.ErrConnDone, "insert alert")

	if !IsStorage(err) {
		t.Fatalf("expected storage category, got %v", err)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected to reach the driver error, got %v", err)
	}
}

func TestStorageNilPassthrough(t *testing.T) {
	if err := Storage(nil, "noop"); err != nil {
		t.Fatalf("expected nil for nil cause, got %v", err)
	}
}

func TestCategoriesAreDisjoint(t *testing.T) {
	err := Storage(errors.New("deadlock detected"), "apply donation")

	if IsValidation(err) || IsNotFound(err) || IsInvalidTransition(err) {
		t.Fatalf("storage error leaked into another category: %v", err)
	}
	if !IsValidation(Validation("bad input")) {
		t.Fatal("validation constructor must match its category")
	}
	if !IsNotFound(NotFound("alert x")) {
		t.Fatal("not-found constructor must match its category")
	}
}
