package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	meta := MetadataFor(CodeValidation)
	if meta.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation, got %d", meta.HTTPStatus)
	}
	if meta.Retryable {
		t.Fatalf("validation errors must not be retryable")
	}

	meta = MetadataFor(CodeDependency)
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500 for dependency, got %d", meta.HTTPStatus)
	}
	if !meta.Retryable {
		t.Fatalf("dependency errors should be retryable")
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := Wrap(CodeDependency, cause, "upstream call")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be discoverable")
	}
	if got := err.Error(); got != "DEPENDENCY_ERROR: upstream call" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeNotFound, "no such user")
	outer := fmt.Errorf("handling request: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatalf("expected typed error in chain")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", typed.Code())
	}
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "ux_users_user_id",
		TableName:      "users",
		Detail:         "Key (user_id)=(7) already exists.",
	}
	err := Wrap(CodeConflict, fmt.Errorf("create user: %w", pgErr), "register")

	dump := Dump(err)
	if dump.PGCode != "23505" {
		t.Fatalf("expected pg code 23505, got %q", dump.PGCode)
	}
	if dump.PGConstraint != "ux_users_user_id" {
		t.Fatalf("expected constraint name, got %q", dump.PGConstraint)
	}
	if dump.Code != CodeConflict {
		t.Fatalf("expected typed code in dump, got %q", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected unwrap chain, got %v", dump.Chain)
	}
}
