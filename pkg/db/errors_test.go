package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolation_PgxError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_users_user_id"}
	wrapped := fmt.Errorf("create user: %w", pgErr)

	if !IsUniqueViolation(wrapped) {
		t.Fatal("expected unique violation without constraint filter")
	}
	if !IsUniqueViolation(wrapped, "ux_users_user_id") {
		t.Fatal("expected unique violation for matching constraint")
	}
	if !IsUniqueViolation(wrapped, "ux_users_user_id", "users.user_id") {
		t.Fatal("expected unique violation when any listed name matches")
	}
	if IsUniqueViolation(wrapped, "ux_users_email") {
		t.Fatal("should not match a different constraint")
	}
}

func TestIsUniqueViolation_PqError(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "ux_credentials_provider_subject"}
	if !IsUniqueViolation(pqErr, "ux_credentials_provider_subject") {
		t.Fatal("expected pq unique violation to be detected")
	}
}

func TestIsUniqueViolation_IgnoresOtherCodes(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "fk_credentials_user"}
	if IsUniqueViolation(pgErr) {
		t.Fatal("foreign key violation must not count as unique violation")
	}
}

func TestIsUniqueViolation_MessageFallback(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: users.user_id")
	if !IsUniqueViolation(err) {
		t.Fatal("expected sqlite-style message to be detected")
	}
	if !IsUniqueViolation(err, "ux_users_user_id", "users.user_id") {
		t.Fatal("expected table.column form to match sqlite message")
	}
	if IsUniqueViolation(err, "ux_users_email", "users.email") {
		t.Fatal("should not match names absent from the message")
	}
	if IsUniqueViolation(errors.New("connection reset")) {
		t.Fatal("unrelated errors must not match")
	}
}
