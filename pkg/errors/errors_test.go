package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(CodeDependency, cause, "load order")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeNotFound, "order not found")
	outer := fmt.Errorf("handling request: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
}

func TestStateConflictMapsToBadRequest(t *testing.T) {
	meta := MetadataFor(CodeStateConflict)
	if meta.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, errors.New("root"), "stk push")
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected full chain, got %v", d.Chain)
	}
}

func TestDumpExtractsPgxDetail(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "users_email_key",
		TableName:      "users",
		ColumnName:     "email",
		Detail:         "Key (email)=(x@y.z) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	d := Dump(Wrap(CodeConflict, pgErr, "create user"))

	if d.PGCode != "23505" {
		t.Fatalf("unexpected pg code %q", d.PGCode)
	}
	if d.PGColumn != "email" {
		t.Fatalf("unexpected pg column %q", d.PGColumn)
	}
	if d.PGConstraint != "users_email_key" || d.PGTable != "users" {
		t.Fatalf("unexpected constraint/table %q/%q", d.PGConstraint, d.PGTable)
	}
}

func TestDumpExtractsPqDetail(t *testing.T) {
	pqErr := &pq.Error{
		Code:    "23502",
		Table:   "orders",
		Column:  "total_price",
		Message: "null value in column",
	}
	d := Dump(Wrap(CodeInternal, pqErr, "insert order"))

	if d.PGCode != "23502" {
		t.Fatalf("unexpected pg code %q", d.PGCode)
	}
	if d.PGColumn != "total_price" {
		t.Fatalf("unexpected pg column %q", d.PGColumn)
	}
}
