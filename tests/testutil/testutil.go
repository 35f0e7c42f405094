package testutil

import (
	"os"
	"testing"
)

// RequireTestEnvironment stops the test unless GO_ENV=test. Every helper that
// opens or seeds a database calls it first so a misconfigured run never
// touches a real restaurant database.
func RequireTestEnvironment(t testing.TB) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: tests must run with GO_ENV=test (current GO_ENV=%q). Use `make test`.", env)
	}
}
