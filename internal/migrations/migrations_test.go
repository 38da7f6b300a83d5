package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsAreOrderedAndReversible(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		t.Fatalf("read embedded dir: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(entries))
	}

	prev := ""
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".sql") {
			t.Fatalf("unexpected embedded file %q", e.Name())
		}
		if e.Name() <= prev {
			t.Fatalf("migrations out of order: %q after %q", e.Name(), prev)
		}
		prev = e.Name()

		body, err := fs.ReadFile(FS, e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		text := string(body)
		if !strings.Contains(text, "-- +goose Up") || !strings.Contains(text, "-- +goose Down") {
			t.Fatalf("%s is missing goose annotations", e.Name())
		}
	}
}

func TestRefreshTokensActiveSessionIndexIsPartial(t *testing.T) {
	body, err := fs.ReadFile(FS, "00002_refresh_tokens.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(body)
	if !strings.Contains(text, "WHERE rotated_at IS NULL AND revoked_at IS NULL") {
		t.Fatal("active-session uniqueness must only cover live rows")
	}
	if !strings.Contains(text, "ON DELETE CASCADE") {
		t.Fatal("refresh tokens must cascade with their account")
	}
}
