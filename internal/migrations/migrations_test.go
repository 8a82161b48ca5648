package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(Files(), "sql/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("expected 4 migrations, got %v", files)
	}
	for _, name := range files {
		body, err := fs.ReadFile(Files(), name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		text := string(body)
		if !strings.Contains(text, "-- +goose Up") || !strings.Contains(text, "-- +goose Down") {
			t.Fatalf("%s lacks goose annotations", name)
		}
	}
}
