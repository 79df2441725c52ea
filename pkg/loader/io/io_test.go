package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/ned/pkg/loader"
)

func TestIODocumentLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mentions.txt")
	if err := os.WriteFile(path, []byte("Lincoln\nCivil War\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewIODocumentLoader()
	file := loader.NewDocumentFile(loader.NewDocumentFileParams{ID: "d1", FilePath: path, Loader: l})

	mentions, err := file.Mentions(context.Background())
	if err != nil {
		t.Fatalf("Mentions() error = %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("Mentions() = %v", mentions)
	}

	if err := os.WriteFile(path, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := l.GetFileBytes(context.Background(), file)
	if err != nil || string(b) != "Lincoln\nCivil War\n" {
		t.Fatalf("expected cached content, got %q, %v", b, err)
	}
}

func TestIODocumentLoader_Missing(t *testing.T) {
	l := NewIODocumentLoader()
	file := loader.NewDocumentFile(loader.NewDocumentFileParams{ID: "x", FilePath: filepath.Join(t.TempDir(), "nope.txt")})
	if _, err := l.GetFileBytes(context.Background(), file); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
