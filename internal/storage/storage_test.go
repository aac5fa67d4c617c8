package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestDetectImage(t *testing.T) {
	cases := []struct {
		name    string
		data    []byte
		wantExt string
		wantOK  bool
	}{
		{"png", pngHeader, ".png", true},
		{"gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), ".gif", true},
		{"pdf", []byte("%PDF-1.4\n%âãÏÓ\n"), "", false},
		{"text", []byte("just some notes"), "", false},
		{"empty", nil, "", false},
	}

	for _, tc := range cases {
		ext, ok := DetectImage(tc.data)
		if ok != tc.wantOK || ext != tc.wantExt {
			t.Fatalf("%s: DetectImage = (%q, %v); want (%q, %v)", tc.name, ext, ok, tc.wantExt, tc.wantOK)
		}
	}
}

func TestLocalStore_PutDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root, "http://localhost:8080/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	rel, err := s.Put(ctx, "todos/covers", ".png", pngHeader)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasPrefix(rel, "todos/covers/") || !strings.HasSuffix(rel, ".png") {
		t.Fatalf("unexpected path %q", rel)
	}

	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(b) != string(pngHeader) {
		t.Fatalf("stored content mismatch")
	}

	if got := s.URL(rel); got != "http://localhost:8080/storage/"+rel {
		t.Fatalf("unexpected url %q", got)
	}

	if err := s.Delete(ctx, rel); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	// second delete is a no-op
	if err := s.Delete(ctx, rel); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestLocalStore_StaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(filepath.Join(root, "public"), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	outside := filepath.Join(root, "secret.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := s.Delete(context.Background(), "../secret.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("file outside root must survive: %v", err)
	}
	if err := s.Delete(context.Background(), ""); err != ErrOutsideRoot {
		t.Fatalf("expected ErrOutsideRoot for empty path, got %v", err)
	}
}
