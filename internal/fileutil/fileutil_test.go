package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestAppendFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.part00")
	second := filepath.Join(dir, "a.part01")
	if err := os.WriteFile(first, []byte("hello "), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	for _, part := range []string{first, second} {
		if _, err := AppendFile(&buf, part); err != nil {
			t.Fatal(err)
		}
	}
	if buf.String() != "hello world" {
		t.Fatalf("content mismatch: got %q", buf.String())
	}

	if _, err := AppendFile(&buf, filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	_, exists, err := FileSize(path)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("expected missing file to report exists=false")
	}

	if err := os.WriteFile(path, []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	size, exists, err := FileSize(path)
	if err != nil {
		t.Fatal(err)
	}
	if !exists || size != 5 {
		t.Fatalf("size = %d exists = %v, want 5 true", size, exists)
	}

	if _, _, err := FileSize(dir); err == nil {
		t.Fatal("expected error for directory")
	}
}
