package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "runs", "2024", "out.yaml")
	if err := SafeWriteFile(p, []byte("a: 1\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "a: 1\n" {
		t.Fatalf("unexpected content %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSafeWriteFileReplaces(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.txt")
	for _, s := range []string{"first", "second"} {
		if err := SafeWriteFile(p, []byte(s)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	b, _ := os.ReadFile(p)
	if string(b) != "second" {
		t.Fatalf("expected replacement, got %q", b)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("unexpected json %q", b)
	}
	if _, err := PrettyJSON(func() {}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
