package filestorage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(filepath.Join(dir, "nested"))
	if err != nil {
		t.Fatal(err)
	}

	if err := ls.WriteFileAtomic("alunos.json", []byte(`[1]`)); err != nil {
		t.Fatal(err)
	}
	if err := ls.WriteFileAtomic("alunos.json", []byte(`[1,2]`)); err != nil {
		t.Fatal(err)
	}
	got, err := ls.ReadFile("alunos.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[1,2]` {
		t.Fatalf("got %q", got)
	}

	entries, err := os.ReadDir(ls.BasePath())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be gone, found %d entries", len(entries))
	}
}

func TestReadFileMissing(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ls.ReadFile("nope.json"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if err := ls.DeleteFile("nope.json"); err != nil {
		t.Fatalf("deleting a missing file should succeed: %v", err)
	}
}

func TestGetFullPathRejectsTraversal(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "..", "../etc/passwd", "a/b.json"} {
		if _, err := ls.GetFullPath(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
