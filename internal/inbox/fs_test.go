package inbox

import (
	"os"
	"path/filepath"
	"testing"
)

func tempInbox(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempInbox(t)
	content := []byte("---\ntitle: A\n---\n")
	if err := s.Write("shelf/a.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("shelf/a.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestList_OnlyCards(t *testing.T) {
	s := tempInbox(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = os.WriteFile(filepath.Join(s.Root(), "readme.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(s.Root(), ".hidden.md"), []byte("x"), 0o644)

	metas, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := map[string]string{}
	for _, m := range metas {
		got[m.Path] = m.Checksum
	}
	if len(got) != 2 {
		t.Fatalf("listed %v, want a.md and sub/b.md", got)
	}
	if got["a.md"] != Checksum([]byte("a")) {
		t.Errorf("checksum a.md = %q", got["a.md"])
	}
	if _, ok := got["sub/b.md"]; !ok {
		t.Error("sub/b.md missing")
	}
}

func TestPathTraversalRejected(t *testing.T) {
	s := tempInbox(t)
	if _, err := s.Read("../escape.md"); err == nil {
		t.Error("expected error for path traversal")
	}
	if err := s.Write("/etc/x.md", []byte("x")); err == nil {
		t.Error("expected error for absolute path")
	}
}

func TestNewFS_NotADirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	_ = os.WriteFile(f, nil, 0o644)
	if _, err := NewFS(f); err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	if Checksum([]byte("hello")) != Checksum([]byte("hello")) {
		t.Error("checksum not deterministic")
	}
	if Checksum([]byte("a")) == Checksum([]byte("b")) {
		t.Error("different inputs share a checksum")
	}
}
