// Package inbox imports catalog items from a directory of Markdown cards.
// Each card carries the item's fields in YAML frontmatter; cards are synced
// into the catalog at startup and re-imported when they change on disk.
package inbox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CardMeta describes one card file on disk.
type CardMeta struct {
	Path     string
	Checksum string
}

// Provider is the interface for inbox file access.
type Provider interface {
	// List returns metadata for every .md card under the inbox root.
	List() ([]CardMeta, error)
	// Read returns the raw bytes of the card at path (relative to the root).
	Read(path string) ([]byte, error)
}

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to inbox directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("inbox: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("inbox: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute inbox directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the root and rejects any result
// that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("inbox: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("inbox: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("inbox: path escapes inbox root: %s", rel)
	}
	return abs, nil
}

// List walks the inbox and returns metadata for every .md card.
// Paths use forward slashes regardless of platform.
func (f *FS) List() ([]CardMeta, error) {
	var out []CardMeta
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isCard(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, CardMeta{
			Path:     filepath.ToSlash(rel),
			Checksum: Checksum(data),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inbox: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a card.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(filepath.FromSlash(path))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("inbox: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes a card: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(filepath.FromSlash(path))
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("inbox: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".lending-tmp-*")
	if err != nil {
		return fmt.Errorf("inbox: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("inbox: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("inbox: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("inbox: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("inbox: rename: %w", err)
	}
	success = true
	return nil
}

func isCard(name string) bool {
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, ".")
}

// Checksum returns the hex-encoded SHA-256 digest of a card's bytes.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
