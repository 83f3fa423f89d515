// Package staging owns the directory transient downloads are written to.
package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a staging directory. Files inside it are transient and removed by
// whoever staged them.
type Dir struct {
	root string
}

// New returns a Dir rooted at root. Nothing is touched on disk until Ensure.
func New(root string) Dir {
	if strings.TrimSpace(root) == "" {
		root = "downloads"
	}
	return Dir{root: filepath.Clean(root)}
}

// Root returns the directory path.
func (d Dir) Root() string { return d.root }

// Ensure creates the directory if it is missing.
func (d Dir) Ensure() error {
	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return fmt.Errorf("create staging dir %s: %w", d.root, err)
	}
	return nil
}

// Path joins name onto the root. Only the base of name is used so a crafted
// name cannot escape the directory.
func (d Dir) Path(name string) string {
	return filepath.Join(d.root, filepath.Base(filepath.Clean("/"+name)))
}

// Remove deletes path. An already absent file is not an error.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
