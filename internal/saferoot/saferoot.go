// Package saferoot resolves untrusted relative paths against a fixed
// directory and refuses anything that escapes it. It backs both the
// ephemeral static server (request paths) and archive extraction
// (entry names).
package saferoot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Root is a directory boundary for path resolution.
type Root struct {
	abs string // absolute, symlink-resolved
}

// New binds a Root to dir. dir must exist and be a directory.
func New(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("saferoot: empty directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("saferoot: not a directory: %s", dir)
	}
	return &Root{abs: abs}, nil
}

// Dir returns the absolute directory this Root is bound to.
func (r *Root) Dir() string {
	if r == nil {
		return ""
	}
	return r.abs
}

// Resolve maps a slash-separated relative path (request path, archive
// entry) to an absolute path under the root. Absolute inputs and any
// form of traversal outside the root are rejected.
func (r *Root) Resolve(rel string) (string, error) {
	if r == nil {
		return "", errors.New("saferoot: nil root")
	}
	rel = strings.TrimPrefix(strings.TrimSpace(rel), "/")
	if rel == "" || rel == "." {
		return r.abs, nil
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("saferoot: absolute path not allowed: %s", rel)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("saferoot: path escapes root: %s", rel)
	}
	return filepath.Join(r.abs, clean), nil
}

// Stat resolves rel and stats the result. A path whose symlink target
// lies outside the root is treated as nonexistent.
func (r *Root) Stat(rel string) (fs.FileInfo, error) {
	p, err := r.Resolve(rel)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return nil, err
	}
	if !within(resolved, r.abs) {
		return nil, fmt.Errorf("saferoot: symlink escapes root: %s", rel)
	}
	return os.Stat(resolved)
}

// ReadFile reads a regular file under the root.
func (r *Root) ReadFile(rel string) ([]byte, error) {
	p, err := r.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := r.Stat(rel)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("saferoot: path is a directory: %s", rel)
	}
	return os.ReadFile(p)
}

// Open opens a regular file under the root for reading.
func (r *Root) Open(rel string) (*os.File, error) {
	p, err := r.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := r.Stat(rel)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("saferoot: path is a directory: %s", rel)
	}
	return os.Open(p)
}

func within(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
