// Package sitebuild unpacks a generated site archive and runs its
// build step, yielding the content directory that gets audited.
package sitebuild

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"revamp/internal/saferoot"
)

const maxExtractBytes = 256 << 20

// ExtractZip unpacks archivePath into destDir. Entry names are resolved
// through a root-locked resolver so a crafted archive cannot write
// outside destDir.
func ExtractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("sitebuild: open archive: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("sitebuild: mkdir %s: %w", destDir, err)
	}
	root, err := saferoot.New(destDir)
	if err != nil {
		return fmt.Errorf("sitebuild: %w", err)
	}

	var total int64
	for _, f := range zr.File {
		target, err := root.Resolve(f.Name)
		if err != nil {
			return fmt.Errorf("sitebuild: archive entry %q: %w", f.Name, err)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("sitebuild: mkdir %s: %w", f.Name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("sitebuild: mkdir for %s: %w", f.Name, err)
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("sitebuild: open entry %s: %w", f.Name, err)
		}
		n, err := copyEntry(target, rc, maxExtractBytes-total)
		rc.Close()
		if err != nil {
			return fmt.Errorf("sitebuild: extract %s: %w", f.Name, err)
		}
		total += n
	}
	return nil
}

func copyEntry(target string, r io.Reader, budget int64) (int64, error) {
	if budget <= 0 {
		return 0, fmt.Errorf("archive exceeds extraction budget")
	}
	w, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer w.Close()

	n, err := io.Copy(w, io.LimitReader(r, budget))
	if err != nil {
		return n, err
	}
	if n == budget {
		return n, fmt.Errorf("archive exceeds extraction budget")
	}
	return n, nil
}
