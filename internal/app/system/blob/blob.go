// Package blob manages the physical bytes behind the folder tree.
//
// Every folder row has a matching directory under the blob root and every
// file row a regular file, both addressed by the same materialized path the
// metadata stores. The store exposes whole-subtree operations (MoveTree,
// DeleteTree) because structural operations on the tree always act on
// subtrees, never on individual nested entries.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Store is a local-filesystem blob store rooted at a single directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// New creates a Store rooted at basePath, creating the root directory if it
// does not exist yet.
func New(basePath string, logger *zap.Logger) (*Store, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: abs, logger: logger}, nil
}

// Root returns the absolute root directory of the store.
func (s *Store) Root() string {
	return s.root
}

// Abs converts a stored (separator-joined, root-relative) path to an
// absolute filesystem path.
func (s *Store) Abs(storedPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(storedPath))
}

// CreateDir creates the directory for storedPath, including any missing
// intermediate directories. Idempotent: an existing directory is success.
func (s *Store) CreateDir(storedPath string) error {
	if err := os.MkdirAll(s.Abs(storedPath), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", storedPath, err)
	}
	return nil
}

// MoveTree relocates the subtree at oldPath to newPath. It first attempts a
// plain rename, which is atomic on a single filesystem; if that fails (for
// example across mount points) it falls back to a recursive copy-and-delete.
// Any failure during the fallback leaves the source tree in place so the
// caller can treat the whole move as failed.
func (s *Store) MoveTree(oldPath, newPath string) error {
	src, dst := s.Abs(oldPath), s.Abs(newPath)

	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("move %s: destination %s already exists", oldPath, newPath)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("move %s: %w", oldPath, err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyTree(src, dst); err != nil {
		// Leave src untouched; remove whatever partial copy landed at dst.
		if rmErr := os.RemoveAll(dst); rmErr != nil && s.logger != nil {
			s.logger.Warn("failed to clean up partial tree copy",
				zap.String("path", newPath),
				zap.Error(rmErr))
		}
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("move %s: remove source after copy: %w", oldPath, err)
	}
	return nil
}

// DeleteTree removes the directory at storedPath and everything below it.
// A path that is already absent is success: delete is idempotent.
func (s *Store) DeleteTree(storedPath string) error {
	if err := os.RemoveAll(s.Abs(storedPath)); err != nil {
		return fmt.Errorf("delete tree %s: %w", storedPath, err)
	}
	return nil
}

// DeleteBlob removes a single file's bytes. Absent is success.
func (s *Store) DeleteBlob(storedPath string) error {
	if err := os.Remove(s.Abs(storedPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", storedPath, err)
	}
	return nil
}

// WriteBlob streams r into the file at storedPath, creating parent
// directories as needed. Returns the number of bytes written.
func (s *Store) WriteBlob(storedPath string, r io.Reader) (int64, error) {
	abs := s.Abs(storedPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return 0, fmt.Errorf("write blob %s: %w", storedPath, err)
	}
	f, err := os.Create(abs)
	if err != nil {
		return 0, fmt.Errorf("write blob %s: %w", storedPath, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Do not leave a truncated blob behind.
		if rmErr := os.Remove(abs); rmErr != nil && s.logger != nil {
			s.logger.Warn("failed to remove partial blob",
				zap.String("path", storedPath),
				zap.Error(rmErr))
		}
		return 0, fmt.Errorf("write blob %s: %w", storedPath, err)
	}
	return n, nil
}

// ReadBlob opens the file at storedPath for streaming. The caller closes it.
func (s *Store) ReadBlob(storedPath string) (io.ReadCloser, error) {
	f, err := os.Open(s.Abs(storedPath))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", storedPath, err)
	}
	return f, nil
}

// Exists reports whether anything (file or directory) lives at storedPath.
func (s *Store) Exists(storedPath string) (bool, error) {
	_, err := os.Stat(s.Abs(storedPath))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// copyTree recursively copies a directory tree. Used only as the MoveTree
// fallback when rename crosses filesystems.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}

// CleanSegment reports whether a name is usable as a single path segment:
// non-empty and free of separators or traversal sequences. Names are
// validated before they ever reach the store, but the check is repeated here
// because the store is the last line between a name and the filesystem.
func CleanSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}
