package drive

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a folder or file does not exist or
	// belongs to a different owner. The two cases are deliberately
	// indistinguishable to callers.
	ErrNotFound = errors.New("not found")

	// ErrRootImmutable is returned for rename, delete, or unshare attempts
	// on the owner's root folder.
	ErrRootImmutable = errors.New("the root folder cannot be modified")

	// ErrInvalidName is returned when a folder or file name cannot serve as
	// a path segment.
	ErrInvalidName = errors.New("invalid name")
)

// ConfirmationRequiredError is returned when deleting a folder that still
// contains entries and the caller did not confirm. It carries the counts so
// the client can show what would be lost.
type ConfirmationRequiredError struct {
	SubfolderCount int64
	FileCount      int64
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("folder contains %d subfolders and %d files; confirmation required",
		e.SubfolderCount, e.FileCount)
}

// PhysicalError wraps a failed filesystem operation. When a structural
// change fails physically, no metadata is touched, so the database still
// describes the directory tree as it is on disk.
type PhysicalError struct {
	Op   string // "create", "move", "delete", "write", "read"
	Path string
	Err  error
}

func (e *PhysicalError) Error() string {
	return fmt.Sprintf("physical %s of %s failed: %v", e.Op, e.Path, e.Err)
}

func (e *PhysicalError) Unwrap() error {
	return e.Err
}
