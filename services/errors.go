package services

import (
	"errors"
)

// Typed failures the HTTP layer maps to status codes. Services wrap these
// with fmt.Errorf("...: %w", ...) so callers match with errors.Is.
var (
	// ErrNotFound means the id resolves to no node, share or user.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the ownership or share-reachability check failed.
	ErrForbidden = errors.New("forbidden")

	// ErrNotAFolder means the operation needs a folder target.
	ErrNotAFolder = errors.New("not a folder")

	// ErrCycle means a move would place a node under itself.
	ErrCycle = errors.New("move would create a cycle")

	// ErrBadSelection means a download or share selection is empty or
	// spans more than one drive.
	ErrBadSelection = errors.New("invalid selection")

	// ErrStorage wraps repository or blob-store I/O failures, including a
	// parent chain that exceeds the walk depth cap.
	ErrStorage = errors.New("storage failure")
)
