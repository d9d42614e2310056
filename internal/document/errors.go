package document

import "errors"

// Domain errors for the document package.
var (
	// ErrEmptyDocument is returned when parsing input that has no root element.
	ErrEmptyDocument = errors.New("document: no root element")

	// ErrMultipleRoots is returned when input has more than one top-level element.
	ErrMultipleRoots = errors.New("document: multiple root elements")

	// ErrSnapshotNotFound is returned when a named snapshot does not exist.
	ErrSnapshotNotFound = errors.New("document: snapshot not found")

	// ErrInvalidSnapshotName is returned when a snapshot name is empty.
	ErrInvalidSnapshotName = errors.New("document: invalid snapshot name")
)
