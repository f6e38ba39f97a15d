// Package errors provides error handling for medf.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints attached to failures
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "run 'medf pack' first")
//
//	// Check errors
//	if errors.Is(err, errors.ErrMissingHash) {
//	    // handle unhashed document
//	}
//
// Verification failures are NOT errors: they are returned as data by the
// verify package. The sentinels here cover operations that must abort.
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors for the integrity pipeline.
// Use these with errors.Is() and wrap them with errors.Wrap() to add context.
var (
	// ErrEncoding indicates a value outside the canonical JSON type set
	// (non-finite number, invalid UTF-8, unsupported Go type).
	ErrEncoding = New("canonical encoding failed")

	// ErrMissingHash indicates an attempt to sign a document with no doc_hash.
	ErrMissingHash = New("document has no doc_hash")

	// ErrKey indicates unreadable or malformed key material.
	ErrKey = New("invalid key material")

	// ErrInvalidDocument indicates a document that cannot be decoded into the model
	ErrInvalidDocument = New("invalid document")

	// ErrDuplicateBlockID indicates two blocks sharing one block_id
	ErrDuplicateBlockID = New("duplicate block_id")

	// ErrUnsupportedAlgorithm indicates a hash or signature algorithm this build does not implement
	ErrUnsupportedAlgorithm = New("unsupported algorithm")

	// ErrUnsupportedVersion indicates a medf_version outside the supported range
	ErrUnsupportedVersion = New("unsupported medf_version")
)

// IsEncodingError checks if an error is or wraps ErrEncoding
func IsEncodingError(err error) bool {
	return err != nil && Is(err, ErrEncoding)
}

// IsMissingHashError checks if an error is or wraps ErrMissingHash
func IsMissingHashError(err error) bool {
	return err != nil && Is(err, ErrMissingHash)
}

// IsKeyError checks if an error is or wraps ErrKey
func IsKeyError(err error) bool {
	return err != nil && Is(err, ErrKey)
}

// IsInvalidDocumentError reports whether err marks a document the model rejected,
// including duplicate block identifiers.
func IsInvalidDocumentError(err error) bool {
	return err != nil && IsAny(err, ErrInvalidDocument, ErrDuplicateBlockID)
}

// NewEncodingError creates an encoding error with a formatted message
func NewEncodingError(format string, args ...interface{}) error {
	return Wrap(ErrEncoding, Newf(format, args...).Error())
}

// NewKeyError creates a key error with a formatted message
func NewKeyError(format string, args ...interface{}) error {
	return Wrap(ErrKey, Newf(format, args...).Error())
}

// WrapKey marks err as a key error, keeping its message
func WrapKey(err error, context string) error {
	if err == nil {
		return nil
	}
	return Wrap(Mark(err, ErrKey), context)
}

// WrapInvalidDocument marks err as an invalid-document error, keeping its message
func WrapInvalidDocument(err error, context string) error {
	if err == nil {
		return nil
	}
	return Wrap(Mark(err, ErrInvalidDocument), context)
}
