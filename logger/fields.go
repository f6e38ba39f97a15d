package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across medf.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Documents
	FieldFile     = "file"
	FieldDocument = "document_id"
	FieldBlockID  = "block_id"
	FieldVersion  = "medf_version"

	// Integrity
	FieldAlgorithm = "algorithm"
	FieldDigest    = "digest"
	FieldExpected  = "expected"
	FieldActual    = "actual"
	FieldOutcome   = "outcome"
	FieldSignature = "signature"
	FieldPublicKey = "public_key"

	// Operations
	FieldCommand   = "command"
	FieldAlias     = "alias"
	FieldOperation = "operation"
	FieldCount     = "count"
	FieldPath      = "path"

	// Errors
	FieldError = "error"
)

// ComponentLogger returns a named logger for a specific component.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// DocumentLogger returns a logger carrying the file and document id.
func DocumentLogger(path, documentID string) *zap.SugaredLogger {
	return Logger.With(FieldFile, path, FieldDocument, documentID)
}
