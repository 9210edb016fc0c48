// Package storage provides blob storage for uploaded file content.
// Blobs are addressed by opaque keys; metadata (original name, mime type,
// size) lives in the database, never next to the blob.
package storage

import "errors"

var (
	// ErrWrite indicates the blob could not be persisted.
	ErrWrite = errors.New("blob write failed")
	// ErrDelete indicates the blob could not be removed.
	ErrDelete = errors.New("blob delete failed")
)
