package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/heartmarshall/stashkeep-backend/internal/config"
)

// Disk stores blobs as files under a root directory, one subdirectory per
// folder. Keys are `folder/ULID[.ext]`, so keys within a folder sort by
// creation time and stay unique without coordination.
type Disk struct {
	root    string
	baseURL string
}

// NewDisk creates a disk-backed blob store, creating the root directory
// if it does not exist.
func NewDisk(cfg config.StorageConfig) (*Disk, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Disk{
		root:    cfg.Root,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Put writes a blob under the given folder and returns its generated key.
// The content type only contributes a file extension.
func (d *Disk) Put(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := path.Join(cleanFolder(folder), ulid.Make().String()+extFor(contentType))

	dir := filepath.Join(d.root, filepath.Dir(filepath.FromSlash(key)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	// Write to a temp file first so a crash never leaves a partial blob
	// under a valid key.
	tmp, err := os.CreateTemp(dir, "put-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(d.root, filepath.FromSlash(key))); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	return key, nil
}

// Delete removes a blob. Deleting a missing key is a no-op: delete is
// retried by cleanup paths and must be idempotent.
func (d *Disk) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean := path.Clean("/" + key) // confine the key inside the root
	if err := os.Remove(filepath.Join(d.root, filepath.FromSlash(clean))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}

	return nil
}

// PublicURL derives the stable public URL of a stored blob.
func (d *Disk) PublicURL(key string) string {
	return d.baseURL + "/" + key
}

// cleanFolder strips traversal from a folder name; empty folders collapse
// to the root.
func cleanFolder(folder string) string {
	clean := path.Clean("/" + folder)
	return strings.TrimPrefix(clean, "/")
}

// extFor picks a file extension for a content type, empty when unknown.
func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg" // mime package prefers .jfif on some systems
	case "text/plain":
		return ".txt"
	}

	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
