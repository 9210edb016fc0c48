// Package file implements the File and attachment (item_files) repository
// using PostgreSQL. An attachment is a file row joined with its junction
// row carrying position and primary selection.
package file

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// Repo provides file and attachment persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new file repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const attachmentColumns = `f.id, f.user_id, f.storage_key, f.original_name, f.mime_type,
       f.size_bytes, f.created_at, itf.item_id, itf.position, itf.is_primary`

const getForItemSQL = `
SELECT ` + attachmentColumns + `
FROM item_files itf
JOIN files f ON itf.file_id = f.id
WHERE itf.item_id = $1
ORDER BY itf.position ASC`

const getForItemsSQL = `
SELECT ` + attachmentColumns + `
FROM item_files itf
JOIN files f ON itf.file_id = f.id
WHERE itf.item_id = ANY($1::uuid[])
ORDER BY itf.item_id, itf.position ASC`

const getAttachmentSQL = `
SELECT ` + attachmentColumns + `
FROM item_files itf
JOIN files f ON itf.file_id = f.id
WHERE itf.item_id = $1 AND itf.file_id = $2`

const insertFileSQL = `
INSERT INTO files (id, user_id, storage_key, original_name, mime_type, size_bytes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const attachSQL = `
INSERT INTO item_files (item_id, file_id, position, is_primary)
VALUES ($1, $2, $3, $4)`

const detachSQL = `DELETE FROM item_files WHERE item_id = $1 AND file_id = $2`

const deleteFileSQL = `DELETE FROM files WHERE id = $1`

const deleteByItemIDsSQL = `
DELETE FROM files
WHERE id IN (SELECT file_id FROM item_files WHERE item_id = ANY($1::uuid[]))`

const maxPositionSQL = `
SELECT COALESCE(MAX(position), -1) FROM item_files WHERE item_id = $1`

const clearPrimarySQL = `
UPDATE item_files SET is_primary = FALSE WHERE item_id = $1 AND is_primary`

const setPrimarySQL = `
UPDATE item_files SET is_primary = TRUE WHERE item_id = $1 AND file_id = $2`

const setPositionSQL = `
UPDATE item_files SET position = $3 WHERE item_id = $1 AND file_id = $2`

// ensurePrimarySQL promotes the lowest-position attachment when the item has
// attachments but none marked primary. No-op otherwise.
const ensurePrimarySQL = `
UPDATE item_files SET is_primary = TRUE
WHERE item_id = $1
  AND file_id = (SELECT file_id FROM item_files WHERE item_id = $1 ORDER BY position ASC LIMIT 1)
  AND NOT EXISTS (SELECT 1 FROM item_files WHERE item_id = $1 AND is_primary)`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetForItem returns an item's attachments ordered by position.
// Returns an empty slice (not nil) when the item has none.
func (r *Repo) GetForItem(ctx context.Context, itemID uuid.UUID) ([]domain.Attachment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getForItemSQL, itemID)
	if err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}
	defer rows.Close()

	attachments, err := scanAttachments(rows)
	if err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}

	return attachments, nil
}

// GetForItems returns attachments for multiple items keyed by item id,
// each list ordered by position.
func (r *Repo) GetForItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Attachment, error) {
	result := make(map[uuid.UUID][]domain.Attachment, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getForItemsSQL, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("get attachments by item_ids: %w", err)
	}
	defer rows.Close()

	attachments, err := scanAttachments(rows)
	if err != nil {
		return nil, fmt.Errorf("get attachments by item_ids: %w", err)
	}

	for _, a := range attachments {
		result[a.ItemID] = append(result[a.ItemID], a)
	}

	return result, nil
}

// GetAttachment returns a single attachment of an item.
// Returns domain.ErrNotFound if the file is not attached to the item.
func (r *Repo) GetAttachment(ctx context.Context, itemID, fileID uuid.UUID) (*domain.Attachment, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getAttachmentSQL, itemID, fileID)
	if err != nil {
		return nil, postgres.MapError(err, "attachment", fileID)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, postgres.MapError(err, "attachment", fileID)
		}
		return nil, fmt.Errorf("attachment %s: %w", fileID, domain.ErrNotFound)
	}

	a, err := scanAttachmentFromRows(rows)
	if err != nil {
		return nil, postgres.MapError(err, "attachment", fileID)
	}

	return &a, nil
}

// MaxPosition returns the highest attachment position of an item,
// or -1 when the item has no attachments.
func (r *Repo) MaxPosition(ctx context.Context, itemID uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var max int
	if err := querier.QueryRow(ctx, maxPositionSQL, itemID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max attachment position: %w", err)
	}

	return max, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// CreateBatch inserts file rows in one round trip.
func (r *Repo) CreateBatch(ctx context.Context, files []domain.File) error {
	if len(files) == 0 {
		return nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	batch := &pgx.Batch{}
	for _, f := range files {
		batch.Queue(insertFileSQL,
			f.ID, f.UserID, f.StorageKey, f.OriginalName, f.MimeType, f.SizeBytes, f.CreatedAt)
	}

	results := querier.SendBatch(ctx, batch)
	defer results.Close()

	for range files {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "file", uuid.Nil)
		}
	}

	return nil
}

// AttachBatch links files to an item in one round trip.
func (r *Repo) AttachBatch(ctx context.Context, attachments []domain.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	batch := &pgx.Batch{}
	for _, a := range attachments {
		batch.Queue(attachSQL, a.ItemID, a.File.ID, a.Position, a.IsPrimary)
	}

	results := querier.SendBatch(ctx, batch)
	defer results.Close()

	for range attachments {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "attachment", uuid.Nil)
		}
	}

	return nil
}

// Detach removes the junction row linking a file to an item.
func (r *Repo) Detach(ctx context.Context, itemID, fileID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, detachSQL, itemID, fileID); err != nil {
		return postgres.MapError(err, "attachment", fileID)
	}

	return nil
}

// DeleteFile removes a file metadata row.
func (r *Repo) DeleteFile(ctx context.Context, fileID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, deleteFileSQL, fileID); err != nil {
		return postgres.MapError(err, "file", fileID)
	}

	return nil
}

// DeleteByItemIDs removes all file rows attached to the given items
// (empty-trash and retention sweep). Junction rows cascade.
func (r *Repo) DeleteByItemIDs(ctx context.Context, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteByItemIDsSQL, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("delete files by item_ids: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ClearPrimary unsets is_primary on all of an item's attachments.
func (r *Repo) ClearPrimary(ctx context.Context, itemID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, clearPrimarySQL, itemID); err != nil {
		return fmt.Errorf("clear primary: %w", err)
	}

	return nil
}

// SetPrimary marks one attachment as primary. The caller clears the old
// primary first (the partial unique index forbids two at once).
// Returns domain.ErrNotFound if the file is not attached to the item.
func (r *Repo) SetPrimary(ctx context.Context, itemID, fileID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, setPrimarySQL, itemID, fileID)
	if err != nil {
		return postgres.MapError(err, "attachment", fileID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attachment %s: %w", fileID, domain.ErrNotFound)
	}

	return nil
}

// SetPosition assigns a presentation position to one attachment.
// Unknown files are a no-op, reported through the returned count.
func (r *Repo) SetPosition(ctx context.Context, itemID, fileID uuid.UUID, position int) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, setPositionSQL, itemID, fileID, position)
	if err != nil {
		return 0, postgres.MapError(err, "attachment", fileID)
	}

	return tag.RowsAffected(), nil
}

// EnsurePrimary repairs the primary-attachment invariant after removals:
// if the item still has attachments but none is primary, the lowest
// position is promoted.
func (r *Repo) EnsurePrimary(ctx context.Context, itemID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, ensurePrimarySQL, itemID); err != nil {
		return fmt.Errorf("ensure primary: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

// scanAttachments scans multiple rows into a domain.Attachment slice.
func scanAttachments(rows pgx.Rows) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	for rows.Next() {
		a, err := scanAttachmentFromRows(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if attachments == nil {
		attachments = []domain.Attachment{}
	}

	return attachments, nil
}

// scanAttachmentFromRows scans a single row in attachmentColumns order.
func scanAttachmentFromRows(rows pgx.Rows) (domain.Attachment, error) {
	var a domain.Attachment

	err := rows.Scan(
		&a.File.ID, &a.File.UserID, &a.StorageKey, &a.OriginalName, &a.MimeType,
		&a.SizeBytes, &a.File.CreatedAt, &a.ItemID, &a.Position, &a.IsPrimary,
	)
	if err != nil {
		return domain.Attachment{}, err
	}

	return a, nil
}
