// Package tag implements the Tag repository using PostgreSQL,
// including the item_tags junction table.
package tag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// Repo provides tag persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tag repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const tagColumns = `t.id, t.user_id, t.name, t.color, t.created_at`

const getByIDsSQL = `
SELECT ` + tagColumns + `
FROM tags t
WHERE t.user_id = $1 AND t.id = ANY($2::uuid[])
ORDER BY t.name ASC`

const getByNameSQL = `
SELECT ` + tagColumns + `
FROM tags t
WHERE t.user_id = $1 AND t.name = $2`

const getByUserSQL = `
SELECT ` + tagColumns + `
FROM tags t
WHERE t.user_id = $1
ORDER BY t.name ASC`

const getForItemSQL = `
SELECT ` + tagColumns + `
FROM item_tags it
JOIN tags t ON it.tag_id = t.id
WHERE it.item_id = $1
ORDER BY t.name ASC`

const getForItemsSQL = `
SELECT ` + tagColumns + `, it.item_id
FROM item_tags it
JOIN tags t ON it.tag_id = t.id
WHERE it.item_id = ANY($1::uuid[])
ORDER BY t.name ASC`

const insertSQL = `
INSERT INTO tags (id, user_id, name, color, created_at)
VALUES ($1, $2, $3, $4, $5)`

const deleteForItemSQL = `DELETE FROM item_tags WHERE item_id = $1`

const linkSQL = `
INSERT INTO item_tags (item_id, tag_id)
VALUES ($1, $2)
ON CONFLICT (item_id, tag_id) DO NOTHING`

const deleteSQL = `DELETE FROM tags WHERE id = $1 AND user_id = $2`

// GetByIDs returns the caller's tags among the given ids, sorted by name.
// Ids belonging to other users or to no tag are silently absent from the
// result; the caller decides whether that is an error.
func (r *Repo) GetByIDs(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID) ([]domain.Tag, error) {
	if len(tagIDs) == 0 {
		return []domain.Tag{}, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByIDsSQL, userID, tagIDs)
	if err != nil {
		return nil, fmt.Errorf("get tags by ids: %w", err)
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return nil, fmt.Errorf("get tags by ids: %w", err)
	}

	return tags, nil
}

// GetByName returns a user's tag by exact name.
// Returns domain.ErrNotFound when no such tag exists.
func (r *Repo) GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Tag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByNameSQL, userID, name)
	if err != nil {
		return nil, postgres.MapError(err, "tag", uuid.Nil)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, postgres.MapError(err, "tag", uuid.Nil)
		}
		return nil, fmt.Errorf("tag %q: %w", name, domain.ErrNotFound)
	}

	t, err := scanTagFromRows(rows)
	if err != nil {
		return nil, postgres.MapError(err, "tag", uuid.Nil)
	}

	return &t, nil
}

// GetByUser returns all of a user's tags sorted by name.
func (r *Repo) GetByUser(ctx context.Context, userID uuid.UUID) ([]domain.Tag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("get tags by user: %w", err)
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return nil, fmt.Errorf("get tags by user: %w", err)
	}

	return tags, nil
}

// GetForItem returns an item's tags sorted by name.
func (r *Repo) GetForItem(ctx context.Context, itemID uuid.UUID) ([]domain.Tag, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getForItemSQL, itemID)
	if err != nil {
		return nil, fmt.Errorf("get tags for item: %w", err)
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return nil, fmt.Errorf("get tags for item: %w", err)
	}

	return tags, nil
}

// GetForItems returns tags for multiple items keyed by item id,
// each list sorted by name.
func (r *Repo) GetForItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Tag, error) {
	result := make(map[uuid.UUID][]domain.Tag, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getForItemsSQL, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("get tags by item_ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t      domain.Tag
			itemID uuid.UUID
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt, &itemID); err != nil {
			return nil, fmt.Errorf("get tags by item_ids: %w", err)
		}
		result[itemID] = append(result[itemID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get tags by item_ids: %w", err)
	}

	return result, nil
}

// Create inserts a new tag.
// Returns domain.ErrAlreadyExists on a (user_id, name) collision.
func (r *Repo) Create(ctx context.Context, t domain.Tag) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, insertSQL, t.ID, t.UserID, t.Name, t.Color, t.CreatedAt)
	if err != nil {
		return postgres.MapError(err, "tag", t.ID)
	}

	return nil
}

// ReplaceForItem rewrites the item's tag links to exactly the given set.
// Meant to run inside the caller's transaction.
func (r *Repo) ReplaceForItem(ctx context.Context, itemID uuid.UUID, tagIDs []uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, deleteForItemSQL, itemID); err != nil {
		return fmt.Errorf("clear item tags: %w", err)
	}

	if len(tagIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, tagID := range tagIDs {
		batch.Queue(linkSQL, itemID, tagID)
	}

	results := querier.SendBatch(ctx, batch)
	defer results.Close()

	for range tagIDs {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "item_tag", itemID)
		}
	}

	return nil
}

// Delete removes a user's tag. Junction rows cascade.
// Returns domain.ErrNotFound when the tag does not exist or is not theirs.
func (r *Repo) Delete(ctx context.Context, userID, tagID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, tagID, userID)
	if err != nil {
		return postgres.MapError(err, "tag", tagID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}

	return nil
}

// scanTags scans multiple rows into a domain.Tag slice.
func scanTags(rows pgx.Rows) ([]domain.Tag, error) {
	var tags []domain.Tag
	for rows.Next() {
		t, err := scanTagFromRows(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []domain.Tag{}
	}

	return tags, nil
}

// scanTagFromRows scans a single row in tagColumns order.
func scanTagFromRows(rows pgx.Rows) (domain.Tag, error) {
	var t domain.Tag

	err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt)
	if err != nil {
		return domain.Tag{}, err
	}

	return t, nil
}
