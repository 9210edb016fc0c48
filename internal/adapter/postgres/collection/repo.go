// Package collection implements the Collection repository using PostgreSQL,
// including the collection_items membership table. Collections form a tree
// through parent_id; membership is many-to-many and never owns the item.
package collection

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// Repo provides collection persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new collection repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// collectionColumns lists the columns every read returns, including the
// denormalized listing extras. Keep scanCollectionFromRows in sync.
const collectionColumns = `c.id, c.user_id, c.name, c.description, c.cover_image,
       c.is_public, c.slug_public, c.parent_id, c.created_at, c.updated_at,
       (SELECT COUNT(*)
        FROM collection_items ci
        JOIN items i ON ci.item_id = i.id
        WHERE ci.collection_id = c.id AND NOT i.trashed) AS item_count,
       (SELECT COUNT(*) FROM collections ch WHERE ch.parent_id = c.id) AS child_count,
       p.name AS parent_name`

const getByIDSQL = `
SELECT ` + collectionColumns + `
FROM collections c
LEFT JOIN collections p ON c.parent_id = p.id
WHERE c.id = $1`

const insertSQL = `
INSERT INTO collections (id, user_id, name, description, cover_image,
                         is_public, slug_public, parent_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const updateSQL = `
UPDATE collections
SET name        = $2,
    description = $3,
    cover_image = $4,
    is_public   = $5,
    slug_public = $6,
    parent_id   = $7,
    updated_at  = $8
WHERE id = $1`

const deleteSQL = `DELETE FROM collections WHERE id = $1`

const slugExistsSQL = `
SELECT EXISTS (
    SELECT 1 FROM collections
    WHERE user_id = $1 AND slug_public = $2 AND id <> $3
)`

const addItemsSQL = `
INSERT INTO collection_items (collection_id, item_id)
SELECT $1, unnest($2::uuid[])
ON CONFLICT (collection_id, item_id) DO NOTHING`

const removeItemsSQL = `
DELETE FROM collection_items
WHERE collection_id = $1 AND item_id = ANY($2::uuid[])`

// Trashed items stay members but disappear from listings until restored.
const memberItemIDsSQL = `
SELECT ci.item_id
FROM collection_items ci
JOIN items i ON ci.item_id = i.id
WHERE ci.collection_id = $1 AND NOT i.trashed
ORDER BY ci.added_at DESC, ci.item_id ASC
LIMIT $2 OFFSET $3`

const countMembersSQL = `
SELECT COUNT(*)
FROM collection_items ci
JOIN items i ON ci.item_id = i.id
WHERE ci.collection_id = $1 AND NOT i.trashed`

// GetByID returns a collection with its listing extras populated.
// No owner filter: the service layer distinguishes not-found from forbidden.
func (r *Repo) GetByID(ctx context.Context, collectionID uuid.UUID) (*domain.Collection, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByIDSQL, collectionID)
	if err != nil {
		return nil, postgres.MapError(err, "collection", collectionID)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, postgres.MapError(err, "collection", collectionID)
		}
		return nil, fmt.Errorf("collection %s: %w", collectionID, domain.ErrNotFound)
	}

	c, err := scanCollectionFromRows(rows)
	if err != nil {
		return nil, postgres.MapError(err, "collection", collectionID)
	}

	return &c, nil
}

// Find returns a page of a user's collections matching the filter plus the
// total match count.
func (r *Repo) Find(ctx context.Context, userID uuid.UUID, f domain.CollectionFilter) ([]domain.Collection, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	where := sq.And{sq.Eq{"c.user_id": userID}}
	if f.Search != nil && *f.Search != "" {
		pattern := "%" + *f.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"c.name": pattern},
			sq.ILike{"c.description": pattern},
		})
	}
	if f.IsPublic != nil {
		where = append(where, sq.Eq{"c.is_public": *f.IsPublic})
	}
	if f.ParentID != nil {
		where = append(where, sq.Eq{"c.parent_id": *f.ParentID})
	} else if f.RootOnly {
		where = append(where, sq.Eq{"c.parent_id": nil})
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countSQL, countArgs, err := builder.
		Select("COUNT(*)").
		From("collections c").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build collection count query: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	sortBy, sortOrder := normalizeSort(f.SortBy, f.SortOrder)
	_, limit, offset := normalizePage(f.Page, f.Limit)

	listSQL, listArgs, err := builder.
		Select(collectionColumns).
		From("collections c").
		LeftJoin("collections p ON c.parent_id = p.id").
		Where(where).
		OrderBy(fmt.Sprintf("c.%s %s", sortBy, sortOrder), "c.id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build collection list query: %w", err)
	}

	rows, err := querier.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	collections, err := scanCollections(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}

	return collections, total, nil
}

// Create inserts a new collection.
// Returns domain.ErrAlreadyExists on a (user_id, slug_public) collision and
// domain.ErrNotFound when the parent does not exist.
func (r *Repo) Create(ctx context.Context, c domain.Collection) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, insertSQL,
		c.ID, c.UserID, c.Name, c.Description, c.CoverImage,
		c.IsPublic, c.SlugPublic, c.ParentID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return postgres.MapError(err, "collection", c.ID)
	}

	return nil
}

// Update rewrites a collection's mutable fields.
// Returns domain.ErrNotFound when the row does not exist.
func (r *Repo) Update(ctx context.Context, c domain.Collection) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, updateSQL,
		c.ID, c.Name, c.Description, c.CoverImage,
		c.IsPublic, c.SlugPublic, c.ParentID, c.UpdatedAt)
	if err != nil {
		return postgres.MapError(err, "collection", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", c.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a collection. Descendants and membership rows cascade;
// items survive.
func (r *Repo) Delete(ctx context.Context, collectionID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, collectionID)
	if err != nil {
		return postgres.MapError(err, "collection", collectionID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", collectionID, domain.ErrNotFound)
	}

	return nil
}

// SlugExists reports whether another collection of the user already holds
// the slug. excludeID skips the collection being updated.
func (r *Repo) SlugExists(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := querier.QueryRow(ctx, slugExistsSQL, userID, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}

	return exists, nil
}

// AddItems links items to a collection, skipping already-present members.
// Returns the number of links actually created.
func (r *Repo) AddItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, addItemsSQL, collectionID, itemIDs)
	if err != nil {
		return 0, postgres.MapError(err, "collection", collectionID)
	}

	return tag.RowsAffected(), nil
}

// RemoveItems unlinks items from a collection. Non-members are ignored.
// Returns the number of links removed.
func (r *Repo) RemoveItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, removeItemsSQL, collectionID, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("remove collection items: %w", err)
	}

	return tag.RowsAffected(), nil
}

// MemberItemIDs returns one page of a collection's member item ids ordered
// newest membership first, plus the total member count.
func (r *Repo) MemberItemIDs(ctx context.Context, collectionID uuid.UUID, page, limit int) ([]uuid.UUID, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := querier.QueryRow(ctx, countMembersSQL, collectionID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collection items: %w", err)
	}

	_, limit, offset := normalizePage(page, limit)

	rows, err := querier.Query(ctx, memberItemIDsSQL, collectionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list collection items: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, 0, fmt.Errorf("list collection items: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list collection items: %w", err)
	}

	return ids, total, nil
}

// scanCollections scans multiple rows into a domain.Collection slice.
func scanCollections(rows pgx.Rows) ([]domain.Collection, error) {
	var collections []domain.Collection
	for rows.Next() {
		c, err := scanCollectionFromRows(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if collections == nil {
		collections = []domain.Collection{}
	}

	return collections, nil
}

// scanCollectionFromRows scans a single row in collectionColumns order.
func scanCollectionFromRows(rows pgx.Rows) (domain.Collection, error) {
	var c domain.Collection

	err := rows.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.CoverImage,
		&c.IsPublic, &c.SlugPublic, &c.ParentID, &c.CreatedAt, &c.UpdatedAt,
		&c.ItemCount, &c.ChildCount, &c.ParentName,
	)
	if err != nil {
		return domain.Collection{}, err
	}

	return c, nil
}
