// Package item implements the Item repository using PostgreSQL.
// Fixed-shape queries use raw SQL; the dynamic listing query is built
// with squirrel.
package item

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// Repo provides item persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new item repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const itemColumns = `id, user_id, kind, title, description, category, project, importance,
       pinned, trashed, trashed_at, tag_search_text, url, url_domain, content,
       created_at, updated_at`

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const getByIDSQL = `
SELECT ` + itemColumns + `
FROM items
WHERE id = $1`

const insertSQL = `
INSERT INTO items (id, user_id, kind, title, description, category, project, importance,
                   pinned, trashed, trashed_at, tag_search_text, url, url_domain, content,
                   created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const updateSQL = `
UPDATE items
SET title = $3, description = $4, category = $5, project = $6, importance = $7,
    tag_search_text = $8, url = $9, url_domain = $10, content = $11, updated_at = $12
WHERE id = $1 AND user_id = $2`

const setPinnedSQL = `
UPDATE items SET pinned = $3, updated_at = $4
WHERE id = $1 AND user_id = $2`

const setTrashedSQL = `
UPDATE items SET trashed = $3, trashed_at = $4, updated_at = $5
WHERE id = $1 AND user_id = $2`

const deleteSQL = `DELETE FROM items WHERE id = $1 AND user_id = $2`

const deleteManySQL = `DELETE FROM items WHERE id = ANY($1::uuid[])`

const trashedByUserSQL = `
SELECT ` + itemColumns + `
FROM items
WHERE user_id = $1 AND trashed
ORDER BY trashed_at DESC`

const trashedBeforeSQL = `
SELECT ` + itemColumns + `
FROM items
WHERE trashed AND trashed_at <= $1
ORDER BY trashed_at ASC`

const countOwnedSQL = `
SELECT count(*) FROM items WHERE user_id = $1 AND id = ANY($2::uuid[])`

const getByIDsSQL = `
SELECT ` + itemColumns + `
FROM items
WHERE id = ANY($1::uuid[])`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an item by primary key, trashed or not, without an owner
// filter: the service layer distinguishes "absent" from "foreign".
func (r *Repo) GetByID(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByIDSQL, itemID)
	if err != nil {
		return nil, postgres.MapError(err, "item", itemID)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, postgres.MapError(err, "item", itemID)
		}
		return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}

	it, err := scanItemFromRows(rows)
	if err != nil {
		return nil, postgres.MapError(err, "item", itemID)
	}

	return &it, nil
}

// GetByIDs returns the items among the given ids in unspecified order.
// Missing ids are silently absent from the result.
func (r *Repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Item, error) {
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}
	return r.queryItems(ctx, getByIDsSQL, ids)
}

// Find returns one page of a user's items plus the total match count.
// trashed selects between the normal listing and the trash listing.
func (r *Repo) Find(ctx context.Context, userID uuid.UUID, f domain.ItemFilter, trashed bool) ([]domain.Item, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sortBy, sortOrder := normalizeSort(f.SortBy, f.SortOrder, trashed)
	_, limit, offset := normalizePage(f.Page, f.Limit)

	base := sq.Select().
		From("items").
		Where(sq.Eq{"user_id": userID, "trashed": trashed}).
		PlaceholderFormat(sq.Dollar)

	if f.Search != nil && *f.Search != "" {
		pattern := "%" + *f.Search + "%"
		base = base.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
			sq.ILike{"tag_search_text": pattern},
		})
	}
	if f.Kind != nil {
		base = base.Where(sq.Eq{"kind": string(*f.Kind)})
	}
	if f.Category != nil {
		base = base.Where(sq.Eq{"category": *f.Category})
	}
	if f.Project != nil {
		base = base.Where(sq.Eq{"project": *f.Project})
	}
	if f.Importance != nil {
		base = base.Where(sq.Eq{"importance": string(*f.Importance)})
	}
	if f.Pinned != nil {
		base = base.Where(sq.Eq{"pinned": *f.Pinned})
	}
	if f.TagID != nil {
		base = base.Where("EXISTS (SELECT 1 FROM item_tags it WHERE it.item_id = items.id AND it.tag_id = ?)", *f.TagID)
	}

	countSQL, countArgs, err := base.Columns("count(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	listSQL, listArgs, err := base.
		Columns(itemColumns).
		OrderBy(fmt.Sprintf("%s %s NULLS LAST", sortBy, sortOrder), "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := querier.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan items: %w", err)
	}

	return items, total, nil
}

// TrashedByUser returns all of a user's trashed items, newest first.
func (r *Repo) TrashedByUser(ctx context.Context, userID uuid.UUID) ([]domain.Item, error) {
	return r.queryItems(ctx, trashedByUserSQL, userID)
}

// TrashedBefore returns trashed items across ALL owners whose trashed_at is
// at or before the cutoff. Used by the retention sweep.
func (r *Repo) TrashedBefore(ctx context.Context, cutoff time.Time) ([]domain.Item, error) {
	return r.queryItems(ctx, trashedBeforeSQL, cutoff)
}

// CountOwned returns how many of the given ids exist and belong to the user.
func (r *Repo) CountOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, countOwnedSQL, userID, ids).Scan(&count); err != nil {
		return 0, fmt.Errorf("count owned items: %w", err)
	}

	return count, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new item row.
func (r *Repo) Create(ctx context.Context, it *domain.Item) (*domain.Item, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, insertSQL,
		it.ID, it.UserID, string(it.Kind), it.Title, it.Description, it.Category,
		it.Project, string(it.Importance), it.Pinned, it.Trashed, it.TrashedAt,
		it.TagSearchText, it.URL, it.URLDomain, it.Content, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "item", it.ID)
	}

	return it, nil
}

// Update persists the mutable scalar fields of an item.
// Returns domain.ErrNotFound if the item does not exist or belongs to another user.
func (r *Repo) Update(ctx context.Context, it *domain.Item) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, updateSQL,
		it.ID, it.UserID, it.Title, it.Description, it.Category, it.Project,
		string(it.Importance), it.TagSearchText, it.URL, it.URLDomain, it.Content,
		it.UpdatedAt,
	)
	if err != nil {
		return postgres.MapError(err, "item", it.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", it.ID, domain.ErrNotFound)
	}

	return nil
}

// SetPinned flips the pinned flag.
func (r *Repo) SetPinned(ctx context.Context, userID, itemID uuid.UUID, pinned bool) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, setPinnedSQL, itemID, userID, pinned, time.Now().UTC())
	if err != nil {
		return postgres.MapError(err, "item", itemID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}

	return nil
}

// SetTrashed moves an item into or out of the trash.
// trashedAt is nil when restoring.
func (r *Repo) SetTrashed(ctx context.Context, userID, itemID uuid.UUID, trashed bool, trashedAt *time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, setTrashedSQL, itemID, userID, trashed, trashedAt, time.Now().UTC())
	if err != nil {
		return postgres.MapError(err, "item", itemID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes an item row; item_files, item_tags and collection_items
// cascade at the database level.
func (r *Repo) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, itemID, userID)
	if err != nil {
		return postgres.MapError(err, "item", itemID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}

	return nil
}

// DeleteMany removes item rows in bulk (empty-trash and retention sweep).
func (r *Repo) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteManySQL, ids)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func (r *Repo) queryItems(ctx context.Context, sql string, args ...any) ([]domain.Item, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}

	return items, nil
}

// scanItems scans multiple rows into a domain.Item slice.
func scanItems(rows pgx.Rows) ([]domain.Item, error) {
	var items []domain.Item
	for rows.Next() {
		it, err := scanItemFromRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []domain.Item{}
	}

	return items, nil
}

// scanItemFromRows scans a single row in itemColumns order into a domain.Item.
func scanItemFromRows(rows pgx.Rows) (domain.Item, error) {
	var (
		it         domain.Item
		kind       string
		importance string
	)

	err := rows.Scan(
		&it.ID, &it.UserID, &kind, &it.Title, &it.Description, &it.Category,
		&it.Project, &importance, &it.Pinned, &it.Trashed, &it.TrashedAt,
		&it.TagSearchText, &it.URL, &it.URLDomain, &it.Content,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return domain.Item{}, err
	}

	it.Kind = domain.ItemKind(kind)
	it.Importance = domain.Importance(importance)

	return it, nil
}
