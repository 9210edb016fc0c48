package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SeedUser creates a user row and returns its id. Users carry no domain
// behavior here; they only anchor ownership.
func SeedUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	suffix := uniqueSuffix()
	id := uuid.New()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`,
		id, "testuser-"+suffix+"@example.com", "Test User "+suffix,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser: %v", err)
	}

	return id
}

// SeedItem creates a NOTE item with sensible defaults, applying the given
// mutations before insert.
func SeedItem(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, mutate ...func(*domain.Item)) domain.Item {
	t.Helper()

	ts := now()
	content := "seeded note content"
	item := domain.Item{
		ID:         uuid.New(),
		UserID:     userID,
		Kind:       domain.ItemKindNote,
		Title:      "Seeded Item " + uniqueSuffix(),
		Importance: domain.DefaultImportance,
		Content:    &content,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	for _, m := range mutate {
		m(&item)
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO items (id, user_id, kind, title, description, category, project, importance,
		                    pinned, trashed, trashed_at, tag_search_text, url, url_domain, content,
		                    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		item.ID, item.UserID, string(item.Kind), item.Title, item.Description, item.Category,
		item.Project, string(item.Importance), item.Pinned, item.Trashed, item.TrashedAt,
		item.TagSearchText, item.URL, item.URLDomain, item.Content, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedItem: %v", err)
	}

	return item
}

// SeedTrashedItem creates an item already in the trash with the given
// trashed_at timestamp.
func SeedTrashedItem(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, trashedAt time.Time) domain.Item {
	t.Helper()

	return SeedItem(t, pool, userID, func(it *domain.Item) {
		it.Trashed = true
		at := trashedAt.UTC().Truncate(time.Microsecond)
		it.TrashedAt = &at
	})
}

// SeedFile creates a file row for the user.
func SeedFile(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) domain.File {
	t.Helper()

	suffix := uniqueSuffix()
	f := domain.File{
		ID:           uuid.New(),
		UserID:       userID,
		StorageKey:   "items/seed-" + suffix + ".pdf",
		OriginalName: "seed-" + suffix + ".pdf",
		MimeType:     "application/pdf",
		SizeBytes:    1024,
		CreatedAt:    now(),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO files (id, user_id, storage_key, original_name, mime_type, size_bytes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.UserID, f.StorageKey, f.OriginalName, f.MimeType, f.SizeBytes, f.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedFile: %v", err)
	}

	return f
}

// SeedAttachment creates a file and links it to the item at the given
// position.
func SeedAttachment(t *testing.T, pool *pgxpool.Pool, item domain.Item, position int, isPrimary bool) domain.Attachment {
	t.Helper()

	f := SeedFile(t, pool, item.UserID)

	_, err := pool.Exec(context.Background(),
		`INSERT INTO item_files (item_id, file_id, position, is_primary)
		 VALUES ($1, $2, $3, $4)`,
		item.ID, f.ID, position, isPrimary,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAttachment: %v", err)
	}

	return domain.Attachment{File: f, ItemID: item.ID, Position: position, IsPrimary: isPrimary}
}

// SeedTag creates a tag for the user.
func SeedTag(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, name string) domain.Tag {
	t.Helper()

	tag := domain.Tag{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Color:     domain.DefaultTagColor,
		CreatedAt: now(),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO tags (id, user_id, name, color, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		tag.ID, tag.UserID, tag.Name, tag.Color, tag.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTag: %v", err)
	}

	return tag
}

// TagItem links a tag to an item.
func TagItem(t *testing.T, pool *pgxpool.Pool, itemID, tagID uuid.UUID) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO item_tags (item_id, tag_id) VALUES ($1, $2)`,
		itemID, tagID,
	)
	if err != nil {
		t.Fatalf("testhelper: TagItem: %v", err)
	}
}

// SeedCollection creates a collection, optionally nested under a parent.
func SeedCollection(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, parentID *uuid.UUID, mutate ...func(*domain.Collection)) domain.Collection {
	t.Helper()

	ts := now()
	c := domain.Collection{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "Seeded Collection " + uniqueSuffix(),
		ParentID:  parentID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	for _, m := range mutate {
		m(&c)
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO collections (id, user_id, name, description, cover_image,
		                          is_public, slug_public, parent_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.UserID, c.Name, c.Description, c.CoverImage,
		c.IsPublic, c.SlugPublic, c.ParentID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCollection: %v", err)
	}

	return c
}

// AddToCollection links an item into a collection.
func AddToCollection(t *testing.T, pool *pgxpool.Pool, collectionID, itemID uuid.UUID) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO collection_items (collection_id, item_id) VALUES ($1, $2)`,
		collectionID, itemID,
	)
	if err != nil {
		t.Fatalf("testhelper: AddToCollection: %v", err)
	}
}
