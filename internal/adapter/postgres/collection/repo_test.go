package collection_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/collection"
	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

func newRepo(t *testing.T) (*collection.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return collection.New(pool), pool
}

func assertIsDomainError(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error wrapping %v, got nil", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected error wrapping %v, got: %v", want, err)
	}
}

func ptrString(s string) *string { return &s }

func TestRepo_GetByID_PopulatesListingExtras(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	parent := testhelper.SeedCollection(t, pool, userID, nil)
	child := testhelper.SeedCollection(t, pool, userID, &parent.ID)
	testhelper.SeedCollection(t, pool, userID, &child.ID)

	item := testhelper.SeedItem(t, pool, userID)
	testhelper.AddToCollection(t, pool, child.ID, item.ID)

	got, err := repo.GetByID(ctx, child.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ItemCount != 1 {
		t.Errorf("ItemCount mismatch: got %d, want 1", got.ItemCount)
	}
	if got.ChildCount != 1 {
		t.Errorf("ChildCount mismatch: got %d, want 1", got.ChildCount)
	}
	if got.ParentName == nil || *got.ParentName != parent.Name {
		t.Errorf("ParentName mismatch: got %v, want %q", got.ParentName, parent.Name)
	}
}

func TestRepo_GetByID_RootHasNilParentName(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	root := testhelper.SeedCollection(t, pool, userID, nil)

	got, err := repo.GetByID(ctx, root.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ParentName != nil {
		t.Errorf("expected nil ParentName for a root collection, got %q", *got.ParentName)
	}
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_Find_RootOnly(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	root := testhelper.SeedCollection(t, pool, userID, nil)
	testhelper.SeedCollection(t, pool, userID, &root.ID)

	got, total, err := repo.Find(ctx, userID, domain.CollectionFilter{RootOnly: true})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if total != 1 {
		t.Errorf("total mismatch: got %d, want 1", total)
	}
	if len(got) != 1 || got[0].ID != root.ID {
		t.Fatalf("expected only the root collection, got %d", len(got))
	}
}

func TestRepo_Find_ByParent(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	parent := testhelper.SeedCollection(t, pool, userID, nil)
	child := testhelper.SeedCollection(t, pool, userID, &parent.ID)
	testhelper.SeedCollection(t, pool, userID, nil)

	got, _, err := repo.Find(ctx, userID, domain.CollectionFilter{ParentID: &parent.ID})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if len(got) != 1 || got[0].ID != child.ID {
		t.Fatalf("expected only the child collection, got %d", len(got))
	}
}

func TestRepo_Find_SearchMatchesDescription(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	needle := "espresso-" + uuid.New().String()[:8]
	wanted := testhelper.SeedCollection(t, pool, userID, nil, func(c *domain.Collection) {
		c.Description = ptrString("all about " + needle + " brewing")
	})
	testhelper.SeedCollection(t, pool, userID, nil)

	got, _, err := repo.Find(ctx, userID, domain.CollectionFilter{Search: &needle})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if len(got) != 1 || got[0].ID != wanted.ID {
		t.Fatalf("expected the described collection only, got %d", len(got))
	}
}

func TestRepo_Find_ChildrenSortedByName(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	parent := testhelper.SeedCollection(t, pool, userID, nil)
	b := testhelper.SeedCollection(t, pool, userID, &parent.ID, func(c *domain.Collection) {
		c.Name = "B child"
	})
	a := testhelper.SeedCollection(t, pool, userID, &parent.ID, func(c *domain.Collection) {
		c.Name = "A child"
	})

	got, _, err := repo.Find(ctx, userID, domain.CollectionFilter{
		ParentID: &parent.ID,
		SortBy:   "name",
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 children, got %d", len(got))
	}
	if got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("expected name-sorted children [A, B]")
	}
}

func TestRepo_Create_DuplicateSlug(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	slug := "reading-" + uuid.New().String()[:8]
	testhelper.SeedCollection(t, pool, userID, nil, func(c *domain.Collection) {
		c.IsPublic = true
		c.SlugPublic = &slug
	})

	now := time.Now().UTC().Truncate(time.Microsecond)
	err := repo.Create(ctx, domain.Collection{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       "Second",
		IsPublic:   true,
		SlugPublic: &slug,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	assertIsDomainError(t, err, domain.ErrAlreadyExists)
}

func TestRepo_SlugExists_HonorsExclude(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	slug := "slug-" + uuid.New().String()[:8]
	holder := testhelper.SeedCollection(t, pool, userID, nil, func(c *domain.Collection) {
		c.SlugPublic = &slug
	})

	exists, err := repo.SlugExists(ctx, userID, slug, uuid.Nil)
	if err != nil {
		t.Fatalf("SlugExists: %v", err)
	}
	if !exists {
		t.Error("expected the slug to be reported as taken")
	}

	exists, err = repo.SlugExists(ctx, userID, slug, holder.ID)
	if err != nil {
		t.Fatalf("SlugExists (excluded): %v", err)
	}
	if exists {
		t.Error("expected the holder itself to be excluded")
	}
}

func TestRepo_Update_RewritesFields(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	seeded := testhelper.SeedCollection(t, pool, userID, nil)

	seeded.Name = "Renamed"
	seeded.Description = ptrString("fresh description")
	seeded.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.Update(ctx, seeded); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name mismatch: got %q", got.Name)
	}
	if got.Description == nil || *got.Description != "fresh description" {
		t.Errorf("Description mismatch: got %v", got.Description)
	}
}

func TestRepo_Delete_CascadesToDescendantsNotItems(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	parent := testhelper.SeedCollection(t, pool, userID, nil)
	child := testhelper.SeedCollection(t, pool, userID, &parent.ID)

	item := testhelper.SeedItem(t, pool, userID)
	testhelper.AddToCollection(t, pool, child.ID, item.ID)

	if err := repo.Delete(ctx, parent.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := repo.GetByID(ctx, child.ID)
	assertIsDomainError(t, err, domain.ErrNotFound)

	var itemRows int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM items WHERE id = $1`, item.ID).Scan(&itemRows); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if itemRows != 1 {
		t.Error("expected the item to survive the collection delete")
	}
}

func TestRepo_AddItems_SkipsExistingMembers(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	coll := testhelper.SeedCollection(t, pool, userID, nil)
	existing := testhelper.SeedItem(t, pool, userID)
	fresh := testhelper.SeedItem(t, pool, userID)
	testhelper.AddToCollection(t, pool, coll.ID, existing.ID)

	added, err := repo.AddItems(ctx, coll.ID, []uuid.UUID{existing.ID, fresh.ID})
	if err != nil {
		t.Fatalf("AddItems: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 new membership, got %d", added)
	}
}

func TestRepo_RemoveItems_IgnoresNonMembers(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	coll := testhelper.SeedCollection(t, pool, userID, nil)
	member := testhelper.SeedItem(t, pool, userID)
	outsider := testhelper.SeedItem(t, pool, userID)
	testhelper.AddToCollection(t, pool, coll.ID, member.ID)

	removed, err := repo.RemoveItems(ctx, coll.ID, []uuid.UUID{member.ID, outsider.ID})
	if err != nil {
		t.Fatalf("RemoveItems: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 membership removed, got %d", removed)
	}
}

func TestRepo_MemberItemIDs_NewestFirstWithTotal(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	coll := testhelper.SeedCollection(t, pool, userID, nil)

	// added_at defaults to now(); insert with explicit timestamps to get a
	// deterministic membership order.
	first := testhelper.SeedItem(t, pool, userID)
	second := testhelper.SeedItem(t, pool, userID)
	third := testhelper.SeedItem(t, pool, userID)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, it := range []domain.Item{first, second, third} {
		_, err := pool.Exec(ctx,
			`INSERT INTO collection_items (collection_id, item_id, added_at) VALUES ($1, $2, $3)`,
			coll.ID, it.ID, base.Add(time.Duration(i)*time.Second),
		)
		if err != nil {
			t.Fatalf("insert membership: %v", err)
		}
	}

	ids, total, err := repo.MemberItemIDs(ctx, coll.ID, 1, 2)
	if err != nil {
		t.Fatalf("MemberItemIDs: %v", err)
	}

	if total != 3 {
		t.Errorf("total mismatch: got %d, want 3", total)
	}
	if len(ids) != 2 {
		t.Fatalf("page size mismatch: got %d, want 2", len(ids))
	}
	if ids[0] != third.ID || ids[1] != second.ID {
		t.Errorf("expected newest membership first [third, second]")
	}
}

func TestRepo_MemberItemIDs_ExcludesTrashed(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := testhelper.SeedUser(t, pool)
	coll := testhelper.SeedCollection(t, pool, userID, nil)

	kept := testhelper.SeedItem(t, pool, userID)
	trashed := testhelper.SeedTrashedItem(t, pool, userID, time.Now().UTC())
	testhelper.AddToCollection(t, pool, coll.ID, kept.ID)
	testhelper.AddToCollection(t, pool, coll.ID, trashed.ID)

	ids, total, err := repo.MemberItemIDs(ctx, coll.ID, 1, 50)
	if err != nil {
		t.Fatalf("MemberItemIDs: %v", err)
	}

	if total != 1 {
		t.Errorf("total mismatch: got %d, want 1", total)
	}
	if len(ids) != 1 || ids[0] != kept.ID {
		t.Fatalf("expected only the non-trashed member, got %d ids", len(ids))
	}

	got, err := repo.GetByID(ctx, coll.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ItemCount != 1 {
		t.Errorf("ItemCount mismatch: got %d, want 1", got.ItemCount)
	}
}
