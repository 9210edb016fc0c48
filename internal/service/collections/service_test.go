package collections

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockCollectionRepo struct {
	GetByIDFunc       func(ctx context.Context, collectionID uuid.UUID) (*domain.Collection, error)
	FindFunc          func(ctx context.Context, userID uuid.UUID, filter domain.CollectionFilter) ([]domain.Collection, int, error)
	CreateFunc        func(ctx context.Context, c domain.Collection) error
	UpdateFunc        func(ctx context.Context, c domain.Collection) error
	DeleteFunc        func(ctx context.Context, collectionID uuid.UUID) error
	SlugExistsFunc    func(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error)
	AddItemsFunc      func(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
	RemoveItemsFunc   func(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
	MemberItemIDsFunc func(ctx context.Context, collectionID uuid.UUID, page, limit int) ([]uuid.UUID, int, error)
}

func (m *mockCollectionRepo) GetByID(ctx context.Context, collectionID uuid.UUID) (*domain.Collection, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, collectionID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCollectionRepo) Find(ctx context.Context, userID uuid.UUID, filter domain.CollectionFilter) ([]domain.Collection, int, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, userID, filter)
	}
	return []domain.Collection{}, 0, nil
}

func (m *mockCollectionRepo) Create(ctx context.Context, c domain.Collection) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil
}

func (m *mockCollectionRepo) Update(ctx context.Context, c domain.Collection) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	return nil
}

func (m *mockCollectionRepo) Delete(ctx context.Context, collectionID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, collectionID)
	}
	return nil
}

func (m *mockCollectionRepo) SlugExists(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	if m.SlugExistsFunc != nil {
		return m.SlugExistsFunc(ctx, userID, slug, excludeID)
	}
	return false, nil
}

func (m *mockCollectionRepo) AddItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if m.AddItemsFunc != nil {
		return m.AddItemsFunc(ctx, collectionID, itemIDs)
	}
	return int64(len(itemIDs)), nil
}

func (m *mockCollectionRepo) RemoveItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	if m.RemoveItemsFunc != nil {
		return m.RemoveItemsFunc(ctx, collectionID, itemIDs)
	}
	return int64(len(itemIDs)), nil
}

func (m *mockCollectionRepo) MemberItemIDs(ctx context.Context, collectionID uuid.UUID, page, limit int) ([]uuid.UUID, int, error) {
	if m.MemberItemIDsFunc != nil {
		return m.MemberItemIDsFunc(ctx, collectionID, page, limit)
	}
	return []uuid.UUID{}, 0, nil
}

type mockItemRepo struct {
	GetByIDsFunc   func(ctx context.Context, ids []uuid.UUID) ([]domain.Item, error)
	CountOwnedFunc func(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)
}

func (m *mockItemRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Item, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return []domain.Item{}, nil
}

func (m *mockItemRepo) CountOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if m.CountOwnedFunc != nil {
		return m.CountOwnedFunc(ctx, userID, ids)
	}
	return len(ids), nil
}

type mockFileRepo struct {
	GetForItemsFunc func(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Attachment, error)
}

func (m *mockFileRepo) GetForItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Attachment, error) {
	if m.GetForItemsFunc != nil {
		return m.GetForItemsFunc(ctx, itemIDs)
	}
	return map[uuid.UUID][]domain.Attachment{}, nil
}

type mockTagRepo struct {
	GetForItemsFunc func(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Tag, error)
}

func (m *mockTagRepo) GetForItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Tag, error) {
	if m.GetForItemsFunc != nil {
		return m.GetForItemsFunc(ctx, itemIDs)
	}
	return map[uuid.UUID][]domain.Tag{}, nil
}

type mockBlobStore struct{}

func (m *mockBlobStore) PublicURL(key string) string {
	return "http://localhost:8080/files/" + key
}

// ===========================================================================
// Helpers
// ===========================================================================

type testDeps struct {
	collections *mockCollectionRepo
	items       *mockItemRepo
	files       *mockFileRepo
	tags        *mockTagRepo
}

func newTestService() (*Service, *testDeps) {
	deps := &testDeps{
		collections: &mockCollectionRepo{},
		items:       &mockItemRepo{},
		files:       &mockFileRepo{},
		tags:        &mockTagRepo{},
	}
	svc := NewService(slog.Default(), deps.collections, deps.items, deps.files, deps.tags, &mockBlobStore{})
	return svc, deps
}

func authCtx() (context.Context, uuid.UUID) {
	userID := uuid.New()
	return ctxutil.WithUserID(context.Background(), userID), userID
}

func ptrString(s string) *string      { return &s }
func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }

func ownedCollection(userID uuid.UUID, name string, parentID *uuid.UUID) *domain.Collection {
	return &domain.Collection{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		ParentID: parentID,
	}
}

// treeRepo wires GetByID over a fixed set of collections.
func treeRepo(deps *testDeps, nodes ...*domain.Collection) {
	byID := make(map[uuid.UUID]*domain.Collection, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	deps.collections.GetByIDFunc = func(_ context.Context, id uuid.UUID) (*domain.Collection, error) {
		if c, ok := byID[id]; ok {
			clone := *c
			return &clone, nil
		}
		return nil, domain.ErrNotFound
	}
}

// ===========================================================================
// 1. Create
// ===========================================================================

func TestService_Create_NoAuth(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateCollectionInput{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_Create_GeneratesSlugForPublic(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := authCtx()

	var created domain.Collection
	deps.collections.CreateFunc = func(_ context.Context, c domain.Collection) error {
		created = c
		return nil
	}
	deps.collections.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Collection, error) {
		return &created, nil
	}

	_, err := svc.Create(ctx, CreateCollectionInput{Name: "My Reading List!", IsPublic: true})
	require.NoError(t, err)

	require.NotNil(t, created.SlugPublic)
	assert.Equal(t, "my-reading-list", *created.SlugPublic)
}

func TestService_Create_SlugCollisionGetsSuffix(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := authCtx()

	taken := map[string]bool{"recipes": true, "recipes-2": true}
	deps.collections.SlugExistsFunc = func(_ context.Context, _ uuid.UUID, slug string, _ uuid.UUID) (bool, error) {
		return taken[slug], nil
	}

	var created domain.Collection
	deps.collections.CreateFunc = func(_ context.Context, c domain.Collection) error {
		created = c
		return nil
	}
	deps.collections.GetByIDFunc = func(_ context.Context, _ uuid.UUID) (*domain.Collection, error) {
		return &created, nil
	}

	_, err := svc.Create(ctx, CreateCollectionInput{Name: "Recipes", IsPublic: true})
	require.NoError(t, err)

	require.NotNil(t, created.SlugPublic)
	assert.Equal(t, "recipes-3", *created.SlugPublic)
}

func TestService_Create_ExplicitSlugTaken(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := authCtx()

	deps.collections.SlugExistsFunc = func(_ context.Context, _ uuid.UUID, _ string, _ uuid.UUID) (bool, error) {
		return true, nil
	}

	_, err := svc.Create(ctx, CreateCollectionInput{Name: "Recipes", SlugPublic: ptrString("recipes")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Create_ForeignParent(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := authCtx()

	foreign := ownedCollection(uuid.New(), "theirs", nil)
	treeRepo(deps, foreign)

	_, err := svc.Create(ctx, CreateCollectionInput{Name: "mine", ParentID: ptrUUID(foreign.ID)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ===========================================================================
// 2. Move
// ===========================================================================

func TestService_Move_IntoItself(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	root := ownedCollection(userID, "root", nil)
	treeRepo(deps, root)

	_, err := svc.Move(ctx, root.ID, ptrUUID(root.ID))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Move_IntoOwnDescendant(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	root := ownedCollection(userID, "root", nil)
	child := ownedCollection(userID, "child", ptrUUID(root.ID))
	grandchild := ownedCollection(userID, "grandchild", ptrUUID(child.ID))
	treeRepo(deps, root, child, grandchild)

	_, err := svc.Move(ctx, root.ID, ptrUUID(grandchild.ID))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "cannot move a collection into its own descendant")
}

func TestService_Move_ToRoot(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	root := ownedCollection(userID, "root", nil)
	child := ownedCollection(userID, "child", ptrUUID(root.ID))
	treeRepo(deps, root, child)

	var updated domain.Collection
	deps.collections.UpdateFunc = func(_ context.Context, c domain.Collection) error {
		updated = c
		return nil
	}

	_, err := svc.Move(ctx, child.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
}

func TestService_Move_ToSibling(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	root := ownedCollection(userID, "root", nil)
	a := ownedCollection(userID, "a", ptrUUID(root.ID))
	b := ownedCollection(userID, "b", ptrUUID(root.ID))
	treeRepo(deps, root, a, b)

	var updated domain.Collection
	deps.collections.UpdateFunc = func(_ context.Context, c domain.Collection) error {
		updated = c
		return nil
	}

	_, err := svc.Move(ctx, a.ID, ptrUUID(b.ID))
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, b.ID, *updated.ParentID)
}

// ===========================================================================
// 3. Breadcrumb
// ===========================================================================

func TestService_Breadcrumb_RootToTarget(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	root := ownedCollection(userID, "root", nil)
	child := ownedCollection(userID, "child", ptrUUID(root.ID))
	grandchild := ownedCollection(userID, "grandchild", ptrUUID(child.ID))
	treeRepo(deps, root, child, grandchild)

	chain, err := svc.Breadcrumb(ctx, grandchild.ID)
	require.NoError(t, err)

	require.Len(t, chain, 3)
	assert.Equal(t, root.ID, chain[0].ID)
	assert.Equal(t, child.ID, chain[1].ID)
	assert.Equal(t, grandchild.ID, chain[2].ID)
}

func TestService_Breadcrumb_SingleRoot(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	root := ownedCollection(userID, "root", nil)
	treeRepo(deps, root)

	chain, err := svc.Breadcrumb(ctx, root.ID)
	require.NoError(t, err)

	require.Len(t, chain, 1)
	assert.Equal(t, root.Name, chain[0].Name)
}

// ===========================================================================
// 4. Membership
// ===========================================================================

func TestService_AddItems_AllOrNothing(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	c := ownedCollection(userID, "inbox", nil)
	treeRepo(deps, c)

	deps.items.CountOwnedFunc = func(_ context.Context, _ uuid.UUID, ids []uuid.UUID) (int, error) {
		return len(ids) - 1, nil // one id is foreign or missing
	}

	added := false
	deps.collections.AddItemsFunc = func(_ context.Context, _ uuid.UUID, _ []uuid.UUID) (int64, error) {
		added = true
		return 0, nil
	}

	_, err := svc.AddItems(ctx, c.ID, []uuid.UUID{uuid.New(), uuid.New()})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, added, "nothing may be applied when any id fails the ownership check")
}

func TestService_AddItems_SkipsExistingMembers(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	c := ownedCollection(userID, "inbox", nil)
	treeRepo(deps, c)

	deps.collections.AddItemsFunc = func(_ context.Context, _ uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
		return int64(len(itemIDs)) - 1, nil // one was already a member
	}

	added, err := svc.AddItems(ctx, c.ID, []uuid.UUID{uuid.New(), uuid.New()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, added)
}

func TestService_RemoveItems_AbsentMembershipsIgnored(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	c := ownedCollection(userID, "inbox", nil)
	treeRepo(deps, c)

	deps.collections.RemoveItemsFunc = func(_ context.Context, _ uuid.UUID, _ []uuid.UUID) (int64, error) {
		return 0, nil
	}

	removed, err := svc.RemoveItems(ctx, c.ID, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestService_Items_MembershipOrderPreserved(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	c := ownedCollection(userID, "inbox", nil)
	treeRepo(deps, c)

	newest, older := uuid.New(), uuid.New()
	deps.collections.MemberItemIDsFunc = func(_ context.Context, _ uuid.UUID, _, _ int) ([]uuid.UUID, int, error) {
		return []uuid.UUID{newest, older}, 2, nil
	}
	deps.items.GetByIDsFunc = func(_ context.Context, _ []uuid.UUID) ([]domain.Item, error) {
		// Deliberately reversed relative to membership order.
		return []domain.Item{
			{ID: older, UserID: userID, Title: "older"},
			{ID: newest, UserID: userID, Title: "newest"},
		}, nil
	}

	page, err := svc.Items(ctx, c.ID, 1, 20)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, newest, page.Items[0].ID)
	assert.Equal(t, older, page.Items[1].ID)
	assert.Equal(t, 2, page.Meta.Total)
}

// ===========================================================================
// 5. Update / Delete / Find
// ===========================================================================

func TestService_Update_ParentSetDelegatesToMove(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	root := ownedCollection(userID, "root", nil)
	child := ownedCollection(userID, "child", ptrUUID(root.ID))
	treeRepo(deps, root, child)

	var parents []*uuid.UUID
	deps.collections.UpdateFunc = func(_ context.Context, c domain.Collection) error {
		parents = append(parents, c.ParentID)
		return nil
	}

	_, err := svc.Update(ctx, child.ID, UpdateCollectionInput{
		Name:      ptrString("renamed"),
		ParentSet: true,
		ParentID:  nil,
	})
	require.NoError(t, err)

	require.NotEmpty(t, parents)
	assert.Nil(t, parents[0], "explicit null parent moves the collection to the root")
}

func TestService_Update_DescendantParentRejected(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	root := ownedCollection(userID, "root", nil)
	child := ownedCollection(userID, "child", ptrUUID(root.ID))
	treeRepo(deps, root, child)

	_, err := svc.Update(ctx, root.ID, UpdateCollectionInput{
		ParentSet: true,
		ParentID:  ptrUUID(child.ID),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Delete_Foreign(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := authCtx()

	foreign := ownedCollection(uuid.New(), "theirs", nil)
	treeRepo(deps, foreign)

	err := svc.Delete(ctx, foreign.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_Find_PageMeta(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	deps.collections.FindFunc = func(_ context.Context, _ uuid.UUID, _ domain.CollectionFilter) ([]domain.Collection, int, error) {
		return []domain.Collection{*ownedCollection(userID, "a", nil)}, 41, nil
	}

	page, err := svc.Find(ctx, domain.CollectionFilter{Page: 2, Limit: 20})
	require.NoError(t, err)

	assert.Equal(t, 41, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.Page)
	assert.Equal(t, 3, page.Meta.TotalPages)
}

func TestService_Children_ForeignParent(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, _ := authCtx()

	foreign := ownedCollection(uuid.New(), "theirs", nil)
	treeRepo(deps, foreign)

	_, err := svc.Children(ctx, foreign.ID, 1, 50)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_Children_FiltersByParentSortedByName(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	ctx, userID := authCtx()

	parent := ownedCollection(userID, "parent", nil)
	treeRepo(deps, parent)

	var gotFilter domain.CollectionFilter
	deps.collections.FindFunc = func(_ context.Context, _ uuid.UUID, f domain.CollectionFilter) ([]domain.Collection, int, error) {
		gotFilter = f
		return []domain.Collection{*ownedCollection(userID, "child", &parent.ID)}, 1, nil
	}

	page, err := svc.Children(ctx, parent.ID, 1, 10)
	require.NoError(t, err)

	require.NotNil(t, gotFilter.ParentID)
	assert.Equal(t, parent.ID, *gotFilter.ParentID)
	assert.Equal(t, "name", gotFilter.SortBy)
	assert.Equal(t, "ASC", gotFilter.SortOrder)
	assert.Len(t, page.Collections, 1)
	assert.Equal(t, 1, page.Meta.Total)
}
