package collections

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// Find returns one page of the caller's collections with item/child
// counts and parent names populated.
func (s *Service) Find(ctx context.Context, filter domain.CollectionFilter) (*CollectionPage, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if filter.ParentID != nil {
		if _, err := s.getOwned(ctx, userID, *filter.ParentID); err != nil {
			return nil, err
		}
	}

	collections, total, err := s.collections.Find(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("find collections: %w", err)
	}

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	return &CollectionPage{
		Collections: collections,
		Meta:        domain.NewPageMeta(total, page, limit),
	}, nil
}

// Get returns a single owned collection with its counts populated.
func (s *Service) Get(ctx context.Context, collectionID uuid.UUID) (*domain.Collection, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	return s.getOwned(ctx, userID, collectionID)
}

// Children returns one page of a collection's direct children sorted by
// name. Same shape as Find restricted to one parent.
func (s *Service) Children(ctx context.Context, collectionID uuid.UUID, page, limit int) (*CollectionPage, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if _, err := s.getOwned(ctx, userID, collectionID); err != nil {
		return nil, err
	}

	children, total, err := s.collections.Find(ctx, userID, domain.CollectionFilter{
		ParentID:  &collectionID,
		SortBy:    "name",
		SortOrder: "ASC",
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	return &CollectionPage{
		Collections: children,
		Meta:        domain.NewPageMeta(total, page, limit),
	}, nil
}

// Breadcrumb returns the collection's ancestor chain ordered root first,
// ending with the collection itself.
func (s *Service) Breadcrumb(ctx context.Context, collectionID uuid.UUID) ([]domain.BreadcrumbEntry, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	c, err := s.getOwned(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}

	chain := []domain.BreadcrumbEntry{{ID: c.ID, Name: c.Name}}

	visited := map[uuid.UUID]struct{}{c.ID: {}}
	for c.ParentID != nil {
		parent, err := s.collections.GetByID(ctx, *c.ParentID)
		if err != nil {
			return nil, fmt.Errorf("walk breadcrumb: %w", err)
		}
		if _, seen := visited[parent.ID]; seen {
			return nil, fmt.Errorf("collection %s: parent chain contains a cycle", collectionID)
		}
		visited[parent.ID] = struct{}{}

		chain = append([]domain.BreadcrumbEntry{{ID: parent.ID, Name: parent.Name}}, chain...)
		c = parent
	}

	return chain, nil
}
