package library

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// Find returns one page of the caller's non-trashed items with attachments
// and tags populated.
func (s *Service) Find(ctx context.Context, filter domain.ItemFilter) (*ItemPage, error) {
	return s.find(ctx, filter, false)
}

// FindTrashed returns one page of the caller's trashed items,
// newest trashed first by default.
func (s *Service) FindTrashed(ctx context.Context, filter domain.ItemFilter) (*ItemPage, error) {
	return s.find(ctx, filter, true)
}

func (s *Service) find(ctx context.Context, filter domain.ItemFilter, trashed bool) (*ItemPage, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	items, total, err := s.items.Find(ctx, userID, filter, trashed)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	if err := s.decorateMany(ctx, items); err != nil {
		return nil, fmt.Errorf("decorate items: %w", err)
	}

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	return &ItemPage{
		Items: items,
		Meta:  domain.NewPageMeta(total, page, limit),
	}, nil
}

// Get returns a single item, trashed or not, with attachments and tags.
func (s *Service) Get(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.decorate(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}
