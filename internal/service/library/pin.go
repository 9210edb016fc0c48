package library

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// TogglePin flips an item's pinned flag and returns the updated item.
func (s *Service) TogglePin(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.items.SetPinned(ctx, userID, item.ID, !item.Pinned); err != nil {
		return nil, fmt.Errorf("toggle pin: %w", err)
	}
	item.Pinned = !item.Pinned

	if err := s.decorate(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}
