package library

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// Delete removes an item immediately, bypassing the trash. Blobs are
// deleted best effort before the metadata transaction: an unreachable
// blob never blocks the delete, it only leaves a logged orphan.
func (s *Service) Delete(ctx context.Context, itemID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if err := s.purgeItem(ctx, item); err != nil {
		return err
	}

	s.log.Info("item deleted", "item_id", item.ID)

	return nil
}

// purgeItem removes one item's blobs, file rows and the item row itself.
// Junction rows cascade with the item.
func (s *Service) purgeItem(ctx context.Context, item *domain.Item) error {
	attachments, err := s.files.GetForItem(ctx, item.ID)
	if err != nil {
		return err
	}

	for _, a := range attachments {
		if err := s.blobs.Delete(ctx, a.StorageKey); err != nil {
			s.log.Warn("blob not deleted", "key", a.StorageKey, "error", err)
		}
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.files.DeleteByItemIDs(txCtx, []uuid.UUID{item.ID}); err != nil {
			return fmt.Errorf("delete file rows: %w", err)
		}
		if err := s.items.Delete(txCtx, item.UserID, item.ID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}
