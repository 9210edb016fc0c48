package library

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// MoveToTrash soft-deletes an item. The item disappears from normal
// listings but keeps its rows and blobs until retention expires.
func (s *Service) MoveToTrash(ctx context.Context, itemID uuid.UUID) (*ItemResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Trashed {
		return nil, domain.NewValidationError("item", "already in trash")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if err := s.items.SetTrashed(ctx, userID, item.ID, true, &now); err != nil {
		return nil, fmt.Errorf("move to trash: %w", err)
	}
	item.Trashed = true
	item.TrashedAt = &now

	if err := s.decorate(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info("item trashed", "item_id", item.ID)

	return &ItemResult{Item: item, Message: "Item moved to trash"}, nil
}

// RestoreFromTrash brings a trashed item back into normal listings.
func (s *Service) RestoreFromTrash(ctx context.Context, itemID uuid.UUID) (*ItemResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Trashed {
		return nil, domain.NewValidationError("item", "not in trash")
	}

	if err := s.items.SetTrashed(ctx, userID, item.ID, false, nil); err != nil {
		return nil, fmt.Errorf("restore from trash: %w", err)
	}
	item.Trashed = false
	item.TrashedAt = nil

	if err := s.decorate(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info("item restored", "item_id", item.ID)

	return &ItemResult{Item: item, Message: "Item restored"}, nil
}

// PermanentlyDelete removes a trashed item for good. Items outside the
// trash must go through MoveToTrash or Delete instead.
func (s *Service) PermanentlyDelete(ctx context.Context, itemID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if !item.Trashed {
		return domain.NewValidationError("item", "not in trash")
	}

	if err := s.purgeItem(ctx, item); err != nil {
		return err
	}

	s.log.Info("item permanently deleted", "item_id", item.ID)

	return nil
}

// EmptyTrash permanently deletes everything in the caller's trash.
// An empty trash is a no-op, not an error.
func (s *Service) EmptyTrash(ctx context.Context) (*EmptyTrashResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	trashed, err := s.items.TrashedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list trashed items: %w", err)
	}
	if len(trashed) == 0 {
		return &EmptyTrashResult{Count: 0, Message: "Trash is already empty"}, nil
	}

	count, err := s.purgeMany(ctx, trashed)
	if err != nil {
		return nil, err
	}

	s.log.Info("trash emptied", "user_id", userID, "count", count)

	return &EmptyTrashResult{
		Count:   count,
		Message: fmt.Sprintf("Deleted %d items", count),
	}, nil
}

// purgeMany bulk-deletes a set of items: blobs best effort first, then
// file rows and item rows in a single transaction.
func (s *Service) purgeMany(ctx context.Context, items []domain.Item) (int64, error) {
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	attachmentsByItem, err := s.files.GetForItems(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("list attachments: %w", err)
	}
	for _, attachments := range attachmentsByItem {
		s.deleteBlobs(ctx, attachmentKeys(attachments))
	}

	var count int64
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.files.DeleteByItemIDs(txCtx, ids); err != nil {
			return fmt.Errorf("delete file rows: %w", err)
		}
		count, err = s.items.DeleteMany(txCtx, ids)
		if err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}

	return count, nil
}
