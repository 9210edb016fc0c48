package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// SetPrimaryFile marks one attached file as the item's primary attachment.
// Asking for a file that is not attached yields a validation error.
func (s *Service) SetPrimaryFile(ctx context.Context, itemID, fileID uuid.UUID) (*domain.Item, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if _, err := s.files.GetAttachment(ctx, item.ID, fileID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("fileId", "file is not attached to this item")
		}
		return nil, err
	}

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.files.ClearPrimary(txCtx, item.ID); err != nil {
			return err
		}
		if err := s.files.SetPrimary(txCtx, item.ID, fileID); err != nil {
			return fmt.Errorf("set primary: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if err := s.decorate(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// ReorderFiles assigns attachment positions from the order of fileIDs.
// Ids that are not attached to the item are skipped silently, so a stale
// client list degrades to a partial reorder instead of an error.
func (s *Service) ReorderFiles(ctx context.Context, itemID uuid.UUID, fileIDs []uuid.UUID) (*domain.Item, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i, fileID := range fileIDs {
			if _, err := s.files.SetPosition(txCtx, item.ID, fileID, i); err != nil {
				return fmt.Errorf("set position: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if err := s.decorate(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}
