package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// Update applies a patch to an item: scalar fields, the tag set, and for
// FILE items attachment removals and new uploads. Attachment removals run
// before new uploads; the primary flag is repaired after both.
func (s *Service) Update(ctx context.Context, itemID uuid.UUID, input UpdateItemInput) (*ItemResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	item, err := s.getOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := input.Validate(item.Kind); err != nil {
		return nil, err
	}

	if len(input.RemoveFileIDs) > 0 {
		if err := s.removeAttachments(ctx, item, input.RemoveFileIDs); err != nil {
			return nil, err
		}
	}

	if len(input.Uploads) > 0 {
		if err := s.appendAttachments(ctx, item, input.Uploads); err != nil {
			return nil, err
		}
	}

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		applyPatch(item, input)

		if input.hasTagChange() {
			tagIDs, err := s.resolveTags(txCtx, userID, input.TagIDs, input.NewTags)
			if err != nil {
				return err
			}
			if err := s.tags.ReplaceForItem(txCtx, item.ID, tagIDs); err != nil {
				return fmt.Errorf("replace tags: %w", err)
			}
			searchText, err := s.buildTagSearchText(txCtx, userID, tagIDs)
			if err != nil {
				return err
			}
			item.TagSearchText = searchText
		}

		item.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
		if err := s.items.Update(txCtx, item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if err := s.decorate(ctx, item); err != nil {
		return nil, fmt.Errorf("load updated item: %w", err)
	}

	s.log.Info("item updated", "item_id", item.ID)

	return &ItemResult{Item: item, Message: "Item updated"}, nil
}

// applyPatch copies the present patch fields onto the item. LINK url
// changes re-derive the denormalized domain.
func applyPatch(item *domain.Item, input UpdateItemInput) {
	if input.Title != nil {
		item.Title = *input.Title
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.Category != nil {
		item.Category = input.Category
	}
	if input.Project != nil {
		item.Project = input.Project
	}
	if input.Importance != nil {
		item.Importance = *input.Importance
	}
	if input.URL != nil {
		item.URL = input.URL
		item.URLDomain = domain.DeriveURLDomain(*input.URL)
	}
	if input.Content != nil {
		item.Content = input.Content
	}
}

// removeAttachments detaches and deletes the given files. Each removal
// deletes the blob first, then clears its rows in a small transaction.
// Afterwards the survivors are renumbered into a dense 0-based sequence
// and the primary flag is repaired.
func (s *Service) removeAttachments(ctx context.Context, item *domain.Item, fileIDs []uuid.UUID) error {
	for _, fileID := range fileIDs {
		attachment, err := s.files.GetAttachment(ctx, item.ID, fileID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewValidationError("removeFileIds", "file is not attached to this item")
			}
			return err
		}
		if attachment.UserID != item.UserID {
			return domain.ErrForbidden
		}

		if err := s.blobs.Delete(ctx, attachment.StorageKey); err != nil {
			s.log.Warn("blob not deleted", "key", attachment.StorageKey, "error", err)
		}

		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.files.Detach(txCtx, item.ID, fileID); err != nil {
				return fmt.Errorf("detach file: %w", err)
			}
			if err := s.files.DeleteFile(txCtx, fileID); err != nil {
				return fmt.Errorf("delete file row: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if err := s.compactPositions(ctx, item.ID); err != nil {
		return err
	}

	return s.files.EnsurePrimary(ctx, item.ID)
}

// compactPositions renumbers an item's attachments into a dense 0-based
// sequence, closing the gaps removals leave behind.
func (s *Service) compactPositions(ctx context.Context, itemID uuid.UUID) error {
	remaining, err := s.files.GetForItem(ctx, itemID)
	if err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i, a := range remaining {
			if a.Position == i {
				continue
			}
			if _, err := s.files.SetPosition(txCtx, itemID, a.File.ID, i); err != nil {
				return fmt.Errorf("compact positions: %w", err)
			}
		}
		return nil
	})
}

// appendAttachments uploads new files and attaches them after the current
// last position. The upload fan-out and compensation mirror Create.
func (s *Service) appendAttachments(ctx context.Context, item *domain.Item, uploads []UploadInput) error {
	existing, err := s.files.GetForItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if len(existing)+len(uploads) > s.cfg.MaxUploadsPerItem {
		return domain.NewValidationError("uploads", "too many files")
	}

	maxPos, err := s.files.MaxPosition(ctx, item.ID)
	if err != nil {
		return err
	}

	files, err := s.uploadAll(ctx, item.UserID, uploads)
	if err != nil {
		return err
	}

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.files.CreateBatch(txCtx, files); err != nil {
			return fmt.Errorf("create file rows: %w", err)
		}

		attachments := make([]domain.Attachment, len(files))
		for i, f := range files {
			attachments[i] = domain.Attachment{
				File:      f,
				ItemID:    item.ID,
				Position:  maxPos + 1 + i,
				IsPrimary: len(existing) == 0 && i == 0,
			}
		}
		if err := s.files.AttachBatch(txCtx, attachments); err != nil {
			return fmt.Errorf("attach files: %w", err)
		}

		return nil
	})
	if txErr != nil {
		keys := make([]string, len(files))
		for i, f := range files {
			keys[i] = f.StorageKey
		}
		s.deleteBlobs(ctx, keys)
		return txErr
	}

	return nil
}
