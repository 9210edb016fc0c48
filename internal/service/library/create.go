package library

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// Create creates an item of any kind. For FILE items the uploads are
// written to the blob store first (in parallel), then metadata commits in
// one transaction; if the transaction fails, every uploaded blob is
// deleted again before the error is returned.
func (s *Service) Create(ctx context.Context, input CreateItemInput) (*ItemResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(s.cfg.MaxUploadsPerItem); err != nil {
		return nil, err
	}

	var files []domain.File
	if input.Kind == domain.ItemKindFile {
		var err error
		files, err = s.uploadAll(ctx, userID, input.Uploads)
		if err != nil {
			return nil, err
		}
	}

	importance := domain.DefaultImportance
	if input.Importance != nil {
		importance = *input.Importance
	}

	var created *domain.Item
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		tagIDs, err := s.resolveTags(txCtx, userID, input.TagIDs, input.NewTags)
		if err != nil {
			return err
		}

		searchText, err := s.buildTagSearchText(txCtx, userID, tagIDs)
		if err != nil {
			return err
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		item := &domain.Item{
			ID:            uuid.New(),
			UserID:        userID,
			Kind:          input.Kind,
			Title:         input.Title,
			Description:   input.Description,
			Category:      input.Category,
			Project:       input.Project,
			Importance:    importance,
			Pinned:        input.Pinned,
			TagSearchText: searchText,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		switch input.Kind {
		case domain.ItemKindLink:
			item.URL = input.URL
			item.URLDomain = domain.DeriveURLDomain(*input.URL)
		case domain.ItemKindNote:
			item.Content = input.Content
		}

		created, err = s.items.Create(txCtx, item)
		if err != nil {
			return fmt.Errorf("create item: %w", err)
		}

		if len(files) > 0 {
			if err := s.files.CreateBatch(txCtx, files); err != nil {
				return fmt.Errorf("create file rows: %w", err)
			}

			attachments := make([]domain.Attachment, len(files))
			for i, f := range files {
				attachments[i] = domain.Attachment{
					File:      f,
					ItemID:    created.ID,
					Position:  i,
					IsPrimary: i == 0,
				}
			}
			if err := s.files.AttachBatch(txCtx, attachments); err != nil {
				return fmt.Errorf("attach files: %w", err)
			}
		}

		if len(tagIDs) > 0 {
			if err := s.tags.ReplaceForItem(txCtx, created.ID, tagIDs); err != nil {
				return fmt.Errorf("link tags: %w", err)
			}
		}

		return nil
	})
	if txErr != nil {
		if len(files) > 0 {
			keys := make([]string, len(files))
			for i, f := range files {
				keys[i] = f.StorageKey
			}
			s.deleteBlobs(ctx, keys)
		}
		return nil, txErr
	}

	if err := s.decorate(ctx, created); err != nil {
		return nil, fmt.Errorf("load created item: %w", err)
	}

	s.log.Info("item created", "item_id", created.ID, "kind", created.Kind, "files", len(files))

	return &ItemResult{Item: created, Message: "Item created"}, nil
}
