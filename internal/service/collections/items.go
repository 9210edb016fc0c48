package collections

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// AddItems links items to a collection. All-or-nothing: every id must
// name an existing item of the caller, otherwise nothing is applied.
// Already-member items are skipped; the returned count is the number of
// memberships actually created.
func (s *Service) AddItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	if len(itemIDs) == 0 {
		return 0, nil
	}

	if _, err := s.getOwned(ctx, userID, collectionID); err != nil {
		return 0, err
	}

	owned, err := s.items.CountOwned(ctx, userID, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("verify items: %w", err)
	}
	if owned != countDistinct(itemIDs) {
		return 0, domain.NewValidationError("itemIds", "unknown item")
	}

	added, err := s.collections.AddItems(ctx, collectionID, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("add items: %w", err)
	}

	s.log.Info("items added to collection", "collection_id", collectionID, "added", added)

	return added, nil
}

// RemoveItems unlinks items from a collection. Ids that are not members
// are ignored; the returned count is the number of memberships removed.
func (s *Service) RemoveItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	if len(itemIDs) == 0 {
		return 0, nil
	}

	if _, err := s.getOwned(ctx, userID, collectionID); err != nil {
		return 0, err
	}

	removed, err := s.collections.RemoveItems(ctx, collectionID, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("remove items: %w", err)
	}

	return removed, nil
}

// Items returns one page of a collection's member items, newest
// membership first, with attachments (public URLs) and tags populated.
func (s *Service) Items(ctx context.Context, collectionID uuid.UUID, page, limit int) (*ItemPage, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if _, err := s.getOwned(ctx, userID, collectionID); err != nil {
		return nil, err
	}

	ids, total, err := s.collections.MemberItemIDs(ctx, collectionID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list member items: %w", err)
	}

	items, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load member items: %w", err)
	}

	// Restore membership order: GetByIDs returns rows in arbitrary order.
	byID := make(map[uuid.UUID]domain.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}

	if err := s.decorateItems(ctx, ordered); err != nil {
		return nil, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	return &ItemPage{
		Items: ordered,
		Meta:  domain.NewPageMeta(total, page, limit),
	}, nil
}

// decorateItems attaches files (with resolved public URLs) and tags.
func (s *Service) decorateItems(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	attachmentsByItem, err := s.files.GetForItems(ctx, ids)
	if err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}
	tagsByItem, err := s.tags.GetForItems(ctx, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}

	for i := range items {
		attachments := attachmentsByItem[items[i].ID]
		if attachments == nil {
			attachments = []domain.Attachment{}
		}
		for j := range attachments {
			attachments[j].PublicURL = s.blobs.PublicURL(attachments[j].StorageKey)
		}
		items[i].Attachments = attachments

		tags := tagsByItem[items[i].ID]
		if tags == nil {
			tags = []domain.Tag{}
		}
		items[i].Tags = tags
	}

	return nil
}

func countDistinct(ids []uuid.UUID) int {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
