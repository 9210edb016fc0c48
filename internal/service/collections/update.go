package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// Update applies a patch to a collection. A set parent field goes through
// Move and its ancestry checks first; scalar fields follow. A changed
// slug is re-validated for uniqueness.
func (s *Service) Update(ctx context.Context, collectionID uuid.UUID, input UpdateCollectionInput) (*domain.Collection, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	c, err := s.getOwned(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}

	if input.ParentSet {
		c, err = s.Move(ctx, collectionID, input.ParentID)
		if err != nil {
			return nil, err
		}
	}

	if input.Name != nil {
		c.Name = *input.Name
	}
	if input.Description != nil {
		c.Description = input.Description
	}
	if input.CoverImage != nil {
		c.CoverImage = input.CoverImage
	}
	if input.IsPublic != nil {
		c.IsPublic = *input.IsPublic
	}

	if input.SlugPublic != nil {
		slug, err := s.resolveSlug(ctx, userID, c.ID, c.IsPublic, input.SlugPublic, c.Name)
		if err != nil {
			return nil, err
		}
		c.SlugPublic = slug
	} else if c.IsPublic && c.SlugPublic == nil {
		// Made public without ever holding a slug: generate one.
		slug, err := s.resolveSlug(ctx, userID, c.ID, true, nil, c.Name)
		if err != nil {
			return nil, err
		}
		c.SlugPublic = slug
	}

	c.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if err := s.collections.Update(ctx, *c); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}

	s.log.Info("collection updated", "collection_id", c.ID)

	return s.collections.GetByID(ctx, c.ID)
}

// Delete removes an owned collection. The database cascades descendants
// and membership rows; member items are untouched.
func (s *Service) Delete(ctx context.Context, collectionID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	if _, err := s.getOwned(ctx, userID, collectionID); err != nil {
		return err
	}

	if err := s.collections.Delete(ctx, collectionID); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	s.log.Info("collection deleted", "collection_id", collectionID)

	return nil
}
