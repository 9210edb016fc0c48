package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// Create creates a collection, optionally nested under an owned parent.
// Public collections always end up with a slug unique per owner: an
// explicit one must be free, a missing one is generated from the name.
func (s *Service) Create(ctx context.Context, input CreateCollectionInput) (*domain.Collection, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if _, err := s.getOwned(ctx, userID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	id := uuid.New()

	slug, err := s.resolveSlug(ctx, userID, id, input.IsPublic, input.SlugPublic, input.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	c := domain.Collection{
		ID:          id,
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		CoverImage:  input.CoverImage,
		IsPublic:    input.IsPublic,
		SlugPublic:  slug,
		ParentID:    input.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.collections.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.log.Info("collection created", "collection_id", c.ID, "parent_id", c.ParentID)

	created, err := s.collections.GetByID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load created collection: %w", err)
	}

	return created, nil
}

// resolveSlug picks the collection's public slug. Explicit slugs are
// normalized and must be free; public collections without one get a
// name-derived slug with a numeric suffix on collision.
func (s *Service) resolveSlug(ctx context.Context, userID, collectionID uuid.UUID, isPublic bool, explicit *string, name string) (*string, error) {
	if explicit != nil {
		slug := domain.Slugify(*explicit)
		taken, err := s.collections.SlugExists(ctx, userID, slug, collectionID)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return nil, domain.NewValidationError("slugPublic", "already in use")
		}
		return &slug, nil
	}

	if !isPublic {
		return nil, nil
	}

	base := domain.Slugify(name)
	if base == "" {
		base = "collection"
	}

	slug := base
	for i := 2; ; i++ {
		taken, err := s.collections.SlugExists(ctx, userID, slug, collectionID)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return &slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
