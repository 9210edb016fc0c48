package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// resolveTags turns the requested tag set (existing ids plus new-by-name)
// into a deduplicated id list. Runs on the caller's transaction context so
// created tags commit or roll back with the item. Names already taken by
// the owner are reused, including on a concurrent-create race.
func (s *Service) resolveTags(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID, newTags []NewTagInput) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	resolved := make([]uuid.UUID, 0, len(tagIDs)+len(newTags))

	if len(tagIDs) > 0 {
		existing, err := s.tags.GetByIDs(ctx, userID, tagIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve tag ids: %w", err)
		}
		if len(existing) != countDistinct(tagIDs) {
			return nil, domain.NewValidationError("tagIds", "unknown tag")
		}
		for _, t := range existing {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			resolved = append(resolved, t.ID)
		}
	}

	for _, nt := range newTags {
		name := strings.TrimSpace(nt.Name)

		tag, err := s.tags.GetByName(ctx, userID, name)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}

		if tag == nil {
			color := domain.DefaultTagColor
			if nt.Color != nil && *nt.Color != "" {
				color = *nt.Color
			}

			created := domain.Tag{
				ID:        uuid.New(),
				UserID:    userID,
				Name:      name,
				Color:     color,
				CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
			}

			if err := s.tags.Create(ctx, created); err != nil {
				if !errors.Is(err, domain.ErrAlreadyExists) {
					return nil, fmt.Errorf("create tag %q: %w", name, err)
				}
				// Lost a race; the name exists now, reuse it.
				tag, err = s.tags.GetByName(ctx, userID, name)
				if err != nil {
					return nil, fmt.Errorf("resolve tag %q: %w", name, err)
				}
			} else {
				tag = &created
			}
		}

		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}
		resolved = append(resolved, tag.ID)
	}

	return resolved, nil
}

// buildTagSearchText denormalizes tag names into the item's search column.
// Returns nil when the item has no tags.
func (s *Service) buildTagSearchText(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID) (*string, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	tags, err := s.tags.GetByIDs(ctx, userID, tagIDs)
	if err != nil {
		return nil, fmt.Errorf("load tags for search text: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}

	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}

	text := strings.Join(names, ", ")
	return &text, nil
}

func countDistinct(ids []uuid.UUID) int {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
