package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
	"github.com/heartmarshall/stashkeep-backend/pkg/ctxutil"
)

// Move re-parents a collection. A nil newParentID moves it to the root.
// The new parent must be owned, must not be the collection itself and
// must not be one of its descendants. Moving to the current parent is a
// no-op.
func (s *Service) Move(ctx context.Context, collectionID uuid.UUID, newParentID *uuid.UUID) (*domain.Collection, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	c, err := s.getOwned(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}

	if err := s.checkMove(ctx, userID, c, newParentID); err != nil {
		return nil, err
	}

	c.ParentID = newParentID
	c.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	if err := s.collections.Update(ctx, *c); err != nil {
		return nil, fmt.Errorf("move collection: %w", err)
	}

	s.log.Info("collection moved", "collection_id", c.ID, "parent_id", newParentID)

	return s.collections.GetByID(ctx, c.ID)
}

// checkMove validates a re-parenting without applying it.
func (s *Service) checkMove(ctx context.Context, userID uuid.UUID, c *domain.Collection, newParentID *uuid.UUID) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == c.ID {
		return domain.NewValidationError("parentId", "cannot move a collection into itself")
	}

	parent, err := s.getOwned(ctx, userID, *newParentID)
	if err != nil {
		return err
	}

	// Walk up from the new parent; hitting the moving collection means the
	// target is inside its own subtree. The visited set guards against a
	// corrupted parent chain looping forever.
	visited := map[uuid.UUID]struct{}{}
	for parent != nil {
		if parent.ID == c.ID {
			return domain.NewValidationError("parentId", "cannot move a collection into its own descendant")
		}
		if _, seen := visited[parent.ID]; seen {
			return fmt.Errorf("collection %s: parent chain contains a cycle", parent.ID)
		}
		visited[parent.ID] = struct{}{}

		if parent.ParentID == nil {
			break
		}
		parent, err = s.collections.GetByID(ctx, *parent.ParentID)
		if err != nil {
			return fmt.Errorf("walk ancestors: %w", err)
		}
	}

	return nil
}
