// Package collections implements the collection tree business logic:
// nested folders, public slugs and item membership.
package collections

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type collectionRepo interface {
	GetByID(ctx context.Context, collectionID uuid.UUID) (*domain.Collection, error)
	Find(ctx context.Context, userID uuid.UUID, filter domain.CollectionFilter) ([]domain.Collection, int, error)
	Create(ctx context.Context, c domain.Collection) error
	Update(ctx context.Context, c domain.Collection) error
	Delete(ctx context.Context, collectionID uuid.UUID) error
	SlugExists(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error)
	AddItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
	RemoveItems(ctx context.Context, collectionID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
	MemberItemIDs(ctx context.Context, collectionID uuid.UUID, page, limit int) ([]uuid.UUID, int, error)
}

type itemRepo interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Item, error)
	CountOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)
}

type fileRepo interface {
	GetForItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Attachment, error)
}

type tagRepo interface {
	GetForItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Tag, error)
}

type blobStore interface {
	PublicURL(key string) string
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the collection tree business logic.
type Service struct {
	log         *slog.Logger
	collections collectionRepo
	items       itemRepo
	files       fileRepo
	tags        tagRepo
	blobs       blobStore
}

// NewService creates a new Collections service.
func NewService(
	logger *slog.Logger,
	collections collectionRepo,
	items itemRepo,
	files fileRepo,
	tags tagRepo,
	blobs blobStore,
) *Service {
	return &Service{
		log:         logger.With("service", "collections"),
		collections: collections,
		items:       items,
		files:       files,
		tags:        tags,
		blobs:       blobs,
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// getOwned loads a collection and verifies it belongs to the user.
// Foreign collections yield ErrForbidden, absent ones ErrNotFound.
func (s *Service) getOwned(ctx context.Context, userID, collectionID uuid.UUID) (*domain.Collection, error) {
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return c, nil
}
