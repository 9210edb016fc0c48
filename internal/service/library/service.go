// Package library implements the content library business logic: item and
// attachment lifecycle, tag resolution and the trash state machine.
package library

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/config"
	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// blobFolder is the storage folder item uploads are written under.
const blobFolder = "items"

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type itemRepo interface {
	GetByID(ctx context.Context, itemID uuid.UUID) (*domain.Item, error)
	Find(ctx context.Context, userID uuid.UUID, filter domain.ItemFilter, trashed bool) ([]domain.Item, int, error)
	TrashedByUser(ctx context.Context, userID uuid.UUID) ([]domain.Item, error)
	TrashedBefore(ctx context.Context, cutoff time.Time) ([]domain.Item, error)
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	SetPinned(ctx context.Context, userID, itemID uuid.UUID, pinned bool) error
	SetTrashed(ctx context.Context, userID, itemID uuid.UUID, trashed bool, trashedAt *time.Time) error
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type fileRepo interface {
	GetForItem(ctx context.Context, itemID uuid.UUID) ([]domain.Attachment, error)
	GetForItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Attachment, error)
	GetAttachment(ctx context.Context, itemID, fileID uuid.UUID) (*domain.Attachment, error)
	MaxPosition(ctx context.Context, itemID uuid.UUID) (int, error)
	CreateBatch(ctx context.Context, files []domain.File) error
	AttachBatch(ctx context.Context, attachments []domain.Attachment) error
	Detach(ctx context.Context, itemID, fileID uuid.UUID) error
	DeleteFile(ctx context.Context, fileID uuid.UUID) error
	DeleteByItemIDs(ctx context.Context, itemIDs []uuid.UUID) (int64, error)
	ClearPrimary(ctx context.Context, itemID uuid.UUID) error
	SetPrimary(ctx context.Context, itemID, fileID uuid.UUID) error
	SetPosition(ctx context.Context, itemID, fileID uuid.UUID, position int) (int64, error)
	EnsurePrimary(ctx context.Context, itemID uuid.UUID) error
}

type tagRepo interface {
	GetByIDs(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID) ([]domain.Tag, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Tag, error)
	GetForItem(ctx context.Context, itemID uuid.UUID) ([]domain.Tag, error)
	GetForItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID][]domain.Tag, error)
	Create(ctx context.Context, tag domain.Tag) error
	ReplaceForItem(ctx context.Context, itemID uuid.UUID, tagIDs []uuid.UUID) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type blobStore interface {
	Put(ctx context.Context, data []byte, contentType, folder string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the content library business logic.
type Service struct {
	log   *slog.Logger
	items itemRepo
	files fileRepo
	tags  tagRepo
	tx    txManager
	blobs blobStore
	cfg   config.LibraryConfig
}

// NewService creates a new Library service.
func NewService(
	logger *slog.Logger,
	items itemRepo,
	files fileRepo,
	tags tagRepo,
	tx txManager,
	blobs blobStore,
	cfg config.LibraryConfig,
) *Service {
	return &Service{
		log:   logger.With("service", "library"),
		items: items,
		files: files,
		tags:  tags,
		tx:    tx,
		blobs: blobs,
		cfg:   cfg,
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// getOwned loads an item and verifies it belongs to the user.
// Foreign items yield ErrForbidden, absent ones ErrNotFound.
func (s *Service) getOwned(ctx context.Context, userID, itemID uuid.UUID) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return item, nil
}

// decorate attaches an item's files (with resolved public URLs) and tags.
func (s *Service) decorate(ctx context.Context, item *domain.Item) error {
	attachments, err := s.files.GetForItem(ctx, item.ID)
	if err != nil {
		return err
	}
	for i := range attachments {
		attachments[i].PublicURL = s.blobs.PublicURL(attachments[i].StorageKey)
	}
	item.Attachments = attachments

	tags, err := s.tags.GetForItem(ctx, item.ID)
	if err != nil {
		return err
	}
	item.Tags = tags

	return nil
}

// decorateMany attaches files and tags to a batch of items in two queries.
func (s *Service) decorateMany(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	attachmentsByItem, err := s.files.GetForItems(ctx, ids)
	if err != nil {
		return err
	}
	tagsByItem, err := s.tags.GetForItems(ctx, ids)
	if err != nil {
		return err
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
