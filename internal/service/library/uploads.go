package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// uploadAll writes every upload to the blob store in parallel and returns
// the resulting file rows. If any upload fails, blobs that did land are
// deleted and the first error is returned.
func (s *Service) uploadAll(ctx context.Context, userID uuid.UUID, uploads []UploadInput) ([]domain.File, error) {
	files := make([]domain.File, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	for i, up := range uploads {
		g.Go(func() error {
			key, err := s.blobs.Put(gctx, up.Data, up.MimeType, blobFolder)
			if err != nil {
				return fmt.Errorf("upload %q: %w", up.OriginalName, err)
			}

			files[i] = domain.File{
				ID:           uuid.New(),
				UserID:       userID,
				StorageKey:   key,
				OriginalName: up.OriginalName,
				MimeType:     up.MimeType,
				SizeBytes:    up.SizeBytes,
				CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		keys := make([]string, 0, len(files))
		for _, f := range files {
			if f.StorageKey != "" {
				keys = append(keys, f.StorageKey)
			}
		}
		s.deleteBlobs(ctx, keys)
		return nil, err
	}

	return files, nil
}

// deleteBlobs removes blobs in parallel, best effort: failures are logged
// and never surfaced. Runs detached from the caller's cancellation so a
// failed transaction still gets its blobs cleaned up.
func (s *Service) deleteBlobs(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.log.Warn("orphan blob not deleted", "key", key, "error", err)
			}
		}()
	}
	wg.Wait()
}

// attachmentKeys collects the storage keys of a set of attachments.
func attachmentKeys(attachments []domain.Attachment) []string {
	keys := make([]string, 0, len(attachments))
	for _, a := range attachments {
		keys = append(keys, a.StorageKey)
	}
	return keys
}
