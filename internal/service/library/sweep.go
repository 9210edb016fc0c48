package library

import (
	"context"
	"fmt"
	"time"
)

// Sweep permanently deletes trashed items across all owners whose
// trashed_at is older than the retention window. Idempotent: a second
// run right after the first deletes nothing. Returns the deleted count.
func (s *Service) Sweep(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	expired, err := s.items.TrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expired items: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	count, err := s.purgeMany(ctx, expired)
	if err != nil {
		return 0, err
	}

	s.log.Info("trash sweep finished", "cutoff", cutoff, "count", count)

	return count, nil
}
