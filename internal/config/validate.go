package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if strings.TrimSpace(c.Storage.Root) == "" {
		return fmt.Errorf("storage.root must not be empty")
	}
	if strings.TrimSpace(c.Storage.BaseURL) == "" {
		return fmt.Errorf("storage.base_url must not be empty")
	}

	if c.Library.TrashRetentionDays <= 0 {
		return fmt.Errorf("library.trash_retention_days must be > 0 (got %d)",
			c.Library.TrashRetentionDays)
	}
	if c.Library.MaxUploadsPerItem <= 0 {
		return fmt.Errorf("library.max_uploads_per_item must be > 0 (got %d)",
			c.Library.MaxUploadsPerItem)
	}

	return nil
}
