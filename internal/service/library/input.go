package library

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// UploadInput is one already-parsed upload buffer. Multipart decoding
// happens at the transport edge; the service only sees bytes plus metadata.
type UploadInput struct {
	Data         []byte
	OriginalName string
	MimeType     string
	SizeBytes    int64
}

// NewTagInput requests attaching a tag by name, creating it if the owner
// has no tag with that name yet.
type NewTagInput struct {
	Name  string
	Color *string
}

// CreateItemInput carries the fields for creating an item of any kind.
// Exactly one payload family (Uploads / URL / Content) applies, matching Kind.
type CreateItemInput struct {
	Kind        domain.ItemKind
	Title       string
	Description *string
	Category    *string
	Project     *string
	Importance  *domain.Importance
	Pinned      bool

	TagIDs  []uuid.UUID
	NewTags []NewTagInput

	Uploads []UploadInput // FILE
	URL     *string       // LINK
	Content *string       // NOTE
}

// Validate checks structural requirements before any I/O happens.
func (in CreateItemInput) Validate(maxUploads int) error {
	if !in.Kind.IsValid() {
		return domain.NewValidationError("kind", "must be one of FILE, LINK, NOTE")
	}
	if strings.TrimSpace(in.Title) == "" {
		return domain.NewValidationError("title", "required")
	}
	if in.Importance != nil && !in.Importance.IsValid() {
		return domain.NewValidationError("importance", "must be one of LOW, MEDIUM, HIGH")
	}

	switch in.Kind {
	case domain.ItemKindFile:
		if len(in.Uploads) == 0 {
			return domain.NewValidationError("uploads", "at least one file is required")
		}
		if len(in.Uploads) > maxUploads {
			return domain.NewValidationError("uploads", "too many files")
		}
	case domain.ItemKindLink:
		if in.URL == nil || strings.TrimSpace(*in.URL) == "" {
			return domain.NewValidationError("url", "required")
		}
	case domain.ItemKindNote:
		if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
			return domain.NewValidationError("content", "required")
		}
	}

	for _, nt := range in.NewTags {
		if strings.TrimSpace(nt.Name) == "" {
			return domain.NewValidationError("newTags", "tag name required")
		}
	}

	return nil
}

// UpdateItemInput is a patch: nil pointers leave the field unchanged.
// Tag fields replace the item's full tag set when either is present.
// RemoveFileIDs and Uploads apply to FILE items only.
type UpdateItemInput struct {
	Title       *string
	Description *string
	Category    *string
	Project     *string
	Importance  *domain.Importance

	TagIDs  []uuid.UUID
	NewTags []NewTagInput

	RemoveFileIDs []uuid.UUID
	Uploads       []UploadInput

	URL     *string // LINK
	Content *string // NOTE
}

// hasTagChange reports whether the patch replaces the tag set.
func (in UpdateItemInput) hasTagChange() bool {
	return in.TagIDs != nil || len(in.NewTags) > 0
}

// Validate checks the patch against the item's kind.
func (in UpdateItemInput) Validate(kind domain.ItemKind) error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return domain.NewValidationError("title", "cannot be empty")
	}
	if in.Importance != nil && !in.Importance.IsValid() {
		return domain.NewValidationError("importance", "must be one of LOW, MEDIUM, HIGH")
	}

	if kind != domain.ItemKindFile && (len(in.RemoveFileIDs) > 0 || len(in.Uploads) > 0) {
		return domain.NewValidationError("uploads", "file changes apply to FILE items only")
	}
	if kind != domain.ItemKindLink && in.URL != nil {
		return domain.NewValidationError("url", "url applies to LINK items only")
	}
	if kind != domain.ItemKindNote && in.Content != nil {
		return domain.NewValidationError("content", "content applies to NOTE items only")
	}
	if kind == domain.ItemKindLink && in.URL != nil && strings.TrimSpace(*in.URL) == "" {
		return domain.NewValidationError("url", "cannot be empty")
	}
	if kind == domain.ItemKindNote && in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		return domain.NewValidationError("content", "cannot be empty")
	}

	for _, nt := range in.NewTags {
		if strings.TrimSpace(nt.Name) == "" {
			return domain.NewValidationError("newTags", "tag name required")
		}
	}

	return nil
}
