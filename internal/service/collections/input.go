package collections

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/stashkeep-backend/internal/domain"
)

// CreateCollectionInput carries the fields for creating a collection.
// A public collection without an explicit slug gets one generated from
// its name.
type CreateCollectionInput struct {
	Name        string
	Description *string
	CoverImage  *string
	IsPublic    bool
	SlugPublic  *string
	ParentID    *uuid.UUID
}

// Validate checks structural requirements.
func (in CreateCollectionInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.NewValidationError("name", "required")
	}
	if in.SlugPublic != nil && domain.Slugify(*in.SlugPublic) == "" {
		return domain.NewValidationError("slugPublic", "invalid slug")
	}
	return nil
}

// UpdateCollectionInput is a patch: nil pointers leave the field unchanged.
// ParentSet distinguishes "leave parent alone" from "move to root" (true
// with a nil ParentID); a set parent delegates to Move with its checks.
type UpdateCollectionInput struct {
	Name        *string
	Description *string
	CoverImage  *string
	IsPublic    *bool
	SlugPublic  *string

	ParentSet bool
	ParentID  *uuid.UUID
}

// Validate checks the patch fields.
func (in UpdateCollectionInput) Validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return domain.NewValidationError("name", "cannot be empty")
	}
	if in.SlugPublic != nil && domain.Slugify(*in.SlugPublic) == "" {
		return domain.NewValidationError("slugPublic", "invalid slug")
	}
	return nil
}
