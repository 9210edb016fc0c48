package domain

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a named folder, optionally nested under a parent collection
// of the same owner. Items belong to collections by membership, not
// containment: deleting a collection never deletes its items.
type Collection struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description *string
	CoverImage  *string
	IsPublic    bool
	SlugPublic  *string
	ParentID    *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Denormalized listing extras, populated by list queries only.
	ItemCount  int
	ChildCount int
	ParentName *string
}

// IsRoot returns true if the collection has no parent.
func (c *Collection) IsRoot() bool {
	return c.ParentID == nil
}

// BreadcrumbEntry is one step of a collection's ancestor chain,
// ordered root to target.
type BreadcrumbEntry struct {
	ID   uuid.UUID
	Name string
}
