package domain

import "github.com/google/uuid"

// ItemFilter contains filtering/pagination parameters for item listings.
// The same shape serves normal and trashed listings; the trashed flag
// itself is fixed by the operation, not the filter.
type ItemFilter struct {
	// Search performs a case-insensitive substring match on title,
	// description and the denormalized tag search text.
	Search     *string
	Kind       *ItemKind
	Category   *string
	Project    *string
	Importance *Importance
	Pinned     *bool
	TagID      *uuid.UUID

	// SortBy: "created_at", "updated_at", "title", "trashed_at".
	// Defaults depend on the listing (created_at for normal, trashed_at
	// for trash).
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// CollectionFilter contains filtering/pagination parameters for collection
// listings. RootOnly and ParentID are mutually exclusive; both unset means
// all collections of the owner.
type CollectionFilter struct {
	Search    *string
	IsPublic  *bool
	RootOnly  bool
	ParentID  *uuid.UUID
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// NewPageMeta computes TotalPages from the total row count.
func NewPageMeta(total, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageMeta{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
