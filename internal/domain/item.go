package domain

import (
	"time"

	"github.com/google/uuid"
)

// Item is a user's stored unit of content: an uploaded file, a bookmarked
// link, or a free-text note. Exactly one payload family is populated,
// matching Kind: attachments for FILE, URL for LINK, Content for NOTE.
type Item struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Kind          ItemKind
	Title         string
	Description   *string
	Category      *string
	Project       *string
	Importance    Importance
	Pinned        bool
	Trashed       bool
	TrashedAt     *time.Time
	TagSearchText *string
	URL           *string
	URLDomain     *string
	Content       *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Attachments []Attachment
	Tags        []Tag
}

// IsTrashed returns true if the item is in the trash.
func (i *Item) IsTrashed() bool {
	return i.Trashed
}

// File is the metadata record for one physical blob in the object store.
// It exists independently of any item; the item_files junction attaches it.
type File struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	StorageKey   string
	OriginalName string
	MimeType     string
	SizeBytes    int64
	CreatedAt    time.Time
}

// Attachment is a File joined with its item_files row: one blob attached
// to a FILE-kind item, with presentation order and primary selection.
// PublicURL is derived from StorageKey by the service layer before the
// attachment leaves the core.
type Attachment struct {
	File
	ItemID    uuid.UUID
	Position  int
	IsPrimary bool
	PublicURL string
}

// Tag is a user-scoped label with a display color. Names are unique per owner.
type Tag struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Color     string
	CreatedAt time.Time
}

// DefaultTagColor is used when a new tag is created without an explicit color.
const DefaultTagColor = "#6B7280"
