package library

import "github.com/heartmarshall/stashkeep-backend/internal/domain"

// ItemResult pairs a mutated item with a human-readable confirmation.
type ItemResult struct {
	Item    *domain.Item
	Message string
}

// ItemPage is one page of an item listing.
type ItemPage struct {
	Items []domain.Item
	Meta  domain.PageMeta
}

// EmptyTrashResult reports the outcome of an EmptyTrash call.
type EmptyTrashResult struct {
	Count   int64
	Message string
}
