package collections

import "github.com/heartmarshall/stashkeep-backend/internal/domain"

// CollectionPage is one page of a collection listing.
type CollectionPage struct {
	Collections []domain.Collection
	Meta        domain.PageMeta
}

// ItemPage is one page of a collection's member items.
type ItemPage struct {
	Items []domain.Item
	Meta  domain.PageMeta
}
