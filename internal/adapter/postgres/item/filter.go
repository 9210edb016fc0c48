package item

// Listing sort whitelist and pagination clamps.
const (
	defaultLimit = 50
	maxLimit     = 200

	sortByCreatedAt = "created_at"
	sortByUpdatedAt = "updated_at"
	sortByTitle     = "title"
	sortByTrashedAt = "trashed_at"

	sortOrderASC  = "ASC"
	sortOrderDESC = "DESC"
)

// normalizeSort validates the sort column/order against the whitelist and
// applies listing defaults. Trash listings default to trashed_at DESC,
// normal listings to created_at DESC.
func normalizeSort(sortBy, sortOrder string, trashed bool) (string, string) {
	switch sortBy {
	case sortByCreatedAt, sortByUpdatedAt, sortByTitle:
		// valid
	case sortByTrashedAt:
		if !trashed {
			sortBy = sortByCreatedAt
		}
	default:
		if trashed {
			sortBy = sortByTrashedAt
		} else {
			sortBy = sortByCreatedAt
		}
	}

	switch sortOrder {
	case sortOrderASC, sortOrderDESC:
		// valid
	default:
		sortOrder = sortOrderDESC
	}

	return sortBy, sortOrder
}

// normalizePage clamps page/limit and returns the row offset.
func normalizePage(page, limit int) (int, int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, (page - 1) * limit
}
