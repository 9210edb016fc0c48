package collection

// Listing sort whitelist and pagination clamps.
const (
	defaultLimit = 50
	maxLimit     = 200

	sortByCreatedAt = "created_at"
	sortByUpdatedAt = "updated_at"
	sortByName      = "name"

	sortOrderASC  = "ASC"
	sortOrderDESC = "DESC"
)

// normalizeSort validates the sort column/order against the whitelist.
// Collection listings default to name ASC.
func normalizeSort(sortBy, sortOrder string) (string, string) {
	switch sortBy {
	case sortByCreatedAt, sortByUpdatedAt, sortByName:
		// valid
	default:
		sortBy = sortByName
	}

	switch sortOrder {
	case sortOrderASC, sortOrderDESC:
		// valid
	default:
		if sortBy == sortByName {
			sortOrder = sortOrderASC
		} else {
			sortOrder = sortOrderDESC
		}
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
