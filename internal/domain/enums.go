package domain

// ItemKind discriminates the three payload families an item can carry.
// The kind is fixed at creation and never changes.
type ItemKind string

const (
	ItemKindFile ItemKind = "FILE"
	ItemKindLink ItemKind = "LINK"
	ItemKindNote ItemKind = "NOTE"
)

func (k ItemKind) String() string { return string(k) }

func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindFile, ItemKindLink, ItemKindNote:
		return true
	}
	return false
}

// Importance is the user-assigned priority of an item.
type Importance string

const (
	ImportanceLow    Importance = "LOW"
	ImportanceMedium Importance = "MEDIUM"
	ImportanceHigh   Importance = "HIGH"
)

// DefaultImportance is assigned when the caller does not specify one.
const DefaultImportance = ImportanceMedium

func (i Importance) String() string { return string(i) }

func (i Importance) IsValid() bool {
	switch i {
	case ImportanceLow, ImportanceMedium, ImportanceHigh:
		return true
	}
	return false
}
