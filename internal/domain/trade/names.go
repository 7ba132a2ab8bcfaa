package trade

import "strings"

// Item name suffixes used by the catalog to tag line types.
const (
	SuffixNonInventory       = "-NI"
	SuffixNonInventoryAssets = "-NIA"
	SuffixNonInventoryKit    = "-NIK"
	SuffixItemGroupParent    = "-G"
)

// IsNonInventoryName reports whether a line's item name carries one of the
// non-inventory suffixes. Only a match after the first character counts: a
// name that starts with the suffix is not treated as tagged.
func IsNonInventoryName(name string) bool {
	return strings.Index(name, SuffixNonInventory) > 0 ||
		strings.Index(name, SuffixNonInventoryAssets) > 0 ||
		strings.Index(name, SuffixNonInventoryKit) > 0
}

// IsItemGroupParentName reports whether the item name marks an item group parent line.
func IsItemGroupParentName(name string) bool {
	return strings.Index(name, SuffixItemGroupParent) > 0
}
