package domain

import "fmt"

// Category partitions uploaded evidence files per owner.
type Category string

const (
	CategoryDocument Category = "document"
	CategorySelfie   Category = "selfie"
	CategoryLiveness Category = "liveness"
)

// Categories returns every evidence category, in cleanup order.
func Categories() []Category {
	return []Category{CategoryDocument, CategorySelfie, CategoryLiveness}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryDocument, CategorySelfie, CategoryLiveness:
		return true
	}
	return false
}

// storageFolders maps categories to the folder names the intake app uploads
// into. The misspelling of "liveliness" is part of the on-store contract and
// must not be corrected here.
var storageFolders = map[Category]string{
	CategoryDocument: "documents",
	CategorySelfie:   "selfies",
	CategoryLiveness: "liveliness",
}

// StorageFolder returns the blob store folder name for this category.
func (c Category) StorageFolder() string {
	return storageFolders[c]
}

// EvidencePrefix is the blob path prefix holding one owner's files for one
// category: users/<ownerID>/<folder>.
func EvidencePrefix(ownerID string, category Category) string {
	return fmt.Sprintf("users/%s/%s", ownerID, category.StorageFolder())
}

// Reference is a resolved, time-limited access URL for one uploaded file.
// It is derived on demand and never persisted.
type Reference struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
