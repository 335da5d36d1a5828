package model

import (
	"sort"
	"strings"
)

// ItemType is the kind of entry in a directory listing
type ItemType string

const (
	ItemTypeFile      ItemType = "file"
	ItemTypeDirectory ItemType = "directory"
)

// NormalizeItemType maps the type strings used by the backend to an ItemType.
// Unknown values are treated as files.
func NormalizeItemType(s string) ItemType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "directory", "dir", "folder", "d":
		return ItemTypeDirectory
	default:
		return ItemTypeFile
	}
}

// Item is a single directory entry
type Item struct {
	Name string   `json:"name"`
	Type ItemType `json:"type"`
}

// IsDir reports whether the item is a directory
func (i Item) IsDir() bool {
	return NormalizeItemType(string(i.Type)) == ItemTypeDirectory
}

// Listing is the content of the current directory
type Listing struct {
	Dir   string `json:"dir,omitempty"`
	Items []Item `json:"items"`
}

// Sorted returns the items with directories first, then by name.
func (l Listing) Sorted() []Item {
	items := make([]Item, len(l.Items))
	copy(items, l.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDir() != items[j].IsDir() {
			return items[i].IsDir()
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items
}

// Find returns the item with the given name
func (l Listing) Find(name string) (Item, bool) {
	for _, item := range l.Items {
		if item.Name == name {
			return item, true
		}
	}
	return Item{}, false
}

// Counts returns the number of directories and files
func (l Listing) Counts() (dirs, files int) {
	for _, item := range l.Items {
		if item.IsDir() {
			dirs++
		} else {
			files++
		}
	}
	return dirs, files
}
