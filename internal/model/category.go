package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a tag does not name a known category.
var ErrUnknownCategory = errors.New("unknown notification category")

// Category classifies the kind of social event a notification reports.
type Category string

const (
	CategoryFriend  Category = "friend"
	CategoryLike    Category = "like"
	CategoryComment Category = "comment"
	CategoryFollow  Category = "follow"
)

// Categories is the fixed list of recognized categories, in the order the
// inbox reads them from local storage. Adding a category means adding it
// here and to categoryTable.
var Categories = []Category{
	CategoryFriend,
	CategoryLike,
	CategoryComment,
	CategoryFollow,
}

// CategoryInfo describes how a category is presented.
type CategoryInfo struct {
	// Label is the short badge text shown beside a row.
	Label string

	// Verb completes the sentence "<sender> <verb>".
	Verb string

	// Color is a theme color name (see theme.CategoryStyle).
	Color string
}

var categoryTable = map[Category]CategoryInfo{
	CategoryFriend:  {Label: "FRD", Verb: "sent you a friend request", Color: "blue"},
	CategoryLike:    {Label: "LIK", Verb: "liked your post", Color: "red"},
	CategoryComment: {Label: "CMT", Verb: "commented on your post", Color: "green"},
	CategoryFollow:  {Label: "FLW", Verb: "started following you", Color: "magenta"},
}

// ParseCategory validates a category tag.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryTable[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the recognized categories.
func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Info returns the presentation entry for c. Unknown categories get a
// neutral entry so a stray record still renders.
func (c Category) Info() CategoryInfo {
	if info, ok := categoryTable[c]; ok {
		return info
	}
	return CategoryInfo{Label: "???", Verb: "sent you a notification", Color: "gray"}
}

func (c Category) String() string { return string(c) }
