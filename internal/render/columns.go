// Package render turns jokes into HTML and terminal tables.
//
// A table is driven by an ordered list of [Column] descriptors. Each column
// names a joke field and a [Kind] that selects how the field is shown; one
// generic routine interprets the kind for every cell, so header and rows
// always share the same order.
package render

import (
	"fmt"
	"strings"

	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// Field keys understood by [Field].
const (
	KeyID         = "id"
	KeyIcon       = "icon_url"
	KeyValue      = "value"
	KeyCategories = "categories"
	KeyCreatedAt  = "created_at"
	KeyUpdatedAt  = "updated_at"
	KeyURL        = "url"
)

// Kind selects how a column's value is displayed.
type Kind int

const (
	// KindPlain shows the raw value as text.
	KindPlain Kind = iota
	// KindDate formats a timestamp as a human-readable date.
	KindDate
	// KindLink wraps a URL in a hyperlink.
	KindLink
	// KindImage wraps a URL in an image.
	KindImage
	// KindTags shows a list as inline badges.
	KindTags
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindDate:
		return "date"
	case KindLink:
		return "link"
	case KindImage:
		return "image"
	case KindTags:
		return "tags"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes one table column.
type Column struct {
	Key   string
	Label string
	Kind  Kind
}

// DefaultColumns returns the joke table layout.
func DefaultColumns() []Column {
	return []Column{
		{Key: KeyIcon, Label: "Icon", Kind: KindImage},
		{Key: KeyValue, Label: "Joke", Kind: KindPlain},
		{Key: KeyCategories, Label: "Categories", Kind: KindTags},
		{Key: KeyCreatedAt, Label: "Created", Kind: KindDate},
		{Key: KeyUpdatedAt, Label: "Updated", Kind: KindDate},
		{Key: KeyURL, Label: "Link", Kind: KindLink},
	}
}

// SelectColumns picks default columns by key, in the order given.
func SelectColumns(keys []string) ([]Column, error) {
	byKey := make(map[string]Column)
	for _, col := range DefaultColumns() {
		byKey[col.Key] = col
	}

	selected := make([]Column, 0, len(keys))

	for _, key := range keys {
		col, ok := byKey[strings.TrimSpace(key)]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", key)
		}

		selected = append(selected, col)
	}

	return selected, nil
}

// Value is a resolved field: either a single string or a list.
type Value struct {
	Text string
	List []string
}

// IsEmpty reports whether there is nothing to show.
func (v Value) IsEmpty() bool {
	return v.Text == "" && len(v.List) == 0
}

// String joins list values with ", ".
func (v Value) String() string {
	if v.List != nil {
		return strings.Join(v.List, ", ")
	}

	return v.Text
}

// Field resolves a key against a joke. Unknown keys yield an empty value.
func Field(joke *domain.Joke, key string) Value {
	if joke == nil {
		return Value{}
	}

	switch key {
	case KeyID:
		return Value{Text: joke.ID}
	case KeyIcon:
		return Value{Text: joke.IconURL}
	case KeyValue:
		return Value{Text: joke.Value}
	case KeyCategories:
		return Value{List: joke.Categories}
	case KeyCreatedAt:
		return Value{Text: joke.CreatedAt}
	case KeyUpdatedAt:
		return Value{Text: joke.UpdatedAt}
	case KeyURL:
		return Value{Text: joke.URL}
	default:
		return Value{}
	}
}
