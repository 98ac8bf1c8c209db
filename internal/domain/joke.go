// Package domain contains core business entities and rules.
package domain

// Joke is a single joke as fetched from the remote joke source.
// It is treated as immutable once fetched.
type Joke struct {
	// ID is the identifier assigned by the remote source.
	// Unique within one fetched set.
	ID string

	// Value is the joke text.
	Value string

	// Categories are the tags attached to the joke, in the order given.
	Categories []string

	// IconURL points at the source's icon image.
	IconURL string

	// URL is the canonical link to the joke.
	URL string

	// CreatedAt and UpdatedAt are timestamps as reported by the source.
	// They are kept verbatim and only parsed for display.
	CreatedAt string
	UpdatedAt string
}
