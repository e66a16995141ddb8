package domain

import "strings"

type Album struct {
	ID          int64   `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Year        int     `db:"year" json:"year"`
	Description string  `db:"description" json:"description"`
	Tracklist   string  `db:"tracklist" json:"tracklist"`
	ImageURL    *string `db:"image_url" json:"image_url,omitempty"`
}

// Tracks splits the tracklist on "\n". Lines are kept verbatim, so blank
// lines produce empty entries.
func (a Album) Tracks() []string {
	return strings.Split(a.Tracklist, "\n")
}

// Cover returns the image URL or "" when none is set.
func (a Album) Cover() string {
	if a.ImageURL == nil {
		return ""
	}
	return *a.ImageURL
}
