package query

import (
	"strings"

	"songbook/models"
)

// Field names a song attribute. Values match the wire names used by clients.
type Field string

const (
	FieldTitle     Field = "title"
	FieldArtist    Field = "artist"
	FieldAlbum     Field = "album"
	FieldGenre     Field = "genre"
	FieldCreatedAt Field = "createdAt"
	FieldUpdatedAt Field = "updatedAt"
)

// Order is a sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Sort is a single-field ordering.
type Sort struct {
	Field Field
	Order Order
}

var sortableFields = map[Field]bool{
	FieldTitle:     true,
	FieldArtist:    true,
	FieldAlbum:     true,
	FieldGenre:     true,
	FieldCreatedAt: true,
	FieldUpdatedAt: true,
}

// IsSortable reports whether f may be used as a sort key.
func (f Field) IsSortable() bool {
	return sortableFields[f]
}

// IsText reports whether f holds free text that can be matched against.
func (f Field) IsText() bool {
	switch f {
	case FieldTitle, FieldArtist, FieldAlbum, FieldGenre:
		return true
	}
	return false
}

// Text returns the value of a text field on s. Non-text fields yield "".
func (f Field) Text(s models.Song) string {
	switch f {
	case FieldTitle:
		return s.Title
	case FieldArtist:
		return s.Artist
	case FieldAlbum:
		return s.Album
	case FieldGenre:
		return s.Genre
	}
	return ""
}

// Compare orders a and b by field f in ascending order.
// It returns -1, 0 or +1.
func Compare(f Field, a, b models.Song) int {
	switch f {
	case FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case FieldUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return strings.Compare(f.Text(a), f.Text(b))
}
