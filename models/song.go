package models

import (
	"strings"
	"time"
)

// Song is a catalogued track. ID, CreatedAt and UpdatedAt are assigned by the store.
type Song struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	Genre     string    `json:"genre"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Score     *int      `json:"score,omitempty"` // Only populated for search results
}

// SongInput is the payload for creating or replacing a song.
// Fields are trimmed before validation, so whitespace-only values are rejected.
type SongInput struct {
	Title  string `json:"title" validate:"required"`
	Artist string `json:"artist" validate:"required"`
	Album  string `json:"album" validate:"required"`
	Genre  string `json:"genre" validate:"required"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (in SongInput) Trimmed() SongInput {
	return SongInput{
		Title:  strings.TrimSpace(in.Title),
		Artist: strings.TrimSpace(in.Artist),
		Album:  strings.TrimSpace(in.Album),
		Genre:  strings.TrimSpace(in.Genre),
	}
}

// SongsResponse is the list endpoint payload.
type SongsResponse struct {
	Data       []Song         `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta describes the page returned alongside a song list.
// TotalPages is at least 1, even for an empty result.
type PaginationMeta struct {
	Total       int64  `json:"total"`
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
	TotalPages  int    `json:"totalPages"`
	HasNextPage bool   `json:"hasNextPage"`
	HasPrevPage bool   `json:"hasPrevPage"`
	SortBy      string `json:"sortBy"`
	SortOrder   string `json:"sortOrder"`
}

// DeleteResponse is returned after a song has been removed.
type DeleteResponse struct {
	Message string `json:"message"`
	Song    Song   `json:"song"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}
