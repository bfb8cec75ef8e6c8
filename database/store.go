package database

import (
	"context"
	"errors"

	"songbook/models"
	"songbook/query"
)

// ErrNotFound is returned when no song has the requested identifier.
// Identifiers the backend cannot parse are reported the same way.
var ErrNotFound = errors.New("song not found")

// FindOptions selects, orders and windows songs.
//
// A nil Score means plain ordering by Sort. Otherwise songs are ordered by
// descending score, then by Sort. Every backend breaks remaining ties by
// identifier. A Limit of zero or less means no limit.
type FindOptions struct {
	Filter query.Expr
	Score  query.Score
	Sort   query.Sort
	Offset int
	Limit  int
}

// Store is the record store adapter the catalogue runs against.
type Store interface {
	Find(ctx context.Context, opts FindOptions) ([]models.Song, error)
	Count(ctx context.Context, filter query.Expr) (int64, error)
	// Distinct returns the number of distinct values of field.
	Distinct(ctx context.Context, field query.Field) (int, error)
	// GroupCount groups every song by field, ordered by descending count.
	// When representative is not empty each group carries that field's value
	// from one of its members.
	GroupCount(ctx context.Context, field, representative query.Field) ([]models.GroupCount, error)

	Insert(ctx context.Context, in models.SongInput) (*models.Song, error)
	Get(ctx context.Context, id string) (*models.Song, error)
	// Update replaces the descriptive fields and bumps UpdatedAt.
	Update(ctx context.Context, id string, in models.SongInput) (*models.Song, error)
	// Delete removes the song and returns it as it was.
	Delete(ctx context.Context, id string) (*models.Song, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func validateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
