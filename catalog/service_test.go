package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songbook/database"
	"songbook/models"
	"songbook/query"
)

// failingStore fails the operations named in failOn and delegates the rest.
type failingStore struct {
	database.Store
	failOn map[string]bool
	err    error
}

func (f *failingStore) fail(op string) error {
	if f.failOn[op] {
		return f.err
	}
	return nil
}

func (f *failingStore) Find(ctx context.Context, opts database.FindOptions) ([]models.Song, error) {
	if err := f.fail("find"); err != nil {
		return nil, err
	}
	return f.Store.Find(ctx, opts)
}

func (f *failingStore) Count(ctx context.Context, filter query.Expr) (int64, error) {
	if err := f.fail("count"); err != nil {
		return 0, err
	}
	return f.Store.Count(ctx, filter)
}

func (f *failingStore) GroupCount(ctx context.Context, field, rep query.Field) ([]models.GroupCount, error) {
	if err := f.fail("group " + string(field)); err != nil {
		return nil, err
	}
	return f.Store.GroupCount(ctx, field, rep)
}

func (f *failingStore) Insert(ctx context.Context, in models.SongInput) (*models.Song, error) {
	if err := f.fail("insert"); err != nil {
		return nil, err
	}
	return f.Store.Insert(ctx, in)
}

var demoSongs = []models.SongInput{
	{Title: "Neon Mirage", Artist: "Aurora Bloom", Album: "Midnight Canvas", Genre: "Synthwave"},
	{Title: "Skyline Reverie", Artist: "Aurora Bloom", Album: "Midnight Canvas", Genre: "Synthwave"},
	{Title: "Static Love", Artist: "Aurora Bloom", Album: "Chromatic Dreams", Genre: "Synthpop"},
	{Title: "Strobe Horizon", Artist: "Neon Drift", Album: "Waves of Glass", Genre: "Alternative Rock"},
	{Title: "Pulse Runner", Artist: "Neon Drift", Album: "Waves of Glass", Genre: "Synthwave"},
}

func seededService(t *testing.T) (*Service, *database.MemoryStore) {
	t.Helper()

	store := database.NewMemoryStore()
	svc := NewService(store, time.Second)
	for _, in := range demoSongs {
		_, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
	}
	return svc, store
}

func TestService_ListPagination(t *testing.T) {
	svc, _ := seededService(t)

	d := query.Descriptor{Page: 2, Limit: 2, Sort: query.Sort{Field: query.FieldTitle, Order: query.OrderAsc}}
	resp, err := svc.List(context.Background(), d)
	require.NoError(t, err)

	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Skyline Reverie", resp.Data[0].Title)
	assert.Equal(t, "Static Love", resp.Data[1].Title)
	assert.Equal(t, models.PaginationMeta{
		Total:       5,
		Page:        2,
		Limit:       2,
		TotalPages:  3,
		HasNextPage: true,
		HasPrevPage: true,
		SortBy:      "title",
		SortOrder:   "asc",
	}, resp.Pagination)
}

func TestService_ListSearch(t *testing.T) {
	svc, _ := seededService(t)

	d := query.Descriptor{Page: 1, Limit: 10, Sort: query.Sort{Field: query.FieldCreatedAt, Order: query.OrderDesc}, Search: "neon"}
	resp, err := svc.List(context.Background(), d)
	require.NoError(t, err)

	require.Len(t, resp.Data, 3)
	assert.Equal(t, "Neon Mirage", resp.Data[0].Title)
	assert.Equal(t, 60, *resp.Data[0].Score)
	assert.Equal(t, 10, *resp.Data[1].Score)
	assert.Equal(t, int64(3), resp.Pagination.Total)
}

func TestService_ListEmpty(t *testing.T) {
	svc := NewService(database.NewMemoryStore(), 0)

	resp, err := svc.List(context.Background(), query.Descriptor{Page: 1, Limit: 10, Sort: query.Sort{Field: query.FieldCreatedAt, Order: query.OrderDesc}})
	require.NoError(t, err)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.False(t, resp.Pagination.HasNextPage)
	assert.False(t, resp.Pagination.HasPrevPage)
}

func TestService_ListStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&failingStore{Store: database.NewMemoryStore(), failOn: map[string]bool{"count": true}, err: boom}, 0)

	_, err := svc.List(context.Background(), query.Descriptor{Page: 1, Limit: 10, Sort: query.Sort{Field: query.FieldCreatedAt, Order: query.OrderDesc}})
	require.Error(t, err)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "count", se.Op)
	assert.ErrorIs(t, err, boom)
}

func TestService_Stats(t *testing.T) {
	svc, _ := seededService(t)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.TotalSongs)
	assert.Equal(t, 2, stats.TotalArtists)
	assert.Equal(t, 3, stats.TotalAlbums)
	assert.Equal(t, 3, stats.TotalGenres)

	assert.Equal(t, models.GroupCount{Key: "Synthwave", Count: 3}, stats.SongsByGenre[0])
	assert.Equal(t, models.GroupCount{Key: "Aurora Bloom", Count: 3}, stats.SongsByArtist[0])
	assert.Len(t, stats.SongsByAlbum, 3)

	sum := func(counts []int64) int64 {
		var total int64
		for _, c := range counts {
			total += c
		}
		return total
	}
	var genres, artists, albums []int64
	for _, g := range stats.SongsByGenre {
		genres = append(genres, g.Count)
	}
	for _, g := range stats.SongsByArtist {
		artists = append(artists, g.Count)
	}
	for _, a := range stats.SongsByAlbum {
		albums = append(albums, a.Count)
		assert.NotEmpty(t, a.Artist)
	}
	assert.Equal(t, stats.TotalSongs, sum(genres))
	assert.Equal(t, stats.TotalSongs, sum(artists))
	assert.Equal(t, stats.TotalSongs, sum(albums))
}

func TestService_StatsEmpty(t *testing.T) {
	svc := NewService(database.NewMemoryStore(), 0)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSongs)
	assert.NotNil(t, stats.SongsByGenre)
	assert.NotNil(t, stats.SongsByArtist)
	assert.NotNil(t, stats.SongsByAlbum)
}

func TestService_StatsFailsAtomically(t *testing.T) {
	_, store := seededService(t)
	boom := errors.New("aggregation failed")
	svc := NewService(&failingStore{Store: store, failOn: map[string]bool{"group album": true}, err: boom}, 0)

	stats, err := svc.Stats(context.Background())
	assert.Nil(t, stats)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "group album", se.Op)
}

func TestService_CreateTrimsAndValidates(t *testing.T) {
	svc := NewService(database.NewMemoryStore(), 0)

	song, err := svc.Create(context.Background(), models.SongInput{
		Title: "  Neon Mirage ", Artist: "Aurora Bloom", Album: " Midnight Canvas", Genre: "Synthwave\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "Neon Mirage", song.Title)
	assert.Equal(t, "Midnight Canvas", song.Album)
	assert.Equal(t, "Synthwave", song.Genre)
	assert.Equal(t, song.CreatedAt, song.UpdatedAt)
}

func TestService_CreateRejectsBlankFields(t *testing.T) {
	tests := []struct {
		name     string
		input    models.SongInput
		problems []string
	}{
		{
			name:     "whitespace title",
			input:    models.SongInput{Title: "   ", Artist: "a", Album: "b", Genre: "c"},
			problems: []string{"Title is required"},
		},
		{
			name:     "everything missing",
			input:    models.SongInput{},
			problems: []string{"Title is required", "Artist is required", "Album is required", "Genre is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(database.NewMemoryStore(), 0)

			_, err := svc.Create(context.Background(), tt.input)
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.problems, ve.Problems)
		})
	}
}

func TestService_UpdateValidatesBeforeLookup(t *testing.T) {
	svc := NewService(database.NewMemoryStore(), 0)

	_, err := svc.Update(context.Background(), "missing", models.SongInput{Title: "", Artist: "a", Album: "b", Genre: "c"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(context.Background(), "missing", models.SongInput{Title: "t", Artist: "a", Album: "b", Genre: "c"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_GetDeleteNotFound(t *testing.T) {
	svc := NewService(database.NewMemoryStore(), 0)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	var se *StoreError
	assert.False(t, errors.As(err, &se))

	_, err = svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_CreateStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(&failingStore{Store: database.NewMemoryStore(), failOn: map[string]bool{"insert": true}, err: boom}, 0)

	_, err := svc.Create(context.Background(), demoSongs[0])

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert", se.Op)
	assert.Equal(t, "store insert failed: disk full", err.Error())
}
