package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songbook/models"
	"songbook/query"
)

// runStoreSuite checks the behaviour every Store backend shares. reset must
// return a store holding no songs.
func runStoreSuite(t *testing.T, reset func(t *testing.T) Store) {
	ctx := context.Background()

	insert := func(t *testing.T, s Store, title, artist, album, genre string) *models.Song {
		t.Helper()
		song, err := s.Insert(ctx, models.SongInput{Title: title, Artist: artist, Album: album, Genre: genre})
		require.NoError(t, err)
		return song
	}
	titlesOf := func(songs []models.Song) []string {
		out := []string{}
		for _, s := range songs {
			out = append(out, s.Title)
		}
		return out
	}
	byTitle := query.Sort{Field: query.FieldTitle, Order: query.OrderAsc}

	t.Run("insert then get", func(t *testing.T) {
		s := reset(t)
		created := insert(t, s, "Neon Mirage", "Aurora Bloom", "Midnight Canvas", "Synthwave")

		assert.NotEmpty(t, created.ID)
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Neon Mirage", got.Title)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("malformed and missing ids", func(t *testing.T) {
		s := reset(t)

		_, err := s.Get(ctx, "definitely not an id")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Update(ctx, "definitely not an id", models.SongInput{Title: "a", Artist: "b", Album: "c", Genre: "d"})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Delete(ctx, "definitely not an id")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("filters are case-insensitive literal substrings", func(t *testing.T) {
		s := reset(t)
		insert(t, s, "Strobe Horizon", "Neon Drift", "Waves of Glass", "Alternative Rock")
		insert(t, s, "Skyline Reverie", "Aurora Bloom", "Midnight Canvas", "Synthwave")
		insert(t, s, "Wildcard", "Regex Kids", "Escapes", "Math.*Rock")

		rock := query.Contains(query.FieldGenre, "rock")
		songs, err := s.Find(ctx, FindOptions{Filter: rock, Sort: byTitle, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"Strobe Horizon", "Wildcard"}, titlesOf(songs))

		total, err := s.Count(ctx, rock)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		literal := query.Contains(query.FieldGenre, ".*")
		songs, err = s.Find(ctx, FindOptions{Filter: literal, Sort: byTitle, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"Wildcard"}, titlesOf(songs))

		total, err = s.Count(ctx, query.Contains(query.FieldGenre, "("))
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("search ranks title matches first", func(t *testing.T) {
		s := reset(t)
		insert(t, s, "Songs about Imagine", "Various", "Covers", "Pop")
		insert(t, s, "Other", "Imagine Dragons", "Imagine Live", "Imagine Pop")
		insert(t, s, "Imagine (Remix)", "DJ Dream", "Remixes", "Electronic")
		insert(t, s, "Imagine", "John Lennon", "Imagine", "Rock")
		insert(t, s, "Yesterday", "The Beatles", "Help!", "Rock")

		d := query.Descriptor{Page: 1, Limit: 10, Sort: byTitle, Search: "imagine"}
		songs, err := s.Find(ctx, FindOptions{
			Filter: query.BuildFilter(d),
			Score:  query.SearchScore(d.Search),
			Sort:   d.Sort,
			Limit:  d.Limit,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Imagine", "Imagine (Remix)", "Songs about Imagine", "Other"}, titlesOf(songs))

		scores := []int{}
		for _, song := range songs {
			require.NotNil(t, song.Score)
			scores = append(scores, *song.Score)
		}
		assert.Equal(t, []int{108, 60, 40, 23}, scores)
	})

	t.Run("pages are windows over one ordering", func(t *testing.T) {
		s := reset(t)
		for _, title := range []string{"E", "C", "A", "D", "B"} {
			insert(t, s, title, "Artist", "Album", "Genre")
		}

		page := func(offset, limit int) []string {
			songs, err := s.Find(ctx, FindOptions{Filter: query.All(), Sort: byTitle, Offset: offset, Limit: limit})
			require.NoError(t, err)
			return titlesOf(songs)
		}
		assert.Equal(t, []string{"A", "B"}, page(0, 2))
		assert.Equal(t, []string{"C", "D"}, page(2, 2))
		assert.Equal(t, []string{"E"}, page(4, 2))
		assert.Empty(t, page(10, 2))
	})

	t.Run("update replaces fields and bumps updatedAt", func(t *testing.T) {
		s := reset(t)
		created := insert(t, s, "Pulse Runner", "Neon Drift", "Waves of Glass", "Synthwave")

		updated, err := s.Update(ctx, created.ID, models.SongInput{
			Title: "Pulse Runner (Extended)", Artist: "Neon Drift", Album: "Waves of Glass", Genre: "Synthwave",
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Pulse Runner (Extended)", updated.Title)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	})

	t.Run("delete returns the removed record", func(t *testing.T) {
		s := reset(t)
		created := insert(t, s, "Static Love", "Aurora Bloom", "Chromatic Dreams", "Synthpop")

		deleted, err := s.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, deleted.ID)
		assert.Equal(t, "Static Love", deleted.Title)

		_, err = s.Get(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("group counts sum to total", func(t *testing.T) {
		s := reset(t)
		insert(t, s, "Neon Mirage", "Aurora Bloom", "Midnight Canvas", "Synthwave")
		insert(t, s, "Skyline Reverie", "Aurora Bloom", "Midnight Canvas", "Synthwave")
		insert(t, s, "Static Love", "Aurora Bloom", "Chromatic Dreams", "Synthpop")
		insert(t, s, "Strobe Horizon", "Neon Drift", "Waves of Glass", "Alternative Rock")

		total, err := s.Count(ctx, query.All())
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)

		for _, field := range []query.Field{query.FieldGenre, query.FieldArtist, query.FieldAlbum} {
			groups, err := s.GroupCount(ctx, field, query.FieldArtist)
			require.NoError(t, err)

			var sum int64
			for i, g := range groups {
				sum += g.Count
				if i > 0 {
					assert.GreaterOrEqual(t, groups[i-1].Count, g.Count)
				}
				assert.NotEmpty(t, g.Representative)
			}
			assert.Equal(t, total, sum, "field %s", field)

			distinct, err := s.Distinct(ctx, field)
			require.NoError(t, err)
			assert.Equal(t, len(groups), distinct, "field %s", field)
		}

		albums, err := s.GroupCount(ctx, query.FieldAlbum, query.FieldArtist)
		require.NoError(t, err)
		assert.Equal(t, models.GroupCount{Key: "Midnight Canvas", Count: 2, Representative: "Aurora Bloom"}, albums[0])
	})
}
