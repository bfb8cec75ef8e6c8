package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"songbook/database"
	"songbook/models"
	"songbook/query"
)

// Service runs catalogue operations against a Store.
type Service struct {
	store   database.Store
	timeout time.Duration
}

// NewService returns a Service. A positive timeout bounds every store call
// made on behalf of one operation.
func NewService(store database.Store, timeout time.Duration) *Service {
	return &Service{store: store, timeout: timeout}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// List returns one page of the songs matching d. The total and the page are
// fetched concurrently and are not read from a single snapshot.
func (s *Service) List(ctx context.Context, d query.Descriptor) (models.SongsResponse, error) {
	start := time.Now()
	defer func() {
		log.Debug().
			Dur("duration", time.Since(start)).
			Int("page", d.Page).
			Int("limit", d.Limit).
			Str("artist", d.Artist).
			Str("album", d.Album).
			Str("genre", d.Genre).
			Str("search", d.Search).
			Msg("ListSongs")
	}()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := query.BuildFilter(d)
	opts := database.FindOptions{
		Filter: filter,
		Score:  query.SearchScore(d.Search),
		Sort:   d.Sort,
		Offset: d.Offset(),
		Limit:  d.Limit,
	}

	var (
		total int64
		songs []models.Song
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, filter)
		if err != nil {
			return storeErr("count", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		found, err := s.store.Find(gctx, opts)
		if err != nil {
			return storeErr("find", err)
		}
		songs = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.SongsResponse{}, err
	}

	return query.Page(total, songs, d), nil
}

// Stats summarises the whole collection. The sub-queries run concurrently;
// if any fails the others are cancelled and no partial result is returned.
func (s *Service) Stats(ctx context.Context) (*models.Statistics, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		stats                      models.Statistics
		byGenre, byArtist, byAlbum []models.GroupCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, query.All())
		stats.TotalSongs = n
		return storeErr("count", err)
	})
	distinct := func(field query.Field, dst *int) {
		g.Go(func() error {
			n, err := s.store.Distinct(gctx, field)
			*dst = n
			return storeErr("distinct "+string(field), err)
		})
	}
	distinct(query.FieldArtist, &stats.TotalArtists)
	distinct(query.FieldAlbum, &stats.TotalAlbums)
	distinct(query.FieldGenre, &stats.TotalGenres)

	group := func(field, representative query.Field, dst *[]models.GroupCount) {
		g.Go(func() error {
			groups, err := s.store.GroupCount(gctx, field, representative)
			*dst = groups
			return storeErr("group "+string(field), err)
		})
	}
	group(query.FieldGenre, "", &byGenre)
	group(query.FieldArtist, "", &byArtist)
	group(query.FieldAlbum, query.FieldArtist, &byAlbum)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.SongsByGenre = nonNil(byGenre)
	stats.SongsByArtist = nonNil(byArtist)
	stats.SongsByAlbum = make([]models.AlbumCount, 0, len(byAlbum))
	for _, a := range byAlbum {
		stats.SongsByAlbum = append(stats.SongsByAlbum, models.AlbumCount{Key: a.Key, Count: a.Count, Artist: a.Representative})
	}
	return &stats, nil
}

func (s *Service) Create(ctx context.Context, in models.SongInput) (*models.Song, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	song, err := s.store.Insert(ctx, in)
	if err != nil {
		return nil, storeErr("insert", err)
	}
	log.Info().Str("id", song.ID).Str("title", song.Title).Msg("Created song")
	return song, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Song, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	song, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}
	return song, nil
}

// Update replaces the descriptive fields of the song. Validation happens
// before the store is consulted, so invalid input is rejected even for an
// unknown id.
func (s *Service) Update(ctx context.Context, id string, in models.SongInput) (*models.Song, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	song, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, storeErr("update", err)
	}
	log.Info().Str("id", song.ID).Msg("Updated song")
	return song, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*models.Song, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	song, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, storeErr("delete", err)
	}
	log.Info().Str("id", song.ID).Msg("Deleted song")
	return song, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Ping(ctx)
}

func nonNil(groups []models.GroupCount) []models.GroupCount {
	if groups == nil {
		return []models.GroupCount{}
	}
	return groups
}
