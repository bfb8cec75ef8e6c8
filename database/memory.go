package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"songbook/models"
	"songbook/query"
)

// MemoryStore keeps songs in process. It evaluates filters and scores with
// query.Expr.Match and query.Score.Eval, so it doubles as the reference
// behaviour for the database-backed stores.
type MemoryStore struct {
	mu    sync.RWMutex
	songs map[string]models.Song
	order []string
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		songs: map[string]models.Song{},
		order: []string{},
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// snapshot returns the stored songs in insertion order.
func (s *MemoryStore) snapshot() []models.Song {
	out := make([]models.Song, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.songs[id])
	}
	return out
}

func (s *MemoryStore) Find(ctx context.Context, opts FindOptions) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := []models.Song{}
	for _, song := range s.snapshot() {
		if opts.Filter.Match(song) {
			matched = append(matched, song)
		}
	}
	s.mu.RUnlock()

	query.Rank(matched, opts.Score, opts.Sort)
	start, end := query.Window(len(matched), validateOffset(opts.Offset), opts.Limit)
	return matched[start:end], nil
}

func (s *MemoryStore) Count(ctx context.Context, filter query.Expr) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, song := range s.songs {
		if filter.Match(song) {
			total++
		}
	}
	return total, nil
}

func (s *MemoryStore) Distinct(ctx context.Context, field query.Field) (int, error) {
	groups, err := s.GroupCount(ctx, field, "")
	if err != nil {
		return 0, err
	}
	return len(groups), nil
}

// GroupCount orders groups by descending count; equal counts keep the order
// in which each key was first inserted. The representative comes from the
// first inserted member. Keys compare exactly.
func (s *MemoryStore) GroupCount(ctx context.Context, field, representative query.Field) ([]models.GroupCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	songs := s.snapshot()
	s.mu.RUnlock()

	index := map[string]int{}
	groups := []models.GroupCount{}
	for _, song := range songs {
		key := field.Text(song)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.GroupCount{Key: key, Representative: representative.Text(song)})
		}
		groups[i].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups, nil
}

// Insert stamps createdAt and updatedAt with the same instant.
func (s *MemoryStore) Insert(ctx context.Context, in models.SongInput) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	song := models.Song{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Artist:    in.Artist,
		Album:     in.Album,
		Genre:     in.Genre,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.songs[song.ID] = song
	s.order = append(s.order, song.ID)
	return &song, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &song, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, in models.SongInput) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, ErrNotFound
	}
	song.Title = in.Title
	song.Artist = in.Artist
	song.Album = in.Album
	song.Genre = in.Genre
	song.UpdatedAt = s.now()
	s.songs[id] = song
	return &song, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.songs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return &song, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
