package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"songbook/models"
)

// API is the subset of Client the Store drives.
type API interface {
	ListSongs(ctx context.Context, p ListParams) (*models.SongsResponse, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
	CreateSong(ctx context.Context, in models.SongInput) (*models.Song, error)
	UpdateSong(ctx context.Context, id string, in models.SongInput) (*models.Song, error)
	DeleteSong(ctx context.Context, id string) (*models.Song, error)
}

type taskKind int

const (
	taskFetchSongs taskKind = iota
	taskCreate
	taskUpdate
	taskDelete
	taskStats
)

var taskNames = [...]string{"fetch_songs", "create", "update", "delete", "stats"}

func (k taskKind) String() string { return taskNames[k] }

type task struct {
	seq    uint64
	cancel context.CancelFunc
}

// Store owns a State and runs the requests behind request actions.
//
// Every request action starts a task. Starting a task cancels the running task
// of the same kind, and results of superseded tasks are discarded, so the
// latest request always wins. Successful mutations are followed by a
// statistics refresh.
type Store struct {
	api API

	mu          sync.Mutex
	state       State
	tasks       map[taskKind]task
	seq         uint64
	subscribers map[int]func(State)
	nextSub     int
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates a Store in InitialState.
func NewStore(api API) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		api:         api,
		state:       InitialState(),
		tasks:       make(map[taskKind]task),
		subscribers: make(map[int]func(State)),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Songs = slices.Clone(snap.Songs)
	return snap
}

// Subscribe registers fn to be called with the new state after every applied
// action. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Dispatch applies a and starts the task it requests, if any.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = Reduce(s.state, a)
	if kind, run, ok := s.effect(a); ok {
		s.start(kind, run)
	}
	s.notifyLocked()
}

// Wait blocks until no task is running.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels running tasks and waits for them. Later dispatches are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// effect maps a request action to the task serving it. Filters are read from
// the already reduced state.
func (s *Store) effect(a Action) (taskKind, func(context.Context) Action, bool) {
	switch a := a.(type) {
	case FetchSongsRequested:
		params := s.state.Filters
		return taskFetchSongs, func(ctx context.Context) Action {
			res, err := s.api.ListSongs(ctx, params)
			if err != nil {
				return FetchSongsFailed{Err: errorMessage(err, "Failed to fetch songs")}
			}
			return FetchSongsSucceeded{Result: *res}
		}, true

	case CreateSongRequested:
		return taskCreate, func(ctx context.Context) Action {
			song, err := s.api.CreateSong(ctx, a.Input)
			if err != nil {
				return MutationFailed{Err: errorMessage(err, "Failed to create song")}
			}
			return CreateSongSucceeded{Song: *song}
		}, true

	case UpdateSongRequested:
		return taskUpdate, func(ctx context.Context) Action {
			song, err := s.api.UpdateSong(ctx, a.ID, a.Input)
			if err != nil {
				return MutationFailed{Err: errorMessage(err, "Failed to update song")}
			}
			return UpdateSongSucceeded{Song: *song}
		}, true

	case DeleteSongRequested:
		return taskDelete, func(ctx context.Context) Action {
			if _, err := s.api.DeleteSong(ctx, a.ID); err != nil {
				return MutationFailed{Err: errorMessage(err, "Failed to delete song")}
			}
			return DeleteSongSucceeded{ID: a.ID}
		}, true

	case FetchStatsRequested:
		return taskStats, func(ctx context.Context) Action {
			stats, err := s.api.Statistics(ctx)
			if err != nil {
				return FetchStatsFailed{Err: errorMessage(err, "Failed to fetch statistics")}
			}
			return FetchStatsSucceeded{Stats: *stats}
		}, true
	}
	return 0, nil, false
}

// start must be called with s.mu held.
func (s *Store) start(kind taskKind, run func(context.Context) Action) {
	if prev, ok := s.tasks[kind]; ok {
		prev.cancel()
	}
	s.seq++
	ctx, cancel := context.WithCancel(s.ctx)
	t := task{seq: s.seq, cancel: cancel}
	s.tasks[kind] = t

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		result := run(ctx)
		if s.finish(kind, t.seq, result) {
			switch result.(type) {
			case CreateSongSucceeded, UpdateSongSucceeded, DeleteSongSucceeded:
				s.Dispatch(FetchStatsRequested{})
			}
		}
	}()
}

// finish applies the result of task seq unless a newer task of the same kind
// replaced it. It reports whether the result was applied.
func (s *Store) finish(kind taskKind, seq uint64, result Action) bool {
	s.mu.Lock()
	current, ok := s.tasks[kind]
	if s.closed || !ok || current.seq != seq {
		s.mu.Unlock()
		log.Debug().Str("task", kind.String()).Uint64("seq", seq).Msg("Dropping superseded result")
		return false
	}
	delete(s.tasks, kind)
	s.state = Reduce(s.state, result)
	s.notifyLocked()
	return true
}

// notifyLocked releases s.mu before calling subscribers.
func (s *Store) notifyLocked() {
	snap := s.state
	snap.Songs = slices.Clone(snap.Songs)
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func errorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
