package client

import (
	"slices"

	"songbook/models"
	"songbook/query"
)

// State is the client-side view of the catalogue.
type State struct {
	Songs      []models.Song
	Statistics *models.Statistics
	Selected   *models.Song
	Filters    ListParams
	Pagination *models.PaginationMeta
	Fetching   bool
	Mutating   bool
	Err        string
}

// InitialState mirrors the server defaults: first page, ten songs, newest first.
func InitialState() State {
	return State{
		Filters: ListParams{
			Page:      1,
			Limit:     10,
			SortBy:    string(query.FieldCreatedAt),
			SortOrder: string(query.OrderDesc),
		},
	}
}

// Action is anything Reduce understands.
type Action interface {
	isAction()
}

type (
	// FetchSongsRequested loads a page. A nil Filters keeps the current ones.
	// Silent fetches do not raise the Fetching flag.
	FetchSongsRequested struct {
		Filters *ListParams
		Silent  bool
	}
	FetchSongsSucceeded struct{ Result models.SongsResponse }
	FetchSongsFailed    struct{ Err string }

	CreateSongRequested struct{ Input models.SongInput }
	CreateSongSucceeded struct{ Song models.Song }

	UpdateSongRequested struct {
		ID    string
		Input models.SongInput
	}
	UpdateSongSucceeded struct{ Song models.Song }

	DeleteSongRequested struct{ ID string }
	DeleteSongSucceeded struct{ ID string }

	// MutationFailed ends any create, update or delete.
	MutationFailed struct{ Err string }

	FetchStatsRequested struct{}
	FetchStatsSucceeded struct{ Stats models.Statistics }
	FetchStatsFailed    struct{ Err string }

	SelectSong struct{ Song *models.Song }
	SetFilters struct{ Filters ListParams }
	ClearError struct{}
)

func (FetchSongsRequested) isAction() {}
func (FetchSongsSucceeded) isAction() {}
func (FetchSongsFailed) isAction()    {}
func (CreateSongRequested) isAction() {}
func (CreateSongSucceeded) isAction() {}
func (UpdateSongRequested) isAction() {}
func (UpdateSongSucceeded) isAction() {}
func (DeleteSongRequested) isAction() {}
func (DeleteSongSucceeded) isAction() {}
func (MutationFailed) isAction()      {}
func (FetchStatsRequested) isAction() {}
func (FetchStatsSucceeded) isAction() {}
func (FetchStatsFailed) isAction()    {}
func (SelectSong) isAction()          {}
func (SetFilters) isAction()          {}
func (ClearError) isAction()          {}

// Reduce returns the state that results from applying a to s. It never
// mutates s; slices and pointers that change are copied first.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case FetchSongsRequested:
		s.Fetching = !a.Silent
		s.Err = ""
		if a.Filters != nil {
			s.Filters = *a.Filters
		}

	case FetchSongsSucceeded:
		meta := a.Result.Pagination
		s.Fetching = false
		s.Songs = slices.Clone(a.Result.Data)
		s.Pagination = &meta
		s.Filters.Page = meta.Page
		s.Filters.Limit = meta.Limit
		if meta.SortBy != "" {
			s.Filters.SortBy = meta.SortBy
		}
		if meta.SortOrder != "" {
			s.Filters.SortOrder = meta.SortOrder
		}

	case FetchSongsFailed:
		s.Fetching = false
		s.Err = a.Err

	case CreateSongRequested, UpdateSongRequested, DeleteSongRequested:
		s.Mutating = true
		s.Err = ""

	case CreateSongSucceeded:
		s.Mutating = false
		s.Songs = append([]models.Song{a.Song}, s.Songs...)
		if s.Pagination != nil {
			meta := *s.Pagination
			if meta.Limit > 0 && len(s.Songs) > meta.Limit {
				s.Songs = s.Songs[:meta.Limit]
			}
			meta.Total++
			meta.TotalPages = query.TotalPages(meta.Total, meta.Limit)
			meta.HasNextPage = meta.Page < meta.TotalPages
			meta.HasPrevPage = meta.Page > 1
			s.Pagination = &meta
		}

	case UpdateSongSucceeded:
		s.Mutating = false
		if i := indexOf(s.Songs, a.Song.ID); i >= 0 {
			s.Songs = slices.Clone(s.Songs)
			s.Songs[i] = a.Song
		}
		s.Selected = nil

	case DeleteSongSucceeded:
		s.Mutating = false
		s.Songs = slices.DeleteFunc(slices.Clone(s.Songs), func(song models.Song) bool {
			return song.ID == a.ID
		})
		if s.Pagination != nil {
			meta := *s.Pagination
			meta.Total = max(meta.Total-1, 0)
			switch {
			case meta.Total == 0:
				meta.Page = 1
			case len(s.Songs) == 0 && meta.Page > 1:
				meta.Page--
			}
			meta.TotalPages = query.TotalPages(meta.Total, meta.Limit)
			meta.HasNextPage = meta.Total > 0 && meta.Page < meta.TotalPages
			meta.HasPrevPage = meta.Page > 1
			s.Pagination = &meta
			s.Filters.Page = meta.Page
		}

	case MutationFailed:
		s.Mutating = false
		s.Err = a.Err

	case FetchStatsRequested:
		s.Err = ""

	case FetchStatsSucceeded:
		stats := a.Stats
		s.Statistics = &stats

	case FetchStatsFailed:
		s.Err = a.Err

	case SelectSong:
		s.Selected = a.Song

	case SetFilters:
		s.Filters = a.Filters

	case ClearError:
		s.Err = ""
	}
	return s
}

func indexOf(songs []models.Song, id string) int {
	return slices.IndexFunc(songs, func(s models.Song) bool { return s.ID == id })
}
