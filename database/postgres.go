package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"songbook/models"
	"songbook/query"
)

const songColumns = "id::text AS id, title, artist, album, genre, created_at, updated_at"

// PostgresStore keeps songs in the songs table created by
// migrations/001_create_songs.sql.
type PostgresStore struct {
	db   *sql.DB
	conn *DB
}

func NewPostgresStore(conn *DB) *PostgresStore {
	return &PostgresStore{db: conn.SQL, conn: conn}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type rowsScanner interface {
	rowScanner
	Next() bool
	Err() error
}

// Find uses a single query: the score expression, when present, is computed
// in the select list and ordered on by its alias.
func (s *PostgresStore) Find(ctx context.Context, opts FindOptions) ([]models.Song, error) {
	start := time.Now()
	defer func() {
		log.Debug().
			Str("op", "Find").
			Dur("duration", time.Since(start)).
			Bool("scored", opts.Score != nil).
			Msg("postgres query")
	}()

	qb := NewQueryBuilder()
	scored := opts.Score != nil
	selectList := songColumns
	if scored {
		scoreExpr, err := qb.Score(opts.Score)
		if err != nil {
			return nil, fmt.Errorf("failed to build score: %w", err)
		}
		selectList += ", " + scoreExpr + " AS score"
	}
	if err := qb.AddFilter(opts.Filter); err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}
	order, err := orderClause(opts.Sort, scored)
	if err != nil {
		return nil, fmt.Errorf("failed to build order: %w", err)
	}

	args := qb.Args()
	offset := validateOffset(opts.Offset)
	window := fmt.Sprintf("OFFSET $%d", qb.NextArgNum())
	if opts.Limit > 0 {
		window = fmt.Sprintf("LIMIT $%d OFFSET $%d", qb.NextArgNum(), qb.NextArgNum()+1)
		args = append(args, opts.Limit)
	}
	args = append(args, offset)

	// SAFETY: All user input is parameterized. Only column names from the
	// fixed column map reach the statement text.
	stmt := strings.Join(nonEmpty("SELECT", selectList, "FROM songs", qb.WhereClause(), order, window), " ")

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows, scored)
}

func (s *PostgresStore) Count(ctx context.Context, filter query.Expr) (int64, error) {
	qb := NewQueryBuilder()
	if err := qb.AddFilter(filter); err != nil {
		return 0, fmt.Errorf("failed to build filter: %w", err)
	}

	var total int64
	stmt := strings.Join(nonEmpty("SELECT COUNT(*) FROM songs", qb.WhereClause()), " ")
	if err := s.db.QueryRowContext(ctx, stmt, qb.Args()...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) Distinct(ctx context.Context, field query.Field) (int, error) {
	col, err := column(field)
	if err != nil {
		return 0, err
	}

	var n int
	stmt := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM songs", col)
	if err := s.db.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count distinct %s: %w", field, err)
	}
	return n, nil
}

// GroupCount breaks count ties by key so repeated calls agree. The
// representative is taken from the earliest created member.
func (s *PostgresStore) GroupCount(ctx context.Context, field, representative query.Field) ([]models.GroupCount, error) {
	col, err := column(field)
	if err != nil {
		return nil, err
	}
	rep := "''"
	if representative != "" {
		repCol, err := column(representative)
		if err != nil {
			return nil, err
		}
		rep = fmt.Sprintf("(ARRAY_AGG(%s ORDER BY %s, %s))[1]", repCol, columnCreatedAt, columnID)
	}

	stmt := fmt.Sprintf(
		"SELECT %s, COUNT(*), %s FROM songs GROUP BY %s ORDER BY COUNT(*) DESC, %s ASC",
		col, rep, col, col)

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to group songs by %s: %w", field, err)
	}
	defer rows.Close()

	groups := []models.GroupCount{}
	for rows.Next() {
		var g models.GroupCount
		if err := rows.Scan(&g.Key, &g.Count, &g.Representative); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return groups, nil
}

// Insert relies on column defaults, so created_at and updated_at share the
// same transaction timestamp.
func (s *PostgresStore) Insert(ctx context.Context, in models.SongInput) (*models.Song, error) {
	stmt := `
		INSERT INTO songs (title, artist, album, genre)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + songColumns

	song, err := scanSong(s.db.QueryRowContext(ctx, stmt, in.Title, in.Artist, in.Album, in.Genre), false)
	if err != nil {
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}

	log.Debug().Str("id", song.ID).Msg("Created song")
	return song, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Song, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	stmt := "SELECT " + songColumns + " FROM songs WHERE id = $1"
	song, err := scanSong(s.db.QueryRowContext(ctx, stmt, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return song, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, in models.SongInput) (*models.Song, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	stmt := `
		UPDATE songs
		SET title = $1, artist = $2, album = $3, genre = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + songColumns

	song, err := scanSong(s.db.QueryRowContext(ctx, stmt, in.Title, in.Artist, in.Album, in.Genre, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update song: %w", err)
	}
	return song, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (*models.Song, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	stmt := "DELETE FROM songs WHERE id = $1 RETURNING " + songColumns
	song, err := scanSong(s.db.QueryRowContext(ctx, stmt, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete song: %w", err)
	}
	return song, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.conn.Close()
	return nil
}

func scanSong(row rowScanner, scored bool) (*models.Song, error) {
	var song models.Song
	dest := []interface{}{
		&song.ID,
		&song.Title,
		&song.Artist,
		&song.Album,
		&song.Genre,
		&song.CreatedAt,
		&song.UpdatedAt,
	}
	if scored {
		var score int
		dest = append(dest, &score)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		song.Score = &score
		return &song, nil
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &song, nil
}

func scanSongs(rows rowsScanner, scored bool) ([]models.Song, error) {
	songs := []models.Song{}
	for rows.Next() {
		song, err := scanSong(rows, scored)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return songs, nil
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
