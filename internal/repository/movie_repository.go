package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-showtimes/internal/database"
	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// MovieRepo manages persistence for movies and their genres.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning several repositories.
func (r *MovieRepo) DB() *sql.DB {
	return r.db
}

const movieColumns = `id, title, studio_number, description, poster_path, backdrop_path, release_date, created_at`

// List returns every movie ordered by studio number, genres attached.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	return r.list(ctx, r.db)
}

// ListTx is List inside the caller's transaction.
func (r *MovieRepo) ListTx(ctx context.Context, tx *sql.Tx) ([]model.Movie, error) {
	return r.list(ctx, tx)
}

func (r *MovieRepo) list(ctx context.Context, q querier) ([]model.Movie, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY studio_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var movies []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	if len(movies) == 0 {
		return movies, nil
	}

	genres, err := genresByMovie(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range movies {
		movies[i].Genres = genres[movies[i].ID]
	}
	return movies, nil
}

// GetByID retrieves a movie and its genres.  It returns ErrMovieNotFound
// if there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id int64) (*model.Movie, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	m, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}

	const q = `SELECT g.id, g.name
               FROM movie_genres mg
               JOIN genres g ON g.id = mg.genre_id
               WHERE mg.movie_id = ?
               ORDER BY g.name ASC`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("get movie %d genres: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		m.Genres = append(m.Genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get movie %d genres: %w", id, err)
	}
	return m, nil
}

// Count returns the number of movies.
func (r *MovieRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// SaveGenreTx inserts g, or renames it when the ID already exists.
func (r *MovieRepo) SaveGenreTx(ctx context.Context, tx *sql.Tx, g model.Genre) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM genres WHERE id = ?`, g.ID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `INSERT INTO genres (id, name) VALUES (?, ?)`, g.ID, g.Name)
	case err == nil:
		_, err = tx.ExecContext(ctx, `UPDATE genres SET name = ? WHERE id = ?`, g.Name, g.ID)
	}
	if err != nil {
		return fmt.Errorf("save genre %d: %w", g.ID, err)
	}
	return nil
}

// CreateTx inserts m and links its genres, which must already exist.
// The generated ID is written back to m.  A second movie for the same
// studio yields ErrConflict.
func (r *MovieRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Movie) error {
	const q = `INSERT INTO movies (title, studio_number, description, poster_path, backdrop_path, release_date, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	var release any
	if m.ReleaseDate != nil {
		release = dbTime(*m.ReleaseDate)
	}
	res, err := tx.ExecContext(ctx, q,
		m.Title, m.StudioNumber, m.Description, m.PosterPath, m.BackdropPath, release, dbTime(m.CreatedAt))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create movie %q: %w", m.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create movie %q: %w", m.Title, err)
	}
	m.ID = id

	for _, g := range m.Genres {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movie_genres (movie_id, genre_id) VALUES (?, ?)`, m.ID, g.ID); err != nil {
			if database.IsUniqueViolation(err) {
				continue
			}
			return fmt.Errorf("link movie %d genre %d: %w", m.ID, g.ID, err)
		}
	}
	return nil
}

func genresByMovie(ctx context.Context, q querier) (map[int64][]model.Genre, error) {
	const sel = `SELECT mg.movie_id, g.id, g.name
                 FROM movie_genres mg
                 JOIN genres g ON g.id = mg.genre_id
                 ORDER BY mg.movie_id ASC, g.name ASC`
	rows, err := q.QueryContext(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list movie genres: %w", err)
	}
	defer rows.Close()
	out := make(map[int64][]model.Genre)
	for rows.Next() {
		var movieID int64
		var g model.Genre
		if err := rows.Scan(&movieID, &g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan movie genre: %w", err)
		}
		out[movieID] = append(out[movieID], g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movie genres: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var m model.Movie
	var desc sql.NullString
	var release sql.NullTime
	if err := row.Scan(&m.ID, &m.Title, &m.StudioNumber, &desc,
		&m.PosterPath, &m.BackdropPath, &release, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Description = strings.TrimSpace(desc.String)
	if release.Valid {
		d := release.Time.UTC()
		m.ReleaseDate = &d
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}
