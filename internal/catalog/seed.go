package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iliyamo/cinema-showtimes/internal/clock"
	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
)

// SeedResult reports what Seed wrote.
type SeedResult struct {
	Genres  int
	Movies  int
	Skipped bool // the database already had movies
}

// Seeder writes a catalog into the database.
type Seeder struct {
	movies *repository.MovieRepo
	clock  clock.Clock
	log    *slog.Logger
}

// NewSeeder returns a Seeder writing through movies.
func NewSeeder(movies *repository.MovieRepo, clk clock.Clock, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{movies: movies, clock: clk, log: logger.With("component", "seed")}
}

// Seed inserts every genre and movie of c in one transaction.  When any
// movie already exists nothing is written and Skipped is set.
func (s *Seeder) Seed(ctx context.Context, c *Catalog) (SeedResult, error) {
	n, err := s.movies.Count(ctx)
	if err != nil {
		return SeedResult{}, err
	}
	if n > 0 {
		s.log.Info("movies already present; skipping seed", "movies", n)
		return SeedResult{Skipped: true}, nil
	}

	tx, err := s.movies.DB().BeginTx(ctx, nil)
	if err != nil {
		return SeedResult{}, fmt.Errorf("begin seed: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, g := range c.Genres {
		if err := s.movies.SaveGenreTx(ctx, tx, model.Genre{ID: g.ID, Name: g.Name}); err != nil {
			return SeedResult{}, err
		}
	}
	now := s.clock.Now()
	for _, entry := range c.Movies {
		m := c.Model(entry, now)
		if err := s.movies.CreateTx(ctx, tx, &m); err != nil {
			return SeedResult{}, fmt.Errorf("seed %q: %w", m.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return SeedResult{}, fmt.Errorf("commit seed: %w", err)
	}
	committed = true

	res := SeedResult{Genres: len(c.Genres), Movies: len(c.Movies)}
	s.log.Info("seeded catalog", "genres", res.Genres, "movies", res.Movies)
	return res, nil
}
