// Command seed creates the schema, loads the movie catalog into an empty
// database and runs one maintenance pass so showtimes exist right away.
//
//	seed                      embedded catalog
//	seed --catalog movies.yaml
//	seed --reset              drop every table first
package main

import (
	"context"
	"log"

	"github.com/spf13/pflag"

	"github.com/iliyamo/cinema-showtimes/internal/app"
	"github.com/iliyamo/cinema-showtimes/internal/catalog"
	"github.com/iliyamo/cinema-showtimes/internal/config"
	"github.com/iliyamo/cinema-showtimes/internal/database"
)

func main() {
	path := pflag.String("catalog", "", "catalog YAML file (default: embedded catalog)")
	reset := pflag.Bool("reset", false, "drop and recreate every table before seeding")
	pflag.Parse()

	cfg := config.Load()
	logger := cfg.Logger().With("cmd", "seed")
	ctx := context.Background()

	c, err := loadCatalog(*path)
	if err != nil {
		log.Fatal(err)
	}

	if *reset {
		db, err := app.Open(cfg)
		if err != nil {
			log.Fatal(err)
		}
		err = database.Reset(ctx, db, cfg.DBDriver)
		_ = db.Close()
		if err != nil {
			log.Fatal(err)
		}
		logger.Info("tables dropped and recreated")
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	res, err := catalog.NewSeeder(a.Movies, a.Clock, logger).Seed(ctx, c)
	if err != nil {
		log.Fatal(err)
	}
	if !res.Skipped {
		logger.Info("catalog seeded", "genres", res.Genres, "movies", res.Movies)
	}

	m, err := a.Scheduler.RunMaintenance(ctx)
	if err != nil {
		log.Fatal(err)
	}
	logger.Info("showtimes scheduled", "swept", m.Swept, "archived", m.Reconcile.Archived, "inserted", m.Reconcile.Inserted)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}
