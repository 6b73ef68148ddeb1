// Package app wires configuration, storage and services together for the
// commands under cmd/.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-showtimes/internal/clock"
	"github.com/iliyamo/cinema-showtimes/internal/config"
	"github.com/iliyamo/cinema-showtimes/internal/database"
	"github.com/iliyamo/cinema-showtimes/internal/queue"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
	"github.com/iliyamo/cinema-showtimes/internal/seatmap"
	"github.com/iliyamo/cinema-showtimes/internal/service"
)

// App holds the process-wide dependencies.
type App struct {
	Config config.Config
	Log    *slog.Logger
	DB     *sql.DB
	Redis  *redis.Client // nil when Redis is disabled or unreachable
	Clock  clock.Clock

	Movies    *repository.MovieRepo
	Showtimes *repository.ShowtimeRepo
	Bookings  *repository.BookingRepo

	Seats     *seatmap.Map
	Scheduler *service.Scheduler
	Booking   *service.BookingService
	Catalog   *service.CatalogService
	Publisher *queue.Publisher // nil when AMQPURL is empty
}

// New opens the database, applies the schema and builds the services.
// The caller must Close the returned App.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	venue, err := cfg.Schedule.Venue()
	if err != nil {
		return nil, err
	}
	sched := service.ScheduleConfig{
		Venue:      venue,
		Policy:     schedule.DefaultPolicy(),
		StartHour:  cfg.Schedule.StartHour,
		WindowDays: cfg.Schedule.WindowDays,
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Log:       logger,
		DB:        db,
		Clock:     clock.Real(),
		Movies:    repository.NewMovieRepo(db),
		Showtimes: repository.NewShowtimeRepo(db),
		Bookings:  repository.NewBookingRepo(db),
		Seats:     seatmap.Default(),
	}
	a.Scheduler = service.NewScheduler(a.Movies, a.Showtimes, sched, a.Clock, logger)
	a.Booking = service.NewBookingService(a.Movies, a.Showtimes, a.Bookings, venue, a.Clock, logger)
	a.Booking.RestrictSeats(a.Seats)
	a.Catalog = service.NewCatalogService(a.Movies, a.Showtimes, a.Bookings, a.Seats, sched, a.Clock, logger)

	if cfg.AMQPURL != "" {
		a.Publisher = queue.NewPublisher(cfg.AMQPURL, logger)
		a.Booking.PublishTo(a.Publisher)
	}

	a.Redis = config.NewRedisClient()
	if a.Redis == nil {
		logger.Warn("redis unavailable; cache, rate limit and maintenance lock disabled")
	} else {
		a.Scheduler.UseLock(service.NewRedisLocker(a.Redis), cfg.Schedule.LockKey, cfg.Schedule.LockTTL)
	}
	return a, nil
}

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg config.Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case database.MySQL:
		return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	case database.SQLite:
		return database.OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return a.DB.Close()
}
