package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/clock"
	"github.com/iliyamo/cinema-showtimes/internal/model"
	"github.com/iliyamo/cinema-showtimes/internal/repository"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
)

// ScheduleConfig is everything the generator needs to know about the
// venue.  It is passed in explicitly; nothing is read from globals.
type ScheduleConfig struct {
	Venue      schedule.Venue
	Policy     schedule.Policy
	StartHour  int // local hour of the first show of the day
	WindowDays int // dates maintained ahead, today included
}

// Validate rejects configurations whose last show would spill onto the
// next date; such a slot would be archived as drift by the next day's
// pass and recreated by this one forever.
func (c ScheduleConfig) Validate() error {
	if c.Venue.Location() == nil {
		return errors.New("schedule: venue location is required")
	}
	if c.StartHour < 0 || c.StartHour > 23 {
		return fmt.Errorf("schedule: start hour %d out of range", c.StartHour)
	}
	if c.WindowDays < 1 {
		return fmt.Errorf("schedule: window of %d days", c.WindowDays)
	}
	for name, cad := range map[string]schedule.Cadence{"even": c.Policy.Even, "odd": c.Policy.Odd} {
		if cad.Slots < 1 || cad.Interval < time.Hour || cad.Interval%time.Hour != 0 {
			return fmt.Errorf("schedule: %s cadence %d x %s is not whole hours", name, cad.Slots, cad.Interval)
		}
		last := time.Duration(c.StartHour)*time.Hour + time.Duration(cad.Slots-1)*cad.Interval
		if last >= 24*time.Hour {
			return fmt.Errorf("schedule: %s cadence runs past midnight (last show at +%s)", name, last)
		}
	}
	return nil
}

// ReconcileResult counts what one reconcile pass did.
type ReconcileResult struct {
	Movies   int   `json:"movies"`
	Days     int   `json:"days"`
	Archived int64 `json:"archived"`
	Inserted int   `json:"inserted"`
}

// MaintenanceResult reports a sweep followed by a reconcile.
type MaintenanceResult struct {
	Now       time.Time       `json:"now"`
	Swept     int64           `json:"swept"`
	Reconcile ReconcileResult `json:"reconcile"`
}

// Scheduler keeps the rolling window of showtimes in shape: it archives
// past showtimes and reconciles each movie's active showtimes against
// its cadence.
type Scheduler struct {
	movies    *repository.MovieRepo
	showtimes *repository.ShowtimeRepo
	cfg       ScheduleConfig
	clock     clock.Clock
	log       *slog.Logger

	locker  Locker
	lockKey string
	lockTTL time.Duration
}

// NewScheduler wires a Scheduler.  cfg must pass Validate.
func NewScheduler(movies *repository.MovieRepo, showtimes *repository.ShowtimeRepo, cfg ScheduleConfig, clk clock.Clock, logger *slog.Logger) *Scheduler {
	if movies == nil || showtimes == nil || clk == nil {
		panic("nil dependency passed to NewScheduler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		movies:    movies,
		showtimes: showtimes,
		cfg:       cfg,
		clock:     clk,
		log:       logger.With("component", "scheduler"),
	}
}

// UseLock makes RunMaintenance hold key through l for the length of a
// pass.  ttl bounds how long a crashed pass can block the next one.
func (s *Scheduler) UseLock(l Locker, key string, ttl time.Duration) {
	s.locker, s.lockKey, s.lockTTL = l, key, ttl
}

// Config returns the schedule configuration.
func (s *Scheduler) Config() ScheduleConfig { return s.cfg }

// ArchivePast archives every active showtime that started strictly
// before now and returns how many were archived.  It commits on its own.
func (s *Scheduler) ArchivePast(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.showtimes.ArchiveBefore(ctx, now)
	if err != nil {
		return 0, storageErr("archive past showtimes", err)
	}
	s.log.Info("archived past showtimes", "now", now.UTC(), "count", n)
	return n, nil
}

// Reconcile brings every movie's active showtimes for the days venue
// dates starting at now in line with the cadence.  Drifted and duplicate
// showtimes are archived and missing future slots inserted.  All reads
// and writes share one transaction: on any error nothing is committed.
// days <= 0 uses the configured window.
func (s *Scheduler) Reconcile(ctx context.Context, now time.Time, days int) (ReconcileResult, error) {
	if days <= 0 {
		days = s.cfg.WindowDays
	}
	res := ReconcileResult{Days: days}

	tx, err := s.showtimes.DB().BeginTx(ctx, nil)
	if err != nil {
		return ReconcileResult{}, storageErr("begin reconcile", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	movies, err := s.movies.ListTx(ctx, tx)
	if err != nil {
		return ReconcileResult{}, storageErr("list movies", err)
	}
	res.Movies = len(movies)

	dates := s.cfg.Venue.Days(now, days)
	for i := range movies {
		for _, day := range dates {
			archived, inserted, err := s.reconcileDay(ctx, tx, &movies[i], day, now)
			if err != nil {
				return ReconcileResult{}, err
			}
			res.Archived += archived
			res.Inserted += inserted
		}
	}

	if err := tx.Commit(); err != nil {
		return ReconcileResult{}, storageErr("commit reconcile", err)
	}
	committed = true

	s.log.Info("reconciled schedule",
		"movies", res.Movies, "days", res.Days, "archived", res.Archived, "inserted", res.Inserted)
	return res, nil
}

func (s *Scheduler) reconcileDay(ctx context.Context, tx *sql.Tx, m *model.Movie, day, now time.Time) (int64, int, error) {
	from, to := s.cfg.Venue.DayBounds(day)
	expected := schedule.ExpectedSlots(s.cfg.Venue, s.cfg.Policy, m.StudioNumber, s.cfg.StartHour, day)

	existing, err := s.showtimes.ListActiveInRangeTx(ctx, tx, m.ID, from, to)
	if err != nil {
		return 0, 0, storageErr(fmt.Sprintf("list showtimes movie %d", m.ID), err)
	}

	plan := schedule.Diff(expected, existing, now)
	if plan.Empty() {
		return 0, 0, nil
	}

	archived, err := s.showtimes.ArchiveTx(ctx, tx, plan.Archive)
	if err != nil {
		return 0, 0, storageErr(fmt.Sprintf("archive drift movie %d", m.ID), err)
	}
	for _, at := range plan.Insert {
		st := model.Showtime{MovieID: m.ID, StartsAt: at, CreatedAt: now}
		if err := s.showtimes.CreateTx(ctx, tx, &st); err != nil {
			return 0, 0, storageErr(fmt.Sprintf("insert showtime movie %d", m.ID), err)
		}
	}
	s.log.Debug("reconciled day",
		"movie_id", m.ID, "studio", m.StudioNumber, "date", day.Format(time.DateOnly),
		"archived", archived, "inserted", len(plan.Insert))
	return archived, len(plan.Insert), nil
}

// RunMaintenance reads now from the clock, archives past showtimes and
// then reconciles the configured window.  The sweep commits before the
// reconcile reads.  With a lock configured, a pass that finds the lock
// held returns ErrMaintenanceLocked without touching storage.
func (s *Scheduler) RunMaintenance(ctx context.Context) (MaintenanceResult, error) {
	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, s.lockKey, s.lockTTL)
		if err != nil {
			return MaintenanceResult{}, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("release maintenance lock", "err", err)
			}
		}()
	}

	now := s.clock.Now().UTC()
	swept, err := s.ArchivePast(ctx, now)
	if err != nil {
		return MaintenanceResult{}, err
	}
	rec, err := s.Reconcile(ctx, now, s.cfg.WindowDays)
	if err != nil {
		return MaintenanceResult{}, err
	}
	return MaintenanceResult{Now: now, Swept: swept, Reconcile: rec}, nil
}
