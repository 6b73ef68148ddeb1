// Command maintenance runs one maintenance pass: archive every showtime
// that has started, then reconcile the scheduling window.  It is meant to
// be run from cron; a non-zero exit means the pass was rolled back.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/iliyamo/cinema-showtimes/internal/app"
	"github.com/iliyamo/cinema-showtimes/internal/config"
	"github.com/iliyamo/cinema-showtimes/internal/service"
)

func main() {
	cfg := config.Load()

	days := pflag.Int("days", cfg.Schedule.WindowDays, "dates to keep scheduled, today included")
	lockTTL := pflag.Duration("lock-ttl", cfg.Schedule.LockTTL, "lifetime of the maintenance lock")
	pflag.Parse()

	cfg.Schedule.WindowDays = *days
	cfg.Schedule.LockTTL = *lockTTL
	logger := cfg.Logger().With("cmd", "maintenance")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "maintenance:", err)
		os.Exit(1)
	}
	res, err := a.Scheduler.RunMaintenance(ctx)
	_ = a.Close()
	if errors.Is(err, service.ErrMaintenanceLocked) {
		logger.Warn("another pass holds the lock; nothing done")
		os.Exit(1)
	}
	if err != nil {
		logger.Error("maintenance failed", "err", err)
		os.Exit(1)
	}
	logger.Info("maintenance done",
		"now", res.Now,
		"swept", res.Swept,
		"movies", res.Reconcile.Movies,
		"days", res.Reconcile.Days,
		"archived", res.Reconcile.Archived,
		"inserted", res.Reconcile.Inserted,
	)
}
