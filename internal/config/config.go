package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cinema-showtimes/internal/database"
	"github.com/iliyamo/cinema-showtimes/internal/schedule"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBDriver   database.Dialect // "mysql" or "sqlite"
	DBUser     string           // database username
	DBPass     string           // database password (optional)
	DBHost     string           // database host address
	DBPort     string           // database port number
	DBName     string           // database name
	SQLitePath string           // database file when DBDriver is sqlite

	AMQPURL        string // RabbitMQ URL; empty disables booking events
	BookingLogPath string // file the booking consumer appends to

	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json

	Schedule ScheduleConfig
}

// ScheduleConfig is the raw schedule settings.  Use Venue and Policy to
// turn them into schedule values.
type ScheduleConfig struct {
	UTCOffset  string        // venue offset, e.g. "+07:00"
	StartHour  int           // local hour of the first show
	WindowDays int           // dates kept scheduled ahead, today included
	LockTTL    time.Duration // maintenance lock lifetime
	LockKey    string        // redis key of the maintenance lock
}

// Load reads configuration from the environment, after loading a .env
// file from the working directory when one exists.  Required variables
// are enforced by must() and missing values cause the program to exit
// with a fatal log message.
func Load() Config {
	LoadDotEnv()

	cfg := Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("APP_PORT", "8080"),
		DBDriver:       database.Dialect(strings.ToLower(getenv("DB_DRIVER", string(database.MySQL)))),
		AMQPURL:        amqpURL(),
		BookingLogPath: getenv("BOOKING_LOG_PATH", "logs/booking.log"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
		Schedule:       LoadScheduleConfig(),
	}
	switch cfg.DBDriver {
	case database.MySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case database.SQLite:
		cfg.SQLitePath = getenv("SQLITE_PATH", "cinema.db")
	default:
		log.Fatalf("invalid DB_DRIVER %q: want mysql or sqlite", cfg.DBDriver)
	}
	return cfg
}

// LoadDotEnv loads .env into the environment without overriding
// variables that are already set.  A missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
}

// LoadScheduleConfig reads the SCHEDULE_* variables.
func LoadScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		UTCOffset:  envStr("SCHEDULE_UTC_OFFSET", "+07:00"),
		StartHour:  envInt("SCHEDULE_START_HOUR", 7),
		WindowDays: envInt("SCHEDULE_WINDOW_DAYS", 3),
		LockTTL:    envDur("SCHEDULE_LOCK_TTL", 5*time.Minute),
		LockKey:    envStr("SCHEDULE_LOCK_KEY", "cinema:maintenance"),
	}
}

// Venue parses UTCOffset.  An unparsable offset is an error; it never
// falls back to UTC.
func (c ScheduleConfig) Venue() (schedule.Venue, error) {
	loc, err := schedule.ParseOffset(c.UTCOffset)
	if err != nil {
		return schedule.Venue{}, fmt.Errorf("SCHEDULE_UTC_OFFSET: %w", err)
	}
	return schedule.NewVenue(loc), nil
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) Logger() *slog.Logger {
	return NewLogger(c.LogLevel, c.LogFormat)
}

// NewLogger returns a slog logger writing to stderr.  format "json"
// selects the JSON handler; anything else is text.
func NewLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
