// Package router registers the HTTP routes of the API.
package router

import (
	"database/sql"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-showtimes/internal/config"
	"github.com/iliyamo/cinema-showtimes/internal/handler"
	"github.com/iliyamo/cinema-showtimes/internal/middleware"
)

// Deps is what the routes need.  Redis may be nil, which disables the
// response cache and the booking rate limit.
type Deps struct {
	DB        *sql.DB
	Public    *handler.PublicHandler
	Booking   *handler.BookingHandler
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       *slog.Logger
}

// New returns an Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(requestLogger(d.Log))

	RegisterRoutes(e, d.DB)
	RegisterPublic(e, d.Public, middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	RegisterBooking(e, d.Booking, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	return e
}

// RegisterRoutes registers the health endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterPublic registers the browse endpoints.  Catalog reads go
// through cache; the seat chart reflects live occupancy and does not.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/movies", p.ListMovies, cache)
	g.GET("/movies/:id", p.GetMovie, cache)
	g.GET("/movies/:id/showtimes", p.ListShowtimes)
	g.GET("/seatmap", p.SeatMap, cache)
	g.GET("/showtimes/:id/seats", p.SeatChart)
}

// RegisterBooking registers the booking endpoint behind the rate limit.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, limit echo.MiddlewareFunc) {
	e.POST("/v1/showtimes/:id/bookings", b.Create, limit)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "http")
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,

		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				log.Error("request", append(attrs, "err", v.Error)...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	})
}
