package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtimes/internal/config"
)

func newContext(method, target, route string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(route)
	return c
}

func TestBuildRateKey(t *testing.T) {
	c := newContext(http.MethodPost, "/v1/showtimes/5/bookings", "/v1/showtimes/:id/bookings")

	cases := map[string]string{
		"ip":       "rl:ip:203.0.113.9",
		"route":    "rl:route:POST /v1/showtimes/:id/bookings",
		"ip_path":  "rl:ip:203.0.113.9:path:POST /v1/showtimes/5/bookings",
		"ip_route": "rl:ip:203.0.113.9:route:POST /v1/showtimes/:id/bookings",
		"":         "rl:ip:203.0.113.9:route:POST /v1/showtimes/:id/bookings",
	}
	for strategy, want := range cases {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}
}

func TestParseBucketResult(t *testing.T) {
	allowed, remaining, retry, ok := parseBucketResult([]any{int64(1), int64(4), int64(0)})
	require.True(t, ok)
	assert.True(t, allowed)
	assert.Equal(t, int64(4), remaining)
	assert.Zero(t, retry)

	allowed, _, retry, ok = parseBucketResult([]any{int64(0), int64(0), int64(1500)})
	require.True(t, ok)
	assert.False(t, allowed)
	assert.Equal(t, 2, retryAfterSeconds(retry))

	_, _, _, ok = parseBucketResult("nope")
	assert.False(t, ok)
	assert.Zero(t, retryAfterSeconds(-5))
}

func TestCacheKey_DistinguishesPaths(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	a := cacheKeyFrom(cfg, newContext(http.MethodGet, "/v1/movies/1", "/v1/movies/:id"))
	b := cacheKeyFrom(cfg, newContext(http.MethodGet, "/v1/movies/2", "/v1/movies/:id"))
	a2 := cacheKeyFrom(cfg, newContext(http.MethodGet, "/v1/movies/1", "/v1/movies/:id"))
	q := cacheKeyFrom(cfg, newContext(http.MethodGet, "/v1/movies/1?x=1", "/v1/movies/:id"))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, q)
	assert.Equal(t, a, a2)
	assert.Regexp(t, `^cache:[0-9a-f]{40}$`, a)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
	_, _, _, ok = decodePayload(append([]byte{0, 0, 0, 200, 0, 0, 1, 0}, 'x'))
	assert.False(t, ok, "header length past end")
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	called := 0
	next := func(c echo.Context) error { called++; return nil }
	c := newContext(http.MethodGet, "/", "/")

	require.NoError(t, NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil)(next)(c))
	require.NoError(t, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil)(next)(c))
	assert.Equal(t, 2, called)
}

func TestCaptureWriter_Limit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(6), cw.size)
	assert.Equal(t, "abcdef", rec.Body.String())
}
