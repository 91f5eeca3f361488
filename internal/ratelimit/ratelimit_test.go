package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreSlidingWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	s := NewInMemoryStore()
	s.now = func() time.Time { return now }

	for i := range 3 {
		res, err := s.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := s.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	other, err := s.Allow(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute + time.Second)
	res, err = s.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("redis down")
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	call := func(h http.Handler, method, ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, "/v1/schemas", nil)
		r.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	t.Run("writes and reads have separate allowances", func(t *testing.T) {
		h := New(NewInMemoryStore(), logger, WithLimits(Limits{Read: 2, Write: 1, Window: time.Minute})).Handler(ok)

		w := call(h, http.MethodPost, "10.0.0.1")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

		w = call(h, http.MethodPost, "10.0.0.1")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

		assert.Equal(t, http.StatusNoContent, call(h, http.MethodGet, "10.0.0.1").Code)
		assert.Equal(t, http.StatusNoContent, call(h, http.MethodPost, "10.0.0.2").Code)
	})

	t.Run("store failure fails open", func(t *testing.T) {
		h := New(failingStore{}, logger).Handler(ok)
		assert.Equal(t, http.StatusNoContent, call(h, http.MethodPost, "10.0.0.1").Code)
	})

	t.Run("disabled", func(t *testing.T) {
		h := New(NewInMemoryStore(), logger, WithDisabled(true), WithLimits(Limits{Window: time.Minute})).Handler(ok)
		assert.Equal(t, http.StatusNoContent, call(h, http.MethodPost, "10.0.0.1").Code)
	})
}
