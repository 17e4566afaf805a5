package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  2,
	}
}

func newBreaker(name string) *CircuitBreakerClient {
	return NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig(name), testLogger())
}

func send(t *testing.T, cb *CircuitBreakerClient, method, url, body string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	return cb.Do(context.Background(), req)
}

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("processor down"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cb := newBreaker("trip-test")

	for i := 0; i < 2; i++ {
		_, err := send(t, cb, http.MethodGet, server.URL, "")
		var srvErr *ServerError
		require.ErrorAs(t, err, &srvErr)
		assert.Equal(t, http.StatusInternalServerError, srvErr.Status)
		assert.Contains(t, srvErr.Body, "processor down")
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := send(t, cb, http.MethodGet, server.URL, "")
	assert.ErrorIs(t, err, ErrCircuitOpen)

	healthy.Store(true)
	time.Sleep(80 * time.Millisecond)

	resp, err := send(t, cb, http.MethodGet, server.URL, "")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_4xxIsNotAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	cb := newBreaker("4xx-test")
	for i := 0; i < 4; i++ {
		resp, err := send(t, cb, http.MethodPost, server.URL, `{}`)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_RejectionIsCounted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cb := newBreaker("reject-test")
	for i := 0; i < 2; i++ {
		_, _ = send(t, cb, http.MethodGet, server.URL, "")
	}

	before := testutil.ToFloat64(breakerRejected.WithLabelValues("reject-test"))
	_, err := send(t, cb, http.MethodGet, server.URL, "")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Contains(t, err.Error(), "reject-test")
	assert.Equal(t, before+1, testutil.ToFloat64(breakerRejected.WithLabelValues("reject-test")))
	assert.Equal(t, float64(2), testutil.ToFloat64(breakerState.WithLabelValues("reject-test")))
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("payment")
	assert.Equal(t, "payment", cfg.Name)
	assert.Equal(t, 0.5, cfg.FailureRatio)
	assert.Equal(t, uint32(5), cfg.MinRequests)
}
