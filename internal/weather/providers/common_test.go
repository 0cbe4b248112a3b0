package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-analysis/internal/weather"
)

var fastBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

func statusSequence(t *testing.T, codes ...int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		code := codes[len(codes)-1]
		if int(n) <= len(codes) {
			code = codes[n-1]
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func doGet(srv *httptest.Server) (*http.Response, error) {
	cfg := HTTPClientConfig{Client: srv.Client(), Backoff: fastBackoff}
	return doRequestWithResilience(context.Background(), cfg, newCircuitBreaker("test"), func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	})
}

func TestDoRequestWithResilience_RetriesRateLimit(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK)

	resp, err := doGet(srv)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestDoRequestWithResilience_GivesUpOnServerErrors(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusBadGateway)

	_, err := doGet(srv)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(fastBackoff.MaxRetries+1), atomic.LoadInt32(calls))
}

func TestDoRequestWithResilience_ClientErrorNotRetried(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusBadRequest)

	_, err := doGet(srv)
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestDoRequestWithResilience_Config(t *testing.T) {
	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost", nil)
	}

	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{Backoff: fastBackoff}, newCircuitBreaker("test"), build)
	assert.ErrorIs(t, err, errNoHTTPClient)

	_, err = doRequestWithResilience(context.Background(), HTTPClientConfig{Client: http.DefaultClient}, newCircuitBreaker("test"), build)
	assert.ErrorIs(t, err, errInvalidConfig)
}

func TestUnavailableWrapsSentinel(t *testing.T) {
	err := unavailable("nasapower", errRateLimited)
	assert.ErrorIs(t, err, weather.ErrDataSourceUnavailable)
	assert.Contains(t, err.Error(), "nasapower")
	assert.Contains(t, err.Error(), "rate limited")
}

func day(s string) weather.Date {
	d, err := weather.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestHistoryWindow(t *testing.T) {
	start, end := historyWindow(day("2024-03-09"), 1)
	assert.Equal(t, "2023-03-10", start.String())
	assert.Equal(t, "2024-03-09", end.String())

	start, _ = historyWindow(day("2024-01-04"), 3)
	assert.Equal(t, "2021-01-05", start.String())
}

func TestNormalizeSeries(t *testing.T) {
	in := []weather.ObservationRecord{
		{Date: day("2024-01-04"), Temperature: weather.Value(4), Precipitation: weather.Value(0), WindSpeed: weather.Value(1)},
		{Date: day("2024-01-01"), Temperature: weather.Value(1), Precipitation: weather.Value(0), WindSpeed: weather.Value(1)},
		{Date: day("2024-01-01"), Temperature: weather.Value(99), Precipitation: weather.Value(0), WindSpeed: weather.Value(1)},
		{Date: day("2024-01-02"), Temperature: weather.Value(2), Precipitation: weather.Missing(), WindSpeed: weather.Value(1)},
	}

	out := normalizeSeries(in)
	require.Len(t, out, 4)

	dates := make([]string, len(out))
	for i, r := range out {
		dates[i] = r.Date.String()
	}
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}, dates)

	v, _ := out[0].Temperature.Get()
	assert.Equal(t, 1.0, v)
	assert.False(t, out[1].Precipitation.Valid())
	assert.False(t, out[2].Temperature.Valid())
	assert.False(t, out[2].Precipitation.Valid())
	assert.False(t, out[2].WindSpeed.Valid())

	assert.Nil(t, normalizeSeries(nil))
}
