package fetcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxRetries: 2,
		Timeout:    2 * time.Second,
		Backoff:    20 * time.Millisecond,
		MinBytes:   16,
	}
}

func imageBody() []byte {
	return bytes.Repeat([]byte{0xff}, 64)
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(imageBody())
	}))
	defer srv.Close()

	got, err := New(testConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, imageBody(), got)
}

func TestFetchRetriesTransientErrorsWithMonotonicBackoff(t *testing.T) {
	var mu sync.Mutex
	var arrivals []time.Time

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		n := len(arrivals)
		mu.Unlock()

		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(imageBody())
	}))
	defer srv.Close()

	got, err := New(testConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, imageBody(), got)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, 3)
	firstGap := arrivals[1].Sub(arrivals[0])
	secondGap := arrivals[2].Sub(arrivals[1])
	assert.GreaterOrEqual(t, secondGap+5*time.Millisecond, firstGap,
		"backoff delays must be non-decreasing")
}

func TestFetchFailsAfterRetryExhaustion(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(testConfig()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, srv.URL, fetchErr.URL)
	assert.Equal(t, 3, requests, "initial attempt plus two retries")
}

func TestFetchRejectsHTMLPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>maintenance</body></html>"))
	}))
	defer srv.Close()

	_, err := New(testConfig()).Fetch(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestFetchRejectsTinyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff})
	}))
	defer srv.Close()

	_, err := New(testConfig()).Fetch(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(testConfig()).Fetch(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 1, requests)
}

func TestLinearBackoffMonotonic(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second
	prev := time.Duration(0)
	for attempt := 0; attempt < 10; attempt++ {
		wait := linearBackoff(base, max, attempt, nil)
		assert.GreaterOrEqual(t, wait, prev)
		assert.LessOrEqual(t, wait, max)
		prev = wait
	}
}
