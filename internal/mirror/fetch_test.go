package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/crawler/pkg/model"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestFetchJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	var v any
	_, err := f.FetchJSON(context.Background(), srv.URL, &v)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCrawlExhausted)
	// The retry budget bounds total attempts, not retries after the first
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchJSONRateLimitExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	var v any
	_, err := f.FetchJSON(context.Background(), srv.URL, &v)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCrawlExhausted)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchJSONRecoversWithinBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	var v map[string]bool
	ok, err := f.FetchJSON(context.Background(), srv.URL, &v)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v["ok"])
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchJSONEmptyBodySentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	var v any
	ok, err := f.FetchJSON(context.Background(), srv.URL, &v)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchJSONNullBodySentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	var v any
	ok, err := f.FetchJSON(context.Background(), srv.URL, &v)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchJSONMalformedPayloadNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"name": "broken"`))
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	var v any
	_, err := f.FetchJSON(context.Background(), srv.URL, &v)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.NotErrorIs(t, err, ErrCrawlExhausted)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchJSONNotFoundNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	var v any
	_, err := f.FetchJSON(context.Background(), srv.URL, &v)

	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchJSONRetryDelayIsCancellable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := NewFetcher("", RetryPolicy{MaxRetries: 3, RetryDelay: time.Minute}, nil, nil)

	done := make(chan error, 1)
	go func() {
		var v any
		_, err := f.FetchJSON(ctx, srv.URL, &v)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not return after context cancellation")
	}
}

func TestFetcherSendsAuthHeaders(t *testing.T) {
	var gotAuth, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewFetcher("secret-token", testPolicy(), nil, nil)
	require.True(t, f.HasToken())

	var v []any
	_, err := f.FetchJSON(context.Background(), srv.URL, &v)
	require.NoError(t, err)
	assert.Equal(t, "token secret-token", gotAuth)
	assert.Equal(t, userAgent, gotAgent)
}

func TestFetchListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"type": "file", "name": "main.go", "path": "main.go", "size": 120, "download_url": "http://x/main.go"},
			{"type": "dir", "name": "utils", "path": "utils", "url": "http://x/utils"}
		]`))
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	entries, err := f.FetchListing(context.Background(), srv.URL)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.KindFile, entries[0].Kind)
	assert.EqualValues(t, 120, entries[0].SizeBytes)
	assert.Equal(t, model.KindDirectory, entries[1].Kind)
}

func TestFetchListingEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	entries, err := f.FetchListing(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestFetchBytesSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher("", testPolicy(), nil, nil)
	_, err := f.FetchBytes(context.Background(), srv.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 1, calls.Load())
}
