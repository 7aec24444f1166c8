package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/crawler/internal/mirror"
)

func testFetcher() *mirror.Fetcher {
	return mirror.NewFetcher("", mirror.RetryPolicy{MaxRetries: 2, RetryDelay: time.Millisecond}, nil, nil)
}

func TestMCPRegistryPaginatesWithCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v0/servers", r.URL.Path)
		switch r.URL.Query().Get("cursor") {
		case "":
			w.Write([]byte(`{
				"servers": [{"name": "alpha", "description": "first", "version": "1.0.0",
					"repository": {"url": "https://github.com/a/alpha", "source": "github"}}],
				"metadata": {"nextCursor": "page-2"}
			}`))
		case "page-2":
			w.Write([]byte(`{
				"servers": [{"server": {"name": "beta", "version": "0.2.0"}}],
				"metadata": {}
			}`))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	src := NewMCPRegistry(srv.URL, testFetcher())
	ctx := context.Background()

	first, err := src.FetchPage(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Len(t, first.Entries, 1)
	assert.Equal(t, "alpha", first.Entries[0].Name)
	assert.Equal(t, "https://github.com/a/alpha", first.Entries[0].Repository.URL)
	assert.Equal(t, SourceNameMCPRegistry, first.Entries[0].Source)
	assert.False(t, first.Entries[0].CrawledAt.IsZero())
	assert.Equal(t, "page-2", first.NextCursor)

	// Second page wraps items in a server envelope
	second, err := src.FetchPage(ctx, first.NextCursor)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, "beta", second.Entries[0].Name)
	assert.Equal(t, "0.2.0", second.Entries[0].Version)
	assert.Empty(t, second.NextCursor)
}

func TestMCPRegistrySnakeCaseCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"servers": [{"name": "x"}], "metadata": {"next_cursor": "abc"}}`))
	}))
	defer srv.Close()

	page, err := NewMCPRegistry(srv.URL, testFetcher()).FetchPage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "abc", page.NextCursor)
}

func TestMCPRegistryEndOfData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"servers": [], "metadata": {}}`))
	}))
	defer srv.Close()

	page, err := NewMCPRegistry(srv.URL, testFetcher()).FetchPage(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestMCPRegistryEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	page, err := NewMCPRegistry(srv.URL, testFetcher()).FetchPage(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, page)
}
