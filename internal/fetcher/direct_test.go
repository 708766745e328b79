package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-analyze-go/internal/testutil"
)

func TestDirectFetcher_FetchesPage(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		gotUA = r.UserAgent()
		gotQuery = r.URL.RawQuery
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	d := NewDirectFetcher("test-agent", 0, WithBaseURL(srv.URL+"/citations"), WithDirectLogger(testutil.NewTestLogger(t)))
	html, err := d.FetchScholarPage(context.Background(), "abcdefghijkl", 100, 100)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)
	assert.Equal(t, "test-agent", gotUA)
	assert.Contains(t, gotQuery, "cstart=100")
	assert.Contains(t, gotQuery, "user=abcdefghijkl")
}

func TestDirectFetcher_RespectsRobots(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /citations\n"))
			return
		}
		hits.Add(1)
	}))
	defer srv.Close()

	d := NewDirectFetcher("test-agent", 0, WithBaseURL(srv.URL+"/citations"))
	_, err := d.FetchScholarPage(context.Background(), "abcdefghijkl", 0, 100)
	require.ErrorIs(t, err, ErrBlockedByRobots)
	assert.Zero(t, hits.Load())
}

func TestDirectFetcher_RetriesOnTooManyRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("<html>second</html>"))
	}))
	defer srv.Close()

	d := NewDirectFetcher("test-agent", 0, WithBaseURL(srv.URL+"/citations"))
	html, err := d.FetchScholarPage(context.Background(), "abcdefghijkl", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "<html>second</html>", html)
	assert.EqualValues(t, 2, hits.Load())
}

func TestDirectFetcher_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDirectFetcher("", 0, WithBaseURL(srv.URL+"/citations"))
	_, err := d.FetchScholarPage(context.Background(), "abcdefghijkl", 0, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFirecrawlFetcher(t *testing.T) {
	var got firecrawlRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"html":"<html>scraped</html>"}}`))
	}))
	defer srv.Close()

	f := NewFirecrawlFetcher("fc-key", srv.URL, testutil.NewTestLogger(t))
	html, err := f.FetchScholarPage(context.Background(), "abcdefghijkl", 200, 50)
	require.NoError(t, err)
	assert.Equal(t, "<html>scraped</html>", html)
	assert.Equal(t, "Bearer fc-key", auth)
	assert.Equal(t, []string{"html"}, got.Formats)
	assert.Contains(t, got.URL, "cstart=200")
	assert.Contains(t, got.URL, "pagesize=50")
}

func TestFirecrawlFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", http.StatusPaymentRequired, `{"success":false}`, "status 402"},
		{"unsuccessful", http.StatusOK, `{"success":false,"error":"quota"}`, "quota"},
		{"empty html", http.StatusOK, `{"success":true,"data":{"html":""}}`, "empty HTML"},
		{"bad json", http.StatusOK, `not json`, "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewFirecrawlFetcher("k", srv.URL, nil).FetchScholarPage(context.Background(), "abcdefghijkl", 0, 100)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
