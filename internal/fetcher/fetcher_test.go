package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mwatts/pricewatch/internal/fetcher"
)

const testUserAgent = "pricewatch-test/1.0"

func newTestFetcher(t *testing.T, timeout time.Duration) *fetcher.Colly {
	t.Helper()
	return fetcher.NewColly(fetcher.Config{
		UserAgent: testUserAgent,
		Timeout:   timeout,
	}, zaptest.NewLogger(t))
}

func TestFetchSuccess(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><span class=\"price\">99900</span></html>"))
	}))
	defer server.Close()

	f := newTestFetcher(t, 5*time.Second)
	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(page.Body), "99900")
	assert.Equal(t, server.URL, page.URL)
	assert.Equal(t, testUserAgent, gotUA)
}

func TestFetchHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := newTestFetcher(t, 5*time.Second)
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetcher.ReasonHTTPStatus, fetchErr.Reason)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	url := server.URL
	server.Close()

	f := newTestFetcher(t, 2*time.Second)
	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetcher.ReasonNetwork, fetchErr.Reason)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	f := newTestFetcher(t, 100*time.Millisecond)
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetcher.ReasonTimeout, fetchErr.Reason)
}

func TestFetchRepeatedURL(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	// The same source page is fetched on every run; revisits must work.
	f := newTestFetcher(t, 5*time.Second)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, hits)
}
