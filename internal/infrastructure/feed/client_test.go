package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/simplespend/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	c := NewClient(6000)
	c.baseBackoff = time.Millisecond
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient(0)

	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.Equal(t, "SimpleSpend/1.0", client.userAgent)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(500*time.Millisecond, tt.attempt))
		})
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exports/shop.json", r.URL.Path)
		assert.Equal(t, "SimpleSpend/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"brands":[]}`))
	}))
	defer server.Close()

	body, err := newTestClient().Fetch(context.Background(), server.URL+"/exports/shop.json")

	require.NoError(t, err)
	assert.JSONEq(t, `{"brands":[]}`, string(body))
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	body, err := newTestClient().Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient().Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&calls))
}

func TestFetch_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient().Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient().Fetch(ctx, server.URL)
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"brands":[]}`), 0o600))

	source := NewFileSource(path)
	assert.Equal(t, "store.json", source.Name())

	data, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"brands":[]}`, string(data))

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}

func TestNewSources(t *testing.T) {
	client := newTestClient()
	sources := NewSources([]string{"https://feeds.example.com/a.json", " ", "./data/b.json"}, client)

	require.Len(t, sources, 2)
	assert.IsType(t, &HTTPSource{}, sources[0])
	assert.Equal(t, "feeds.example.com/a.json", sources[0].Name())
	assert.IsType(t, &FileSource{}, sources[1])
	assert.Equal(t, "b.json", sources[1].Name())
}
