package handlers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alorle/asset-gateway/cache"
	"github.com/alorle/asset-gateway/fetcher"
	"github.com/alorle/asset-gateway/logging"
)

const testCacheName = "budget-tracker-v1"

func newTestLogger() *logging.Logger {
	return logging.NewWithWriter(logging.ERROR, "", &bytes.Buffer{})
}

// newCountingUpstream counts requests so tests can assert whether the
// network was touched at all
func newCountingUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newCachedStorage(t *testing.T, entries map[string]*cache.Entry) cache.Storage {
	t.Helper()
	storage, err := cache.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	if err := storage.PutAll(testCacheName, entries); err != nil {
		t.Fatalf("PutAll failed: %v", err)
	}
	return storage
}

func TestGatewayServesCachedAssetWithoutNetworkCall(t *testing.T) {
	upstream, calls := newCountingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("live"))
	})

	storage := newCachedStorage(t, map[string]*cache.Entry{
		"/manifest.json": {
			Status:   http.StatusOK,
			Header:   http.Header{"Content-Type": []string{"application/json"}},
			Body:     []byte(`{"name":"app"}`),
			StoredAt: time.Now(),
		},
	})

	handler := CreateGatewayHandler(GatewayDependencies{
		Logger:    newTestLogger(),
		Storage:   storage,
		Fetcher:   fetcher.New(5 * time.Second),
		CacheName: testCacheName,
		Origin:    upstream.URL,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/manifest.json", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != `{"name":"app"}` {
		t.Errorf("Body = %q, want cached payload", rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", rr.Header().Get("Content-Type"))
	}
	if calls.Load() != 0 {
		t.Errorf("Upstream was called %d times, want 0", calls.Load())
	}
}

func TestGatewayForwardsUncachedRequestExactlyOnce(t *testing.T) {
	upstream, calls := newCountingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("live content"))
	})

	storage := newCachedStorage(t, map[string]*cache.Entry{
		"/manifest.json": {Status: http.StatusOK, Body: []byte("{}"), StoredAt: time.Now()},
	})

	handler := CreateGatewayHandler(GatewayDependencies{
		Logger:    newTestLogger(),
		Storage:   storage,
		Fetcher:   fetcher.New(5 * time.Second),
		CacheName: testCacheName,
		Origin:    upstream.URL,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/not-cached", nil))

	if calls.Load() != 1 {
		t.Fatalf("Upstream was called %d times, want exactly 1", calls.Load())
	}
	// The upstream response must come back verbatim
	if rr.Code != http.StatusTeapot {
		t.Errorf("Status = %d, want 418", rr.Code)
	}
	if rr.Body.String() != "live content" {
		t.Errorf("Body = %q, want upstream payload", rr.Body.String())
	}
	if rr.Header().Get("X-Upstream") != "yes" {
		t.Errorf("Expected upstream headers to be relayed, got %v", rr.Header())
	}
}

func TestGatewayQueryStringDoesNotMatchCachedPath(t *testing.T) {
	upstream, calls := newCountingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("live"))
	})

	storage := newCachedStorage(t, map[string]*cache.Entry{
		"/": {Status: http.StatusOK, Body: []byte("cached"), StoredAt: time.Now()},
	})

	handler := CreateGatewayHandler(GatewayDependencies{
		Logger:    newTestLogger(),
		Storage:   storage,
		Fetcher:   fetcher.New(5 * time.Second),
		CacheName: testCacheName,
		Origin:    upstream.URL,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?page=2", nil))

	if calls.Load() != 1 {
		t.Errorf("Upstream was called %d times, want 1", calls.Load())
	}
	if rr.Body.String() != "live" {
		t.Errorf("Body = %q, want live", rr.Body.String())
	}
}

func TestGatewayDoesNotServeCacheForNonGET(t *testing.T) {
	upstream, calls := newCountingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	storage := newCachedStorage(t, map[string]*cache.Entry{
		"/": {Status: http.StatusOK, Body: []byte("cached"), StoredAt: time.Now()},
	})

	handler := CreateGatewayHandler(GatewayDependencies{
		Logger:    newTestLogger(),
		Storage:   storage,
		Fetcher:   fetcher.New(5 * time.Second),
		CacheName: testCacheName,
		Origin:    upstream.URL,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	if calls.Load() != 1 {
		t.Errorf("Upstream was called %d times, want 1", calls.Load())
	}
	if rr.Code != http.StatusAccepted {
		t.Errorf("Status = %d, want 202", rr.Code)
	}
}

func TestGatewayReturnsBadGatewayWhenUpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	storage := newCachedStorage(t, map[string]*cache.Entry{})

	handler := CreateGatewayHandler(GatewayDependencies{
		Logger:    newTestLogger(),
		Storage:   storage,
		Fetcher:   fetcher.New(1 * time.Second),
		CacheName: testCacheName,
		Origin:    upstream.URL,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anything", nil))

	if rr.Code != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", rr.Code)
	}
}

func TestGatewayCacheIsNeverUpdatedOnMiss(t *testing.T) {
	upstream, _ := newCountingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("live"))
	})

	storage := newCachedStorage(t, map[string]*cache.Entry{})

	handler := CreateGatewayHandler(GatewayDependencies{
		Logger:    newTestLogger(),
		Storage:   storage,
		Fetcher:   fetcher.New(5 * time.Second),
		CacheName: testCacheName,
		Origin:    upstream.URL,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/page", nil))
	if body, _ := io.ReadAll(rr.Result().Body); string(body) != "live" {
		t.Fatalf("Body = %q, want live", body)
	}

	if _, err := storage.Match(testCacheName, "/page"); err != cache.ErrNotFound {
		t.Errorf("Expected /page to stay uncached after a miss, got %v", err)
	}
}

func TestGatewayFallsThroughWhenStorageFails(t *testing.T) {
	upstream, calls := newCountingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("live"))
	})

	storage := &cache.MockStorage{
		MatchFunc: func(name, key string) (*cache.Entry, error) {
			return nil, io.ErrUnexpectedEOF
		},
	}

	handler := CreateGatewayHandler(GatewayDependencies{
		Logger:    newTestLogger(),
		Storage:   storage,
		Fetcher:   fetcher.New(5 * time.Second),
		CacheName: testCacheName,
		Origin:    upstream.URL,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if calls.Load() != 1 {
		t.Errorf("Upstream was called %d times, want 1", calls.Load())
	}
	if rr.Body.String() != "live" {
		t.Errorf("Body = %q, want live", rr.Body.String())
	}
}
