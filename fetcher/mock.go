package fetcher

import (
	"context"
	"net/http"

	"github.com/alorle/asset-gateway/cache"
)

// MockFetcher is a mock implementation of the Interface for testing
type MockFetcher struct {
	FetchFunc   func(ctx context.Context, url string) (*cache.Entry, error)
	ForwardFunc func(r *http.Request, origin string) (*http.Response, error)
}

// Fetch implements Interface.Fetch
func (m *MockFetcher) Fetch(ctx context.Context, url string) (*cache.Entry, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}
	return nil, nil
}

// Forward implements Interface.Forward
func (m *MockFetcher) Forward(r *http.Request, origin string) (*http.Response, error) {
	if m.ForwardFunc != nil {
		return m.ForwardFunc(r, origin)
	}
	return nil, nil
}
