package fetcher

import (
	"context"
	"net/http"

	"github.com/alorle/asset-gateway/cache"
)

// Interface defines the contract for retrieving responses from the upstream
type Interface interface {
	// Fetch retrieves the URL and captures the full response as a cache
	// entry. Any non-2xx status is an error, so a single missing asset
	// fails the caller's bulk pre-fetch.
	Fetch(ctx context.Context, url string) (*cache.Entry, error)

	// Forward re-issues an incoming request against the upstream origin
	// and returns the raw response. The caller owns the response body.
	Forward(r *http.Request, origin string) (*http.Response, error)
}
