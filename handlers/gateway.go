package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/alorle/asset-gateway/cache"
	"github.com/alorle/asset-gateway/fetcher"
	"github.com/alorle/asset-gateway/logging"
	"github.com/alorle/asset-gateway/metrics"
)

// GatewayDependencies holds the dependencies needed by the gateway handler
type GatewayDependencies struct {
	Logger    *logging.Logger
	Storage   cache.Storage
	Fetcher   fetcher.Interface
	CacheName string
	Origin    string
}

// CreateGatewayHandler creates the HTTP handler that intercepts every
// request: a GET whose request URI exactly matches a pre-cached asset is
// answered from the cache unconditionally, with no freshness check and no
// revalidation; everything else is forwarded to the upstream origin exactly
// once and returned as-is. The cache is never written on this path.
func CreateGatewayHandler(deps GatewayDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.RequestURI()

		if r.Method == http.MethodGet {
			entry, err := deps.Storage.Match(deps.CacheName, key)
			if err == nil {
				deps.Logger.Debug("Serving cached asset", map[string]interface{}{
					"key":        key,
					"request_id": GetRequestID(r.Context()),
				})
				metrics.RecordCacheHit()
				serveEntry(w, entry)
				return
			}
			if !errors.Is(err, cache.ErrNotFound) {
				// A broken store falls through to the network rather
				// than failing the request
				deps.Logger.Warn("Cache lookup failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
			metrics.RecordCacheMiss()
		}

		deps.Logger.Debug("Forwarding to upstream", map[string]interface{}{
			"method":     r.Method,
			"key":        key,
			"request_id": GetRequestID(r.Context()),
		})

		resp, err := deps.Fetcher.Forward(r, deps.Origin)
		if err != nil {
			metrics.RecordUpstreamError()
			deps.Logger.Error("Upstream request failed", map[string]interface{}{
				"method": r.Method,
				"key":    key,
				"error":  err.Error(),
			})
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
			return
		}
		defer func() {
			if closeErr := resp.Body.Close(); closeErr != nil {
				deps.Logger.Warn("Failed to close upstream response body", map[string]interface{}{
					"error": closeErr.Error(),
				})
			}
		}()

		copyHeader(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			deps.Logger.Warn("Failed to relay upstream response", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

func serveEntry(w http.ResponseWriter, entry *cache.Entry) {
	copyHeader(w.Header(), entry.Header)
	w.WriteHeader(entry.Status)
	w.Write(entry.Body)
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
