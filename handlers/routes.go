package handlers

import (
	"fmt"
	"net/http"

	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alorle/asset-gateway/config"
	"github.com/alorle/asset-gateway/logging"
)

// SetupRoutes configures all HTTP routes and handlers
func SetupRoutes(cfg *config.Config, deps Dependencies) (http.Handler, error) {
	handler := http.NewServeMux()

	handler.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			deps.Logger.Warn("Error writing health response", map[string]interface{}{
				"error": err.Error(),
			})
		}
	})

	// Prometheus metrics endpoint
	handler.Handle("/metrics", promhttp.Handler())

	// Admin API, validated against the embedded OpenAPI document
	swagger, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	swagger.Servers = nil

	cacheHandler := NewCacheHandler(deps.Logger, deps.Storage, deps.Worker)

	apiMux := http.NewServeMux()
	apiMux.Handle("/cache", cacheHandler)
	apiMux.Handle("/cache/install", cacheHandler)
	apiMux.Handle("/openapi.json", NewDocumentationHandler(swagger))

	validated := nethttpmiddleware.OapiRequestValidator(swagger)(apiMux)
	handler.Handle("/api/", http.StripPrefix("/api", validated))

	// Everything else goes through the cache-first gateway
	handler.Handle("/", CreateGatewayHandler(GatewayDependencies{
		Logger:    deps.Logger,
		Storage:   deps.Storage,
		Fetcher:   deps.Fetcher,
		CacheName: cfg.Cache.Name,
		Origin:    cfg.Upstream.Origin,
	}))

	return RequestID(logRequests(deps.Logger, handler)), nil
}

// logRequests logs every request at debug level with its correlation ID
func logRequests(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Incoming request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": GetRequestID(r.Context()),
		})
		next.ServeHTTP(w, r)
	})
}
