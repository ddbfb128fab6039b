package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/alorle/asset-gateway/cache"
	"github.com/alorle/asset-gateway/logging"
	"github.com/alorle/asset-gateway/worker"
)

// CacheHandler exposes the admin API over the active cache
type CacheHandler struct {
	logger  *logging.Logger
	storage cache.Storage
	worker  *worker.Worker
}

// NewCacheHandler creates a new CacheHandler
func NewCacheHandler(logger *logging.Logger, storage cache.Storage, w *worker.Worker) *CacheHandler {
	return &CacheHandler{
		logger:  logger,
		storage: storage,
		worker:  w,
	}
}

type cacheEntryInfo struct {
	Key      string    `json:"key"`
	Status   int       `json:"status"`
	Size     int       `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

type cacheInfoResponse struct {
	Name    string           `json:"name"`
	State   string           `json:"state"`
	Entries []cacheEntryInfo `json:"entries"`
}

// ServeHTTP handles GET /cache, DELETE /cache, and POST /cache/install
func (h *CacheHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/cache" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case r.URL.Path == "/cache" && r.Method == http.MethodDelete:
		h.handleDelete(w, r)
	case r.URL.Path == "/cache/install" && r.Method == http.MethodPost:
		h.handleInstall(w, r)
	default:
		logging.WriteJSONError(w, h.logger, "Method not allowed", http.StatusMethodNotAllowed, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}
}

// handleList returns the active cache's entries with their metadata
func (h *CacheHandler) handleList(w http.ResponseWriter, r *http.Request) {
	name := h.worker.CacheName()

	keys, err := h.storage.Keys(name)
	if err != nil {
		logging.WriteJSONError(w, h.logger, "Failed to list cache", http.StatusInternalServerError, map[string]interface{}{
			"cache": name,
			"error": err.Error(),
		})
		return
	}

	entries := make([]cacheEntryInfo, 0, len(keys))
	for _, key := range keys {
		entry, err := h.storage.Match(name, key)
		if err != nil {
			if errors.Is(err, cache.ErrNotFound) {
				continue
			}
			logging.WriteJSONError(w, h.logger, "Failed to read cache entry", http.StatusInternalServerError, map[string]interface{}{
				"cache": name,
				"key":   key,
				"error": err.Error(),
			})
			return
		}
		entries = append(entries, cacheEntryInfo{
			Key:      key,
			Status:   entry.Status,
			Size:     len(entry.Body),
			StoredAt: entry.StoredAt,
		})
	}

	logging.WriteJSONSuccess(w, h.logger, cacheInfoResponse{
		Name:    name,
		State:   string(h.worker.State()),
		Entries: entries,
	}, map[string]interface{}{
		"cache":   name,
		"entries": len(entries),
	})
}

// handleInstall re-runs the install and activates the worker again
func (h *CacheHandler) handleInstall(w http.ResponseWriter, r *http.Request) {
	name := h.worker.CacheName()

	if err := h.worker.Install(r.Context()); err != nil {
		logging.WriteJSONError(w, h.logger, "Install failed", http.StatusBadGateway, map[string]interface{}{
			"cache": name,
			"error": err.Error(),
		})
		return
	}

	if err := h.worker.Activate(r.Context()); err != nil {
		logging.WriteJSONError(w, h.logger, "Activation failed", http.StatusInternalServerError, map[string]interface{}{
			"cache": name,
			"error": err.Error(),
		})
		return
	}

	keys, err := h.storage.Keys(name)
	if err != nil {
		logging.WriteJSONError(w, h.logger, "Failed to list cache", http.StatusInternalServerError, map[string]interface{}{
			"cache": name,
			"error": err.Error(),
		})
		return
	}

	logging.WriteJSONSuccess(w, h.logger, map[string]interface{}{
		"name":   name,
		"assets": len(keys),
	}, map[string]interface{}{
		"cache": name,
	})
}

// handleDelete drops the active cache
func (h *CacheHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := h.worker.CacheName()

	if err := h.storage.Delete(name); err != nil {
		logging.WriteJSONError(w, h.logger, "Failed to delete cache", http.StatusInternalServerError, map[string]interface{}{
			"cache": name,
			"error": err.Error(),
		})
		return
	}

	logging.WriteJSONSuccess(w, h.logger, map[string]interface{}{
		"name":    name,
		"deleted": true,
	}, map[string]interface{}{
		"cache": name,
	})
}
