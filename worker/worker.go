package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alorle/asset-gateway/cache"
	"github.com/alorle/asset-gateway/fetcher"
	"github.com/alorle/asset-gateway/logging"
	"github.com/alorle/asset-gateway/metrics"
)

// State represents the worker lifecycle state as the host runtime sees it
type State string

// Lifecycle states, in the order the worker normally moves through them
const (
	StateNew        State = "new"        // StateNew is the state before Install has run
	StateInstalling State = "installing" // StateInstalling means the bulk pre-fetch is in progress
	StateWaiting    State = "waiting"    // StateWaiting means install succeeded and activation is pending
	StateActive     State = "active"     // StateActive means the worker is serving fetches
	StateRedundant  State = "redundant"  // StateRedundant means install failed and this version will never serve
)

// Worker pre-caches a fixed asset list into a named cache at install time.
// The cache name is the version handle: it must change whenever the asset
// list changes, and activation discards caches stored under any other name.
type Worker struct {
	cacheName string
	origin    string
	assets    []string
	storage   cache.Storage
	fetcher   fetcher.Interface
	logger    *logging.Logger

	mu    sync.RWMutex
	state State
}

// New creates a Worker for the given cache name, upstream origin, and asset list.
// The asset list is taken as-is: no validation, deduplication, or existence checks.
func New(cacheName, origin string, assets []string, storage cache.Storage, f fetcher.Interface, logger *logging.Logger) *Worker {
	return &Worker{
		cacheName: cacheName,
		origin:    strings.TrimSuffix(origin, "/"),
		assets:    assets,
		storage:   storage,
		fetcher:   f,
		logger:    logger,
		state:     StateNew,
	}
}

// CacheName returns the cache identifier this worker installs into
func (w *Worker) CacheName() string {
	return w.cacheName
}

// State returns the current lifecycle state
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Install fetches every asset from the upstream origin and stores the whole
// set in the named cache as one atomic bulk operation. The fetches run
// concurrently and the first failure cancels the rest; on any failure the
// cache is left without any of the entries and the worker becomes redundant.
// There is no retry and no partial-success path.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)
	w.logger.LogInstallStarted(w.cacheName, len(w.assets))
	start := time.Now()

	entries := make([]*cache.Entry, len(w.assets))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range w.assets {
		i, path := i, path
		g.Go(func() error {
			entry, err := w.fetcher.Fetch(ctx, w.origin+path)
			if err != nil {
				return fmt.Errorf("pre-cache of %s failed: %w", path, err)
			}
			entries[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.setState(StateRedundant)
		w.logger.LogInstallFailed(w.cacheName, err, time.Since(start))
		metrics.RecordInstall(metrics.ResultFailure, time.Since(start))
		return err
	}

	byKey := make(map[string]*cache.Entry, len(w.assets))
	for i, path := range w.assets {
		byKey[path] = entries[i]
	}

	if err := w.storage.PutAll(w.cacheName, byKey); err != nil {
		w.setState(StateRedundant)
		w.logger.LogInstallFailed(w.cacheName, err, time.Since(start))
		metrics.RecordInstall(metrics.ResultFailure, time.Since(start))
		return fmt.Errorf("failed to store pre-cached assets: %w", err)
	}

	w.setState(StateWaiting)
	w.logger.LogInstallComplete(w.cacheName, len(byKey), time.Since(start))
	metrics.RecordInstall(metrics.ResultSuccess, time.Since(start))
	metrics.SetAssetsCached(len(byKey))
	return nil
}

// Activate deletes every cache stored under a name other than this worker's
// and marks the worker active. This is the only point where a previous
// version's entries are discarded.
func (w *Worker) Activate(ctx context.Context) error {
	names, err := w.storage.Names()
	if err != nil {
		return fmt.Errorf("failed to list caches: %w", err)
	}

	var pruned []string
	for _, name := range names {
		if name == w.cacheName {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.storage.Delete(name); err != nil {
			return fmt.Errorf("failed to prune cache %q: %w", name, err)
		}
		pruned = append(pruned, name)
	}

	w.setState(StateActive)
	w.logger.LogActivated(w.cacheName, pruned)
	return nil
}
