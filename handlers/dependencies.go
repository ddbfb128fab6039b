package handlers

import (
	"github.com/alorle/asset-gateway/cache"
	"github.com/alorle/asset-gateway/fetcher"
	"github.com/alorle/asset-gateway/logging"
	"github.com/alorle/asset-gateway/worker"
)

// Dependencies holds all the dependencies needed by the handlers
type Dependencies struct {
	Logger  *logging.Logger
	Storage cache.Storage
	Fetcher fetcher.Interface
	Worker  *worker.Worker
}
