package httpapi

import (
	"sync/atomic"

	"jobtrail-engine/internal/config"
	"jobtrail-engine/internal/events"
	"jobtrail-engine/internal/pipeline"
	"jobtrail-engine/internal/poll"
	"jobtrail-engine/internal/store"
)

// Deps is everything the handlers need, injected by main for testability.
type Deps struct {
	Gateway  *store.Gateway
	Ingestor *pipeline.Ingestor
	Hub      *events.Hub
	Poller   *poll.Poller

	// Atomic store of config.Config, hot-reloaded on PUT /config
	CfgVal      *atomic.Value
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Single-tenant engine: every record belongs to this user.
	UserID string
}
