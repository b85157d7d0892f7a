package provisioning

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/imamik/fleetctl/internal/config"
	"github.com/imamik/fleetctl/internal/metrics"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config    *config.Config
	Fleet     *config.Definition
	State     *State
	Cloud     Cloud
	Buckets   BucketStore
	Playbooks PlaybookRunner
	Log       logr.Logger
	Metrics   *metrics.Recorder
	Timeouts  *config.Timeouts
}

// NewContext creates a provisioning context with empty state, environment
// timeouts and a discarding logger.
func NewContext(ctx context.Context, cfg *config.Config, def *config.Definition, cloud Cloud) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		Fleet:    def,
		State:    NewState(),
		Cloud:    cloud,
		Log:      logr.Discard(),
		Timeouts: config.LoadTimeouts(),
	}
}

// FleetName returns the name of the fleet being provisioned.
func (c *Context) FleetName() string {
	if c.Fleet == nil {
		return ""
	}
	return c.Fleet.Name
}
