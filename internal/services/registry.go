package services

import (
	"github.com/fyrsmithlabs/decisiond/internal/dialogue"
	"github.com/fyrsmithlabs/decisiond/internal/provider"
	"github.com/fyrsmithlabs/decisiond/internal/session"
)

// Registry provides access to all decisiond services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Dialogue() dialogue.Service
	Sessions() session.Store
	Provider() provider.Provider
}

// Options configures the registry with service instances.
type Options struct {
	Dialogue dialogue.Service
	Sessions session.Store
	Provider provider.Provider
}

// registry is the concrete implementation of Registry.
type registry struct {
	dialogue dialogue.Service
	sessions session.Store
	provider provider.Provider
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		dialogue: opts.Dialogue,
		sessions: opts.Sessions,
		provider: opts.Provider,
	}
}

func (r *registry) Dialogue() dialogue.Service  { return r.dialogue }
func (r *registry) Sessions() session.Store     { return r.sessions }
func (r *registry) Provider() provider.Provider { return r.provider }
