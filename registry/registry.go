package registry

import (
	"sync"

	"github.com/conclave-dao/conclave/ai"
	"github.com/conclave-dao/conclave/core"
)

// Runtime is the live, in-process side of a registered agent: its
// identity plus the handle used to generate its replies.
type Runtime struct {
	Agent     core.Agent
	Generator ai.Generator
}

// Registry maps agent IDs to their runtimes for the lifetime of one
// process. Durable agent rows live in storage; this only tracks agents
// whose replies this process generates.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[string]*Runtime
}

func New() *Registry {
	return &Registry{runtimes: make(map[string]*Runtime)}
}

func (r *Registry) Register(rt *Runtime) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runtimes[rt.Agent.ID] = rt
}

func (r *Registry) Get(agentID string) (*Runtime, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.runtimes[agentID]
	return rt, ok
}

func (r *Registry) List() []*Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Runtime, 0, len(r.runtimes))
	for _, rt := range r.runtimes {
		out = append(out, rt)
	}
	return out
}

func (r *Registry) Remove(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runtimes, agentID)
}
