// Package adapter defines the per-source payload adapters for lead
// ingestion. Every upstream feed has its own declared shape; an adapter
// rejects payloads that do not match instead of guessing.
package adapter

import (
	leadservice "autohaul_crm_backend/internal/leads/service"
)

// SourceAdapter parses one upstream payload shape into normalized inbound
// leads. Parse rejects payloads that do not match the adapter's declared
// shape with a bad-request error.
type SourceAdapter interface {
	Name() string
	Parse(payload []byte) ([]leadservice.InboundLead, error)
}

// Registry maps source names to their adapters.
type Registry struct {
	adapters map[string]SourceAdapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...SourceAdapter) *Registry {
	reg := &Registry{adapters: make(map[string]SourceAdapter, len(adapters))}
	for _, a := range adapters {
		reg.adapters[a.Name()] = a
	}
	return reg
}

// Lookup returns the adapter for a source name.
func (r *Registry) Lookup(source string) (SourceAdapter, bool) {
	a, ok := r.adapters[source]
	return a, ok
}
