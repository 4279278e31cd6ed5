package server

import (
	"context"
	"fmt"

	"github.com/docfold/docfold/internal/store"
)

// storePinger is any component exposing a Ping probe.
// *rag.QdrantStore satisfies it.
type storePinger interface {
	Ping(ctx context.Context) error
}

// VectorStorePinger probes the vector store's health endpoint.
// It satisfies the Pinger interface and is used by GET /api/ready.
type VectorStorePinger struct {
	// store is the vector store to probe.
	store storePinger
}

// NewVectorStorePinger constructs a VectorStorePinger for the given store.
func NewVectorStorePinger(s storePinger) *VectorStorePinger {
	return &VectorStorePinger{store: s}
}

// Name returns the dependency label used in readiness responses.
func (p *VectorStorePinger) Name() string { return "qdrant" }

// Ping probes the vector store.
func (p *VectorStorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// RegistryPinger probes the document registry database.
type RegistryPinger struct {
	// registry is the registry to probe.
	registry store.Registry
}

// NewRegistryPinger constructs a RegistryPinger for the given registry.
func NewRegistryPinger(r store.Registry) *RegistryPinger {
	return &RegistryPinger{registry: r}
}

// Name returns the dependency label used in readiness responses.
func (p *RegistryPinger) Name() string { return "registry" }

// Ping verifies the registry database is reachable.
func (p *RegistryPinger) Ping(ctx context.Context) error {
	if err := p.registry.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
