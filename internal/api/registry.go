package api

import (
	"sync"

	"github.com/heat-tiles/server/internal/service"
)

// LayerInfo contains information about a layer for the API response.
type LayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// LayerRegistry holds the services for all live layers. Layers are created
// and deleted at runtime, so access is guarded by a lock.
type LayerRegistry struct {
	mu           sync.RWMutex
	services     map[string]*service.LayerService
	order        []string
	defaultLayer string
	title        string
}

// NewLayerRegistry creates a new layer registry.
func NewLayerRegistry(title string) *LayerRegistry {
	return &LayerRegistry{
		services: make(map[string]*service.LayerService),
		title:    title,
	}
}

// Register adds a layer service. The first registered layer becomes the
// default.
func (r *LayerRegistry) Register(svc *service.LayerService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	layerID := svc.ID()
	if _, ok := r.services[layerID]; !ok {
		r.order = append(r.order, layerID)
	}
	r.services[layerID] = svc
	if r.defaultLayer == "" {
		r.defaultLayer = layerID
	}
}

// Remove drops a layer service. Removing the default promotes the oldest
// remaining layer.
func (r *LayerRegistry) Remove(layerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[layerID]; !ok {
		return
	}
	delete(r.services, layerID)
	for i, id := range r.order {
		if id == layerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.defaultLayer == layerID {
		r.defaultLayer = ""
		if len(r.order) > 0 {
			r.defaultLayer = r.order[0]
		}
	}
}

// Get returns the service for a layer ID, or nil if not found.
func (r *LayerRegistry) Get(layerID string) *service.LayerService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.services[layerID]
}

// Lookup resolves a layer by ID first, then by display name.
func (r *LayerRegistry) Lookup(idOrName string) *service.LayerService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if svc, ok := r.services[idOrName]; ok {
		return svc
	}
	for _, id := range r.order {
		if svc := r.services[id]; svc.Name() == idOrName {
			return svc
		}
	}
	return nil
}

// IDs returns all layer IDs in registration order.
func (r *LayerRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// DefaultID returns the default layer ID.
func (r *LayerRegistry) DefaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultLayer
}

// Title returns the configured site title.
func (r *LayerRegistry) Title() string {
	if r.title != "" {
		return r.title
	}
	return "Heat Tiles"
}

// Layers returns layer info for all registered layers.
func (r *LayerRegistry) Layers() []LayerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]LayerInfo, 0, len(r.order))
	for _, id := range r.order {
		svc := r.services[id]
		infos = append(infos, LayerInfo{
			ID:     id,
			Name:   svc.Name(),
			Points: svc.NumPoints(),
		})
	}
	return infos
}
