package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driving"
)

// Ensure ModelRegistry implements the interface.
var _ driving.ModelService = (*ModelRegistry)(nil)

// ModelRegistry holds the embedding models that can be selected and tracks
// which one is active. Switching models never re-embeds existing vectors.
type ModelRegistry struct {
	mu     sync.RWMutex
	models map[string]domain.EmbeddingModel
	order  []string
	active string
}

// NewModelRegistry creates a registry with the given models and active model id.
func NewModelRegistry(models []domain.EmbeddingModel, activeID string) (*ModelRegistry, error) {
	r := &ModelRegistry{models: make(map[string]domain.EmbeddingModel, len(models))}
	for _, m := range models {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	if err := r.SetActive(activeID); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds or replaces a model.
func (r *ModelRegistry) Register(m domain.EmbeddingModel) error {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return fmt.Errorf("%w: model id is required", domain.ErrInvalidInput)
	}
	if m.Dimensions <= 0 {
		return fmt.Errorf("%w: model %s must declare its dimensions", domain.ErrInvalidInput, m.ID)
	}
	if m.Name == "" {
		m.Name = m.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[m.ID]; !ok {
		r.order = append(r.order, m.ID)
	}
	r.models[m.ID] = m
	return nil
}

// List returns the registered models in registration order.
func (r *ModelRegistry) List() []domain.EmbeddingModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.EmbeddingModel, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.models[id])
	}
	return out
}

// Get returns a model by id.
func (r *ModelRegistry) Get(id string) (domain.EmbeddingModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[id]
	if !ok {
		return domain.EmbeddingModel{}, fmt.Errorf("%w: %s", domain.ErrModelNotFound, id)
	}
	return m, nil
}

// Active returns the active model.
func (r *ModelRegistry) Active() domain.EmbeddingModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.models[r.active]
}

// SetActive switches the active model.
func (r *ModelRegistry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrModelNotFound, id)
	}
	r.active = id
	return nil
}
