package param

import (
	"sync"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Registry manages plugin parameters
type Registry struct {
	params map[uint32]*Parameter
	order  []uint32 // Maintain order for indexed access
	mu     sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		order:  make([]uint32, 0),
	}
}

// Add registers parameters; duplicate IDs are skipped
func (r *Registry) Add(params ...*Parameter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			continue
		}
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// GetByIndex retrieves a parameter by index
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}
	return r.params[r.order[index]]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// Value returns the normalized value of id, or 0 for unknown IDs
func (r *Registry) Value(id uint32) float64 {
	if p := r.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// Infos returns the descriptions of all parameters in order
func (r *Registry) Infos() []vst3.ParameterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]vst3.ParameterInfo, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id].Info()
	}
	return result
}
