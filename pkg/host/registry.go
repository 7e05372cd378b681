package host

import (
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/hosterr"
)

// Handle identifies a loaded instance. Handles start at 1 and are never
// reused within a process.
type Handle uint32

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

type instanceMap map[Handle]*Instance

// Registry owns every loaded instance. Writers serialize on a mutex and
// publish a new copy of the map; readers load the current copy without
// locking.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[instanceMap]
	next uint32
}

// NewRegistry creates an empty registry whose first handle is 1.
func NewRegistry() *Registry {
	return newRegistryAt(1)
}

func newRegistryAt(next uint32) *Registry {
	r := &Registry{next: next}
	empty := instanceMap{}
	r.snap.Store(&empty)
	return r
}

// Exhausted reports whether no handle is left.
func (r *Registry) Exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next == 0
}

// Register stores inst under a fresh handle.
func (r *Registry) Register(inst *Instance) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next == 0 {
		return 0, &hosterr.Error{Op: "register", Kind: hosterr.KindHandlesExhausted}
	}
	h := Handle(r.next)
	if r.next == math.MaxUint32 {
		r.next = 0
	} else {
		r.next++
	}

	inst.handle = h
	old := *r.snap.Load()
	m := make(instanceMap, len(old)+1)
	for k, v := range old {
		m[k] = v
	}
	m[h] = inst
	r.snap.Store(&m)
	return h, nil
}

// Get returns the instance for h without locking.
func (r *Registry) Get(h Handle) (*Instance, bool) {
	inst, ok := (*r.snap.Load())[h]
	return inst, ok
}

// Lookup is Get with a NotFound error.
func (r *Registry) Lookup(h Handle) (*Instance, error) {
	if inst, ok := r.Get(h); ok {
		return inst, nil
	}
	return nil, hosterr.NewNotFoundError("lookup", uint32(h))
}

// Unregister removes h and returns its instance.
func (r *Registry) Unregister(h Handle) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.snap.Load()
	inst, ok := old[h]
	if !ok {
		return nil, hosterr.NewNotFoundError("unregister", uint32(h))
	}
	m := make(instanceMap, len(old))
	for k, v := range old {
		if k != h {
			m[k] = v
		}
	}
	r.snap.Store(&m)
	return inst, nil
}

// Handles returns the live handles in ascending order.
func (r *Registry) Handles() []Handle {
	m := *r.snap.Load()
	out := make([]Handle, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	return len(*r.snap.Load())
}
