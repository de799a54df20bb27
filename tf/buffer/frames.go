package buffer

import (
	"sync"

	"go.viam.com/tfcache/tf"
)

// frameRegistry interns frame names into compact ids. Id 0 is never handed out so a zero FrameID
// always means "no frame".
type frameRegistry struct {
	mu    sync.RWMutex
	ids   map[string]tf.FrameID
	names []string
}

func newFrameRegistry() *frameRegistry {
	return &frameRegistry{ids: map[string]tf.FrameID{}, names: []string{""}}
}

// lookup returns the id for name without interning it.
func (r *frameRegistry) lookup(name string) (tf.FrameID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[name]
	return id, ok
}

// intern returns the id for name, allocating one on first use.
func (r *frameRegistry) intern(name string) tf.FrameID {
	if id, ok := r.lookup(name); ok {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := tf.FrameID(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

func (r *frameRegistry) name(id tf.FrameID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == 0 || int(id) >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}
